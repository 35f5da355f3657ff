package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/chb-creations/internal/constants"
	"github.com/chb-creations/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository 商品数据访问接口
type ProductRepository interface {
	ListBySubcategory(ctx context.Context, subcategory string) ([]models.Product, error)
	Search(ctx context.Context, keyword, subcategory string, limit int) ([]models.Product, error)
	ListSubcategories(ctx context.Context) ([]SubcategorySummary, error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	ListByIDs(ctx context.Context, ids []uint) ([]models.Product, error)
	ListUnavailabilities(ctx context.Context, productID uint, from time.Time) ([]Unavailability, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	UpsertBySlug(ctx context.Context, product *models.Product) error
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) ProductRepository
}

// GormProductRepository GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓库
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProductRepository) WithTx(tx *gorm.DB) ProductRepository {
	if tx == nil {
		return r
	}
	return &GormProductRepository{db: tx}
}

// Transaction 执行事务
func (r *GormProductRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// ListBySubcategory 按子类查询商品，创建时间升序
func (r *GormProductRepository) ListBySubcategory(ctx context.Context, subcategory string) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("subcategory = ?", strings.TrimSpace(subcategory)).
		Order("created_at ASC, id ASC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// Search 按关键字模糊搜索商品，可限定子类
func (r *GormProductRepository) Search(ctx context.Context, keyword, subcategory string, limit int) ([]models.Product, error) {
	var products []models.Product
	query := r.db.WithContext(ctx).Model(&models.Product{})
	if keyword = strings.TrimSpace(keyword); keyword != "" {
		condition, argCount := buildLikeCondition(r.db, productSearchColumns)
		query = query.Where(condition, repeatLikeArgs(likePattern(keyword), argCount)...)
	}
	if subcategory = strings.TrimSpace(subcategory); subcategory != "" {
		query = query.Where("subcategory = ?", subcategory)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Order("name ASC, id ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// ListSubcategories 汇总大类/子类及商品数
func (r *GormProductRepository) ListSubcategories(ctx context.Context) ([]SubcategorySummary, error) {
	var rows []SubcategorySummary
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Select("category, subcategory, COUNT(*) AS product_count").
		Where("subcategory <> ''").
		Group("category, subcategory").
		Order("category ASC, subcategory ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// GetBySlug 按 slug 获取商品，不存在返回 nil
func (r *GormProductRepository) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("slug = ?", strings.TrimSpace(slug)).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// GetByID 按 ID 获取商品
func (r *GormProductRepository) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	if id == 0 {
		return nil, nil
	}
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// ListByIDs 批量获取商品
func (r *GormProductRepository) ListByIDs(ctx context.Context, ids []uint) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var products []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// ListUnavailabilities 汇总 from 当天及之后每日的已订数量，日期按 from 所在时区切分
func (r *GormProductRepository) ListUnavailabilities(ctx context.Context, productID uint, from time.Time) ([]Unavailability, error) {
	if productID == 0 {
		return []Unavailability{}, nil
	}
	loc := from.Location()
	rows, err := loadReservedItems(r.db.WithContext(ctx), []uint{productID}, from)
	if err != nil {
		return nil, err
	}
	fromDate := ""
	if !from.IsZero() {
		fromDate = from.In(loc).Format(constants.DateLayout)
	}
	return sortedUnavailabilities(aggregateByDate(rows, loc)[productID], fromDate), nil
}

// Create 创建商品
func (r *GormProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.Stock < 0 {
		product.Stock = 0
	}
	return r.db.WithContext(ctx).Create(product).Error
}

// Update 更新商品
func (r *GormProductRepository) Update(ctx context.Context, product *models.Product) error {
	if product.Stock < 0 {
		product.Stock = 0
	}
	return r.db.WithContext(ctx).Save(product).Error
}

// UpsertBySlug 按 slug 插入或覆盖商品（导入目录使用）
func (r *GormProductRepository) UpsertBySlug(ctx context.Context, product *models.Product) error {
	if product.Stock < 0 {
		product.Stock = 0
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "description", "price", "new_price", "images", "features", "faq", "options",
				"personalization_fields", "deposit", "caution", "stock", "base_delivery_fees",
				"installation_fees", "is_out_of_stock", "category", "subcategory", "updated_at",
			}),
		}).
		Create(product).Error
}

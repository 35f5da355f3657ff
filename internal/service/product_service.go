package service

import (
	"context"
	"strings"
	"time"

	"github.com/chb-creations/internal/models"
	"github.com/chb-creations/internal/repository"
)

const maxSearchResults = 50

// ProductService 商品目录与可用性服务
type ProductService struct {
	repo   repository.ProductRepository
	policy *AvailabilityPolicy
}

// NewProductService 创建商品服务
func NewProductService(repo repository.ProductRepository, policy *AvailabilityPolicy) *ProductService {
	return &ProductService{repo: repo, policy: policy}
}

// ProductPage 商品详情页数据
type ProductPage struct {
	Product          *models.Product             `json:"product"`
	Unavailabilities []repository.Unavailability `json:"unavailabilities"`
	MaxRentalDays    int                         `json:"max_rental_days"`
	DefaultStartTime string                      `json:"default_start_time"`
	DefaultEndTime   string                      `json:"default_end_time"`
}

// CheckRangeInput 租期校验输入
type CheckRangeInput struct {
	Quantity  int
	StartDate string
	EndDate   string
	// Revalidate 表示数量变化后复核已选租期
	Revalidate bool
}

// QuoteInput 价格预览输入
type QuoteInput struct {
	Quantity          int
	Selections        map[string]string
	NeedsInstallation bool
}

// ListSubcategories 子类导航
func (s *ProductService) ListSubcategories(ctx context.Context) ([]repository.SubcategorySummary, error) {
	return s.repo.ListSubcategories(ctx)
}

// ListBySubcategory 按子类列出商品
func (s *ProductService) ListBySubcategory(ctx context.Context, subcategory string) ([]models.Product, error) {
	subcategory = strings.TrimSpace(subcategory)
	if subcategory == "" {
		return []models.Product{}, nil
	}
	return s.repo.ListBySubcategory(ctx, subcategory)
}

// Search 关键字搜索，空关键字退化为子类列表
func (s *ProductService) Search(ctx context.Context, keyword, subcategory string) ([]models.Product, error) {
	if strings.TrimSpace(keyword) == "" {
		return s.ListBySubcategory(ctx, subcategory)
	}
	return s.repo.Search(ctx, keyword, subcategory, maxSearchResults)
}

// GetProductPage 商品详情及今日起的已订日期
func (s *ProductService) GetProductPage(ctx context.Context, slug string) (*ProductPage, error) {
	product, err := s.getBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	unavailabilities, err := s.repo.ListUnavailabilities(ctx, product.ID, s.policy.Today())
	if err != nil {
		return nil, err
	}
	start, end, _ := s.policy.ResolveTimes("", "")
	return &ProductPage{
		Product:          product,
		Unavailabilities: unavailabilities,
		MaxRentalDays:    s.policy.MaxRentalDays(),
		DefaultStartTime: start,
		DefaultEndTime:   end,
	}, nil
}

// Calendar 逐日可用性视图；from 为空时从今天开始
func (s *ProductService) Calendar(ctx context.Context, slug string, quantity int, from string, days int) ([]CalendarDay, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	product, err := s.getBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if product.IsOutOfStock {
		return nil, ErrProductOutOfStock
	}
	start := s.policy.Today()
	if strings.TrimSpace(from) != "" {
		parsed, err := s.policy.ParseDate(from)
		if err != nil {
			return nil, err
		}
		start = parsed
	}
	unavailabilities, err := s.repo.ListUnavailabilities(ctx, product.ID, start)
	if err != nil {
		return nil, err
	}
	return s.policy.Calendar(start, days, product.Stock, quantity, unavailabilities)
}

// CheckRange 校验所选租期
func (s *ProductService) CheckRange(ctx context.Context, slug string, input CheckRangeInput) (*RangeCheck, error) {
	if input.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	product, err := s.getBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if product.IsOutOfStock {
		return nil, ErrProductOutOfStock
	}
	start, err := s.policy.ParseDate(input.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := s.policy.ParseDate(input.EndDate)
	if err != nil {
		return nil, err
	}
	unavailabilities, err := s.repo.ListUnavailabilities(ctx, product.ID, s.policy.Today())
	if err != nil {
		return nil, err
	}

	var check RangeCheck
	if input.Revalidate {
		check, err = s.policy.RevalidateRange(start, end, product.Stock, input.Quantity, unavailabilities)
	} else {
		check, err = s.policy.ValidateRange(start, end, product.Stock, input.Quantity, unavailabilities)
	}
	if err != nil {
		return nil, err
	}
	return &check, nil
}

// Quote 商品页价格预览
func (s *ProductService) Quote(ctx context.Context, slug string, input QuoteInput) (*LineQuote, error) {
	product, err := s.getBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return QuoteLine(LineQuoteInput{
		Product:           product,
		Quantity:          input.Quantity,
		Selections:        input.Selections,
		NeedsInstallation: input.NeedsInstallation,
	})
}

// Today 店铺时区今天
func (s *ProductService) Today() time.Time {
	return s.policy.Today()
}

func (s *ProductService) getBySlug(ctx context.Context, slug string) (*models.Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrProductNotFound
	}
	product, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/chb-creations/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CheckoutDraftRepository 支付草稿数据访问接口
type CheckoutDraftRepository interface {
	Create(ctx context.Context, draft *models.CheckoutDraft) error
	GetByID(ctx context.Context, id uint) (*models.CheckoutDraft, error)
	GetByIDForUpdate(ctx context.Context, id uint) (*models.CheckoutDraft, error)
	GetBySessionID(ctx context.Context, sessionID string) (*models.CheckoutDraft, error)
	Update(ctx context.Context, draft *models.CheckoutDraft) error
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) CheckoutDraftRepository
}

// GormCheckoutDraftRepository GORM 实现
type GormCheckoutDraftRepository struct {
	db *gorm.DB
}

// NewCheckoutDraftRepository 创建支付草稿仓库
func NewCheckoutDraftRepository(db *gorm.DB) *GormCheckoutDraftRepository {
	return &GormCheckoutDraftRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCheckoutDraftRepository) WithTx(tx *gorm.DB) CheckoutDraftRepository {
	if tx == nil {
		return r
	}
	return &GormCheckoutDraftRepository{db: tx}
}

// Transaction 执行事务
func (r *GormCheckoutDraftRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建草稿
func (r *GormCheckoutDraftRepository) Create(ctx context.Context, draft *models.CheckoutDraft) error {
	return r.db.WithContext(ctx).Create(draft).Error
}

// GetByID 获取草稿
func (r *GormCheckoutDraftRepository) GetByID(ctx context.Context, id uint) (*models.CheckoutDraft, error) {
	return r.first(r.db.WithContext(ctx), "id = ?", id)
}

// GetByIDForUpdate 加锁获取草稿
func (r *GormCheckoutDraftRepository) GetByIDForUpdate(ctx context.Context, id uint) (*models.CheckoutDraft, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), "id = ?", id)
}

// GetBySessionID 按支付会话 ID 获取草稿
func (r *GormCheckoutDraftRepository) GetBySessionID(ctx context.Context, sessionID string) (*models.CheckoutDraft, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, nil
	}
	return r.first(r.db.WithContext(ctx), "session_id = ?", sessionID)
}

// Update 更新草稿
func (r *GormCheckoutDraftRepository) Update(ctx context.Context, draft *models.CheckoutDraft) error {
	draft.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(draft).Error
}

func (r *GormCheckoutDraftRepository) first(query *gorm.DB, cond string, arg interface{}) (*models.CheckoutDraft, error) {
	var draft models.CheckoutDraft
	if err := query.Where(cond, arg).First(&draft).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &draft, nil
}

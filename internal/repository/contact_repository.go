package repository

import (
	"context"

	"github.com/chb-creations/internal/models"

	"gorm.io/gorm"
)

// ContactRepository 联系留言数据访问接口
type ContactRepository interface {
	Create(ctx context.Context, message *models.ContactMessage) error
}

// GormContactRepository GORM 实现
type GormContactRepository struct {
	db *gorm.DB
}

// NewContactRepository 创建联系留言仓库
func NewContactRepository(db *gorm.DB) *GormContactRepository {
	return &GormContactRepository{db: db}
}

// Create 保存留言
func (r *GormContactRepository) Create(ctx context.Context, message *models.ContactMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

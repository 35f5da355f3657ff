package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product 租赁商品表
type Product struct {
	ID                    uint         `gorm:"primarykey" json:"id"`                                            // 主键
	Slug                  string       `gorm:"uniqueIndex;not null" json:"slug"`                                // 唯一标识
	Name                  string       `gorm:"type:varchar(255);not null" json:"name"`                          // 名称
	Description           string       `gorm:"type:text" json:"description"`                                    // 富文本描述
	Price                 Money        `gorm:"type:decimal(20,2);not null;default:0" json:"price"`              // 基础价格
	NewPrice              *Money       `gorm:"type:decimal(20,2)" json:"new_price"`                             // 促销价（存在时覆盖基础价）
	Images                StringArray  `gorm:"type:json" json:"images"`                                         // 图片
	Features              StringArray  `gorm:"type:json" json:"features"`                                       // 特点
	FAQ                   FAQList      `gorm:"type:json" json:"faq"`                                            // 常见问题
	Options               OptionGroups `gorm:"type:json" json:"options"`                                        // 选项组
	PersonalizationFields StringArray  `gorm:"type:json" json:"personalization_fields"`                         // 个性化字段标签
	Deposit               int          `gorm:"not null;default:0" json:"deposit"`                               // 定金百分比 0-100
	Caution               Money        `gorm:"type:decimal(20,2);not null;default:0" json:"caution"`            // 押金（仅展示）
	Stock                 int          `gorm:"not null;default:0" json:"stock"`                                 // 库存
	BaseDeliveryFees      Money        `gorm:"type:decimal(20,2);not null;default:0" json:"base_delivery_fees"` // 基础配送费
	InstallationFees      *Money       `gorm:"type:decimal(20,2)" json:"installation_fees"`                     // 安装费
	IsOutOfStock          bool         `gorm:"not null;default:false" json:"is_out_of_stock"`                   // 缺货标记
	Category              string       `gorm:"type:varchar(64);index" json:"category"`                          // 大类
	Subcategory           string       `gorm:"type:varchar(64);index" json:"subcategory"`                       // 子类
	CreatedAt             time.Time    `gorm:"index" json:"created_at"`                                         // 创建时间
	UpdatedAt             time.Time    `json:"updated_at"`                                                      // 更新时间
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// EffectivePrice 促销价优先，否则基础价
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.NewPrice != nil {
		return p.NewPrice.Decimal
	}
	return p.Price.Decimal
}

// HasInstallation 是否提供安装服务
func (p *Product) HasInstallation() bool {
	return p.InstallationFees != nil && p.InstallationFees.Decimal.GreaterThan(decimal.Zero)
}

// PrimaryImage 首张图片
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

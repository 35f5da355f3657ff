package models

import (
	"time"

	"github.com/chb-creations/internal/constants"
)

// Reservation 预订表
type Reservation struct {
	ID                 uint              `gorm:"primarykey" json:"id"`
	CustomerInfos      CustomerInfo      `gorm:"type:json;not null" json:"customer_infos"`
	Deposit            Money             `gorm:"type:decimal(20,2);not null;default:0" json:"deposit"`
	Caution            Money             `gorm:"type:decimal(20,2);not null;default:0" json:"caution"`
	DeliveryOption     string            `gorm:"type:varchar(20);not null" json:"delivery_option"`
	DeliveryAddress    string            `gorm:"type:varchar(500)" json:"delivery_address"`
	DeliveryDistanceKm float64           `gorm:"not null;default:0" json:"delivery_distance_km"`
	DeliveryFees       Money             `gorm:"type:decimal(20,2);not null;default:0" json:"delivery_fees"`
	TotalPrice         Money             `gorm:"type:decimal(20,2);not null;default:0" json:"total_price"`
	ReservationStatus  string            `gorm:"type:varchar(32);not null;index" json:"reservation_status"`
	PaymentMethod      string            `gorm:"type:varchar(20);not null;default:'none'" json:"payment_method"`
	StripePaymentID    *string           `gorm:"type:varchar(255);uniqueIndex" json:"stripe_payment_id,omitempty"`
	CreatedAt          time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
	Items              []ReservationItem `gorm:"foreignKey:ReservationID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// TableName 指定表名
func (Reservation) TableName() string {
	return "reservations"
}

// Balance 剩余应付金额（总价减去定金）
func (r *Reservation) Balance() Money {
	return NewMoneyFromDecimal(r.TotalPrice.Decimal.Sub(r.Deposit.Decimal))
}

// IsDelivery 是否送货上门
func (r *Reservation) IsDelivery() bool {
	return r.DeliveryOption == constants.DeliveryOptionDelivery
}

// DepositCollected 定金是否已在线支付
func (r *Reservation) DepositCollected() bool {
	return r.ReservationStatus == constants.ReservationStatusConfirmed && r.StripePaymentID != nil
}

// ReservationItem 预订明细表
type ReservationItem struct {
	ID            uint        `gorm:"primarykey" json:"id"`
	ReservationID uint        `gorm:"not null;index" json:"reservation_id"`
	ProductID     uint        `gorm:"not null;index" json:"product_id"`
	ProductName   string      `gorm:"type:varchar(255)" json:"product_name"`
	Quantity      int         `gorm:"not null" json:"quantity"`
	RentalStart   time.Time   `gorm:"not null;index" json:"rental_start"`
	RentalEnd     time.Time   `gorm:"not null;index" json:"rental_end"`
	Options       ItemOptions `gorm:"type:json" json:"options"`
	UnitPrice     Money       `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`
	LineTotal     Money       `gorm:"type:decimal(20,2);not null;default:0" json:"line_total"`
	CreatedAt     time.Time   `json:"created_at"`
}

// TableName 指定表名
func (ReservationItem) TableName() string {
	return "reservation_items"
}

package models

import "time"

// CheckoutDraft 在线支付定金前暂存的预订请求
type CheckoutDraft struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	SessionID     string    `gorm:"type:varchar(255);index" json:"session_id"`
	Payload       string    `gorm:"type:text;not null" json:"-"`
	DepositAmount Money     `gorm:"type:decimal(20,2);not null;default:0" json:"deposit_amount"`
	TotalAmount   Money     `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`
	Status        string    `gorm:"type:varchar(20);not null;index" json:"status"`
	ReservationID *uint     `gorm:"index" json:"reservation_id,omitempty"`
	FailureReason string    `gorm:"type:varchar(500)" json:"failure_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName 指定表名
func (CheckoutDraft) TableName() string {
	return "checkout_drafts"
}

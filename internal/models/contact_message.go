package models

import "time"

// ContactMessage 联系表单留言
type ContactMessage struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Email     string    `gorm:"type:varchar(255);not null;index" json:"email"`
	Phone     string    `gorm:"type:varchar(64)" json:"phone"`
	Subject   string    `gorm:"type:varchar(255);not null" json:"subject"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (ContactMessage) TableName() string {
	return "contact_messages"
}

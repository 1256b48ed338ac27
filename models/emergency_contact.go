package models

import (
	"time"
)

// EmergencyContact 客户的紧急联系人，按Priority升序逐个尝试联系
type EmergencyContact struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	ClientID uint   `gorm:"index;not null" json:"client_id"`
	Name     string `gorm:"type:varchar(100);not null" json:"name"`
	Role     string `gorm:"type:varchar(50)" json:"role,omitempty"` // 如：Tochter、Sohn、Nachbar等
	Priority int    `gorm:"default:0" json:"priority"`              // 数字越小越先联系

	Phone       string `gorm:"type:varchar(30)" json:"phone,omitempty"`
	MobilePhone string `gorm:"type:varchar(30)" json:"mobile_phone,omitempty"`
	Email       string `gorm:"type:varchar(100)" json:"email,omitempty"`

	NotifyBySMS   bool `json:"notify_by_sms"`
	NotifyByCall  bool `json:"notify_by_call"`
	NotifyByEmail bool `json:"notify_by_email"`

	IsAvailable bool `gorm:"default:true" json:"is_available"`
	HasKey      bool `json:"has_key"` // 是否持有客户家钥匙

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Client *CareClient `gorm:"foreignKey:ClientID" json:"client,omitempty"`
}

// BestCallNumber 返回优先用于呼叫的号码（手机优先）
func (c *EmergencyContact) BestCallNumber() string {
	if c.MobilePhone != "" {
		return c.MobilePhone
	}
	return c.Phone
}

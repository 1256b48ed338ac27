package models

import (
	"fmt"
	"strings"
	"time"
)

// CareClient 签约的居家护理客户
type CareClient struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Name      string     `gorm:"type:varchar(100);not null" json:"name"`
	Phone     string     `gorm:"type:varchar(30)" json:"phone,omitempty"`
	BirthDate *time.Time `json:"birth_date,omitempty"`

	// 地址信息，拨打急救时需要报给接线员
	Street      string `gorm:"type:varchar(100)" json:"street,omitempty"`
	HouseNumber string `gorm:"type:varchar(10)" json:"house_number,omitempty"`
	PostalCode  string `gorm:"type:varchar(10)" json:"postal_code,omitempty"`
	City        string `gorm:"type:varchar(50)" json:"city,omitempty"`

	Notes  string `gorm:"type:text" json:"notes,omitempty"`
	Active bool   `gorm:"default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations - 多对多关系
	Providers   []MedicalProvider  `gorm:"many2many:client_provider_relations;" json:"providers,omitempty"` // 签约的医疗服务提供者
	Devices     []CareDevice       `gorm:"foreignKey:ClientID" json:"devices,omitempty"`
	Contacts    []EmergencyContact `gorm:"foreignKey:ClientID" json:"contacts,omitempty"`
	Medications []Medication       `gorm:"foreignKey:ClientID" json:"medications,omitempty"`
}

// FullAddress 拼装完整地址，缺失的部分跳过
func (c *CareClient) FullAddress() string {
	parts := make([]string, 0, 3)
	if c.Street != "" {
		street := c.Street
		if c.HouseNumber != "" {
			street = fmt.Sprintf("%s %s", c.Street, c.HouseNumber)
		}
		parts = append(parts, street)
	}
	if c.PostalCode != "" || c.City != "" {
		parts = append(parts, strings.TrimSpace(c.PostalCode+" "+c.City))
	}
	return strings.Join(parts, ", ")
}

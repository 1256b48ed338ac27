package models

import (
	"time"
)

// 判定为家庭医生/全科的专业类别
var generalMedicineSpecialties = map[string]bool{
	"Allgemeinmedizin": true,
	"Hausarzt":         true,
	"Innere Medizin":   true,
}

// MedicalProvider 签约医疗服务提供者（医生/诊所）
type MedicalProvider struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Name         string `gorm:"type:varchar(100);not null" json:"name"`
	Specialty    string `gorm:"type:varchar(50)" json:"specialty,omitempty"`
	Phone        string `gorm:"type:varchar(30)" json:"phone,omitempty"`
	PracticeName string `gorm:"type:varchar(100)" json:"practice_name,omitempty"`
	City         string `gorm:"type:varchar(50)" json:"city,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsGeneralPractitioner 判断是否属于全科/家庭医生类别
func (p *MedicalProvider) IsGeneralPractitioner() bool {
	return generalMedicineSpecialties[p.Specialty]
}

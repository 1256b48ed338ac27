package models

import (
	"strings"
	"time"
)

// Medication 客户的用药记录，急救呼叫时按Priority升序朗读
type Medication struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	ClientID uint   `gorm:"index;not null" json:"client_id"`
	Name     string `gorm:"type:varchar(100);not null" json:"name"`
	Dosage   string `gorm:"type:varchar(50)" json:"dosage,omitempty"`    // 如：5mg
	Frequency string `gorm:"type:varchar(50)" json:"frequency,omitempty"` // 如：2x täglich

	// 对急救人员至关重要的提示（如抗凝剂）
	EmergencyNotes string `gorm:"type:text" json:"emergency_notes,omitempty"`

	Priority int  `gorm:"default:0" json:"priority"`
	Active   bool `gorm:"default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RenderMedicationList 渲染朗读给急救接线员的用药清单
// 输出格式有审计和法律效力，必须逐字节稳定，不得改动
func RenderMedicationList(medications []Medication) string {
	if len(medications) == 0 {
		return "Keine Medikamente hinterlegt"
	}

	var b strings.Builder
	b.WriteString("=== MEDIKAMENTENLISTE ===\n")
	b.WriteString("\n")

	for _, med := range medications {
		b.WriteString("• " + med.Name + "\n")
		if med.Dosage != "" {
			b.WriteString("  Dosierung: " + med.Dosage + "\n")
		}
		if med.Frequency != "" {
			b.WriteString("  Einnahme: " + med.Frequency + "\n")
		}
		if med.EmergencyNotes != "" {
			b.WriteString("  ⚠️ WICHTIG: " + med.EmergencyNotes + "\n")
		}
		b.WriteString("\n")
	}

	return b.String()
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMedicationListEmpty(t *testing.T) {
	// 空清单输出固定的字面文本
	assert.Equal(t, "Keine Medikamente hinterlegt", RenderMedicationList(nil))
	assert.Equal(t, "Keine Medikamente hinterlegt", RenderMedicationList([]Medication{}))
}

func TestRenderMedicationListFull(t *testing.T) {
	medications := []Medication{
		{
			Name:           "Marcumar",
			Dosage:         "3mg",
			Frequency:      "1x täglich",
			EmergencyNotes: "Blutverdünner - erhöhte Blutungsgefahr",
		},
		{
			Name:   "Ramipril",
			Dosage: "5mg",
		},
		{
			Name: "Insulin",
		},
	}

	expected := "=== MEDIKAMENTENLISTE ===\n" +
		"\n" +
		"• Marcumar\n" +
		"  Dosierung: 3mg\n" +
		"  Einnahme: 1x täglich\n" +
		"  ⚠️ WICHTIG: Blutverdünner - erhöhte Blutungsgefahr\n" +
		"\n" +
		"• Ramipril\n" +
		"  Dosierung: 5mg\n" +
		"\n" +
		"• Insulin\n" +
		"\n"

	// 输出有审计效力，必须逐字节一致
	assert.Equal(t, expected, RenderMedicationList(medications))
}

func TestRenderMedicationListOnlyFrequency(t *testing.T) {
	medications := []Medication{
		{Name: "Metformin", Frequency: "2x täglich"},
	}

	expected := "=== MEDIKAMENTENLISTE ===\n" +
		"\n" +
		"• Metformin\n" +
		"  Einnahme: 2x täglich\n" +
		"\n"

	assert.Equal(t, expected, RenderMedicationList(medications))
}

func TestRenderMedicationListDeterministic(t *testing.T) {
	medications := []Medication{
		{Name: "ASS 100", Dosage: "100mg", Frequency: "morgens"},
	}
	first := RenderMedicationList(medications)
	second := RenderMedicationList(medications)
	assert.Equal(t, first, second)
}

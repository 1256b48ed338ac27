package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChainStepOrder(t *testing.T) {
	steps := []ChainStep{
		ChainStepInitial,
		ChainStepContactingFamily,
		ChainStepContactingDoctor,
		ChainStepContactingAmbulance,
		ChainStepInConference,
		ChainStepResolved,
	}

	// 响应链顺序严格递增
	for i := 1; i < len(steps); i++ {
		assert.Greater(t, steps[i].Order(), steps[i-1].Order(),
			"%s 应排在 %s 之后", steps[i], steps[i-1])
	}

	assert.Equal(t, -1, ChainStep("unbekannt").Order())
}

func TestChainStepCanAdvanceTo(t *testing.T) {
	// 前进和原地都允许
	assert.True(t, ChainStepInitial.CanAdvanceTo(ChainStepContactingFamily))
	assert.True(t, ChainStepContactingFamily.CanAdvanceTo(ChainStepContactingAmbulance))
	assert.True(t, ChainStepContactingDoctor.CanAdvanceTo(ChainStepContactingDoctor))

	// 回退被拒绝
	assert.False(t, ChainStepContactingDoctor.CanAdvanceTo(ChainStepContactingFamily))
	assert.False(t, ChainStepInConference.CanAdvanceTo(ChainStepInitial))

	// 强制结案从任何步骤都允许
	for step := range chainStepOrder {
		assert.True(t, step.CanAdvanceTo(ChainStepResolved), "从 %s 强制结案应当允许", step)
	}
}

func TestAlertStatusIsTerminal(t *testing.T) {
	assert.False(t, AlertStatusNew.IsTerminal())
	assert.False(t, AlertStatusAcknowledged.IsTerminal())
	assert.False(t, AlertStatusInProgress.IsTerminal())
	assert.True(t, AlertStatusResolved.IsTerminal())
	assert.True(t, AlertStatusEscalated.IsTerminal())
	assert.True(t, AlertStatusCancelled.IsTerminal())
}

func TestStringListRoundTrip(t *testing.T) {
	list := StringList{"Dispatcher", "Dr. Weber", "Dr. Weber"}

	value, err := list.Value()
	assert.NoError(t, err)

	var decoded StringList
	assert.NoError(t, decoded.Scan(value))
	assert.Equal(t, list, decoded)

	var empty StringList
	v, err := empty.Value()
	assert.NoError(t, err)
	assert.NoError(t, decoded.Scan(v))
	assert.Empty(t, decoded)
}

package services

import (
	"testing"

	"carecall-http-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRaiseAlertResolvesClientByCallerNumber(t *testing.T) {
	env := newTestEnv()
	env.seedClient(1, "Frau Schmidt")
	clientID := uint(1)
	env.repo.AddDevice(&models.CareDevice{
		ID: 1, SerialNumber: "HNR-001", PhoneNumber: "+4922198765", ClientID: &clientID,
	})

	alert, err := env.alerts.RaiseAlert(&RaiseAlertRequest{
		AlertType:    models.AlertTypeFallDetection,
		Priority:     models.AlertPriorityHigh,
		CallerNumber: "+4922198765",
	})
	require.NoError(t, err)
	require.NotNil(t, alert.ClientID)
	assert.Equal(t, uint(1), *alert.ClientID)
	require.NotNil(t, alert.DeviceID)
	assert.Equal(t, uint(1), *alert.DeviceID)
	assert.Equal(t, models.AlertStatusNew, alert.Status)
	assert.Equal(t, models.ChainStepInitial, alert.ChainStep)
}

func TestRaiseAlertSharedNumberPicksFirstRegisteredDevice(t *testing.T) {
	env := newTestEnv()
	env.seedClient(1, "Frau Schmidt")
	env.seedClient(2, "Herr Schmidt")
	clientA := uint(1)
	clientB := uint(2)
	// 同一固话登记了两台设备，取最先注册的那台
	env.repo.AddDevice(&models.CareDevice{ID: 3, SerialNumber: "HNR-003", PhoneNumber: "+4922100001", ClientID: &clientB})
	env.repo.AddDevice(&models.CareDevice{ID: 2, SerialNumber: "HNR-002", PhoneNumber: "+4922100001", ClientID: &clientA})

	alert, err := env.alerts.RaiseAlert(&RaiseAlertRequest{
		AlertType:    models.AlertTypeManual,
		Priority:     models.AlertPriorityHigh,
		CallerNumber: "+4922100001",
	})
	require.NoError(t, err)
	require.NotNil(t, alert.DeviceID)
	assert.Equal(t, uint(2), *alert.DeviceID)
	assert.Equal(t, uint(1), *alert.ClientID)
}

func TestRaiseAlertUnknownCallerStillCreated(t *testing.T) {
	env := newTestEnv()

	alert, err := env.alerts.RaiseAlert(&RaiseAlertRequest{
		AlertType:    models.AlertTypeIncomingCall,
		Priority:     models.AlertPriorityHigh,
		CallerNumber: "+4900000000",
	})
	require.NoError(t, err)
	assert.Nil(t, alert.ClientID)
	assert.Nil(t, alert.DeviceID)
	assert.Equal(t, "+4900000000", alert.CallerNumber)
}

func TestAcknowledgeAlertIdempotent(t *testing.T) {
	env := newTestEnv()
	env.seedClient(1, "Frau Schmidt")
	env.seedDispatcher(1, "Maria Weber")
	alert := env.raiseTestAlert(1)

	require.NoError(t, env.alerts.AcknowledgeAlert(alert.ID, 1))
	first, err := env.alerts.GetAlert(alert.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusAcknowledged, first.Status)
	require.NotNil(t, first.AcknowledgedAt)
	ackTime := *first.AcknowledgedAt

	// 重复确认不报错也不改时间
	require.NoError(t, env.alerts.AcknowledgeAlert(alert.ID, 1))
	second, err := env.alerts.GetAlert(alert.ID)
	require.NoError(t, err)
	assert.Equal(t, ackTime, *second.AcknowledgedAt)
}

func TestAcknowledgeAlertUnknownActors(t *testing.T) {
	env := newTestEnv()
	env.seedClient(1, "Frau Schmidt")
	env.seedDispatcher(1, "Maria Weber")
	alert := env.raiseTestAlert(1)

	assert.ErrorIs(t, env.alerts.AcknowledgeAlert(alert.ID, 99), ErrDispatcherNotFound)
	assert.ErrorIs(t, env.alerts.AcknowledgeAlert(999, 1), ErrAlertNotFound)
}

func TestResolveAlertForcesChainStepAndBlocksFurtherOps(t *testing.T) {
	env := newTestEnv()
	env.seedClient(1, "Frau Schmidt")
	env.seedDispatcher(1, "Maria Weber")
	alert := env.raiseTestAlert(1)

	require.NoError(t, env.alerts.AdvanceChainStep(alert.ID, models.ChainStepContactingFamily))
	require.NoError(t, env.alerts.ResolveAlert(alert.ID, 1, "", "R01", "Fehlalarm"))

	resolved, err := env.alerts.GetAlert(alert.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusResolved, resolved.Status)
	assert.Equal(t, models.ChainStepResolved, resolved.ChainStep)
	assert.Equal(t, "R01", resolved.ResolutionCode)
	assert.Contains(t, resolved.Notes, "Fehlalarm")
	require.NotNil(t, resolved.ResolvedByID)
	assert.Equal(t, uint(1), *resolved.ResolvedByID)

	// 终态之后一切变更都被拒绝
	assert.ErrorIs(t, env.alerts.AcknowledgeAlert(alert.ID, 1), ErrAlertTerminal)
	assert.ErrorIs(t, env.alerts.AdvanceChainStep(alert.ID, models.ChainStepContactingDoctor), ErrAlertTerminal)
	assert.ErrorIs(t, env.alerts.ResolveAlert(alert.ID, 1, "", "", ""), ErrAlertTerminal)
}

func TestAdvanceChainStepRejectsRegression(t *testing.T) {
	env := newTestEnv()
	env.seedClient(1, "Frau Schmidt")
	alert := env.raiseTestAlert(1)

	require.NoError(t, env.alerts.AdvanceChainStep(alert.ID, models.ChainStepContactingDoctor))
	assert.ErrorIs(t, env.alerts.AdvanceChainStep(alert.ID, models.ChainStepContactingFamily), ErrChainStepOrder)

	// 同一步骤重复推进是无害的
	require.NoError(t, env.alerts.AdvanceChainStep(alert.ID, models.ChainStepContactingDoctor))

	// 强制结案可以从任何步骤进行
	require.NoError(t, env.alerts.AdvanceChainStep(alert.ID, models.ChainStepResolved))
}

func TestAdvanceChainStepMarksInProgress(t *testing.T) {
	env := newTestEnv()
	env.seedClient(1, "Frau Schmidt")
	alert := env.raiseTestAlert(1)

	require.NoError(t, env.alerts.AdvanceChainStep(alert.ID, models.ChainStepContactingFamily))
	updated, err := env.alerts.GetAlert(alert.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusInProgress, updated.Status)
}

func TestAppendNotesNeverOverwrites(t *testing.T) {
	env := newTestEnv()
	env.seedClient(1, "Frau Schmidt")
	alert := env.raiseTestAlert(1)

	require.NoError(t, env.alerts.AppendNotes(alert.ID, "Erster Eintrag"))
	require.NoError(t, env.alerts.AppendNotes(alert.ID, "Zweiter Eintrag"))

	updated, err := env.alerts.GetAlert(alert.ID)
	require.NoError(t, err)
	assert.Equal(t, "Erster Eintrag\nZweiter Eintrag", updated.Notes)
}

func TestUpdateFlagsIdempotentPerField(t *testing.T) {
	env := newTestEnv()
	env.seedClient(1, "Frau Schmidt")
	alert := env.raiseTestAlert(1)

	yes := true
	require.NoError(t, env.alerts.UpdateFlags(alert.ID, &AlertFlagsPatch{AmbulanceCalled: &yes}))
	first, err := env.alerts.GetAlert(alert.ID)
	require.NoError(t, err)
	require.NotNil(t, first.AmbulanceCalledTime)
	calledTime := *first.AmbulanceCalledTime

	// 再打一次补丁不刷新时间戳
	require.NoError(t, env.alerts.UpdateFlags(alert.ID, &AlertFlagsPatch{AmbulanceCalled: &yes}))
	second, err := env.alerts.GetAlert(alert.ID)
	require.NoError(t, err)
	assert.Equal(t, calledTime, *second.AmbulanceCalledTime)
	assert.False(t, second.ContactsNotified)
}

func TestGetChainStatusAggregatesActions(t *testing.T) {
	env := newTestEnv()
	env.seedClient(1, "Frau Schmidt")
	env.repo.AddContact(models.EmergencyContact{
		ID: 1, ClientID: 1, Name: "Anna Schmidt", Priority: 1,
		MobilePhone: "+49170111111", NotifyBySMS: true,
	})
	alert := env.raiseTestAlert(1)

	_, err := env.notification.NotifyFamily(alert.ID, nil)
	require.NoError(t, err)

	status, err := env.alerts.GetChainStatus(alert.ID)
	require.NoError(t, err)
	assert.Equal(t, alert.ID, status.AlertID)
	assert.Equal(t, models.ChainStepContactingFamily, status.ChainStep)
	assert.True(t, status.ContactsNotified)
	assert.Equal(t, 1, status.FamilyContactsNotified)
	require.Len(t, status.Actions, 1)
	assert.Equal(t, models.ActionSmsFamily, status.Actions[0].ActionType)
}

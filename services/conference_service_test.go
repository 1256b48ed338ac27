package services

import (
	"testing"

	"carecall-http-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddParticipantBeforeStartRejected(t *testing.T) {
	env := newTestEnv()
	env.seedClient(1, "Frau Schmidt")
	alert := env.raiseTestAlert(1)

	_, err := env.conference.AddParticipant(alert.ID, "Anna Schmidt", "+49170111111", "Tochter", nil)
	assert.ErrorIs(t, err, ErrConferenceInactive)

	// 拒绝发生在任何副作用之前
	assert.Equal(t, 0, env.gateway.callCount())
	actions, err := env.repo.ListActionsByAlert(alert.ID)
	require.NoError(t, err)
	assert.Empty(t, actions)

	unchanged, err := env.alerts.GetAlert(alert.ID)
	require.NoError(t, err)
	assert.False(t, unchanged.ConferenceActive)
}

func TestConferenceLifecycle(t *testing.T) {
	env := newTestEnv()
	env.seedClient(1, "Frau Schmidt")
	dispatcherID := uint(1)
	alert := env.raiseTestAlert(1)

	started, err := env.conference.StartConference(alert.ID, &dispatcherID)
	require.NoError(t, err)
	assert.True(t, started.ConferenceActive)
	assert.Equal(t, models.StringList{"Dispatcher"}, started.ConferenceParticipants)
	assert.Equal(t, models.ChainStepInConference, started.ChainStep)

	first, err := env.conference.AddParticipant(alert.ID, "Anna Schmidt", "+49170111111", "Tochter", &dispatcherID)
	require.NoError(t, err)
	assert.True(t, first.Success)
	assert.Equal(t, []string{"Dispatcher", "Anna Schmidt"}, []string(first.Participants))

	// 名单允许重名，保留每次拉人的历史
	second, err := env.conference.AddParticipant(alert.ID, "Anna Schmidt", "+49170111111", "Tochter", &dispatcherID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dispatcher", "Anna Schmidt", "Anna Schmidt"}, []string(second.Participants))

	ended, err := env.conference.EndConference(alert.ID, &dispatcherID)
	require.NoError(t, err)
	assert.False(t, ended.ConferenceActive)
	// 结束后名单作为历史保留
	assert.Len(t, ended.ConferenceParticipants, 3)

	actions, err := env.repo.ListActionsByAlert(alert.ID)
	require.NoError(t, err)
	require.Len(t, actions, 4)
	assert.Equal(t, models.ActionStartConference, actions[0].ActionType)
	assert.Equal(t, models.ActionAddToConference, actions[1].ActionType)
	assert.Equal(t, models.ActionAddToConference, actions[2].ActionType)
	assert.Equal(t, models.ActionEndConference, actions[3].ActionType)
	assert.Contains(t, actions[3].Notes, "Teilnehmer: Dispatcher, Anna Schmidt, Anna Schmidt")
}

func TestAddParticipantGatewayFailureStillAudited(t *testing.T) {
	env := newTestEnv()
	env.seedClient(1, "Frau Schmidt")
	env.gateway.callFailures["+4930666666"] = "no_answer"
	alert := env.raiseTestAlert(1)

	_, err := env.conference.StartConference(alert.ID, nil)
	require.NoError(t, err)

	result, err := env.conference.AddParticipant(alert.ID, "Dr. Weber", "+4930666666", "Hausarzt", nil)
	require.NoError(t, err)
	assert.False(t, result.Success)
	// 呼不通也进名单，审计记录失败结果
	assert.Contains(t, []string(result.Participants), "Dr. Weber")

	actions, err := env.repo.ListActionsByAlert(alert.ID)
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, models.ResultNoAnswer, actions[1].Result)
}

func TestEndConferenceTwiceRejected(t *testing.T) {
	env := newTestEnv()
	env.seedClient(1, "Frau Schmidt")
	alert := env.raiseTestAlert(1)

	_, err := env.conference.StartConference(alert.ID, nil)
	require.NoError(t, err)
	_, err = env.conference.EndConference(alert.ID, nil)
	require.NoError(t, err)

	_, err = env.conference.EndConference(alert.ID, nil)
	assert.ErrorIs(t, err, ErrConferenceInactive)
}

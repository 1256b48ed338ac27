package services

import (
	"testing"

	"carecall-http-service/models"
	"carecall-http-service/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDispatcherHashesPassword(t *testing.T) {
	env := newTestEnv()

	dispatcher, err := env.dispatchers.CreateDispatcher(&CreateDispatcherRequest{
		Name:      "Maria Weber",
		Username:  "mweber",
		Password:  "geheim123",
		Extension: "101",
	})
	require.NoError(t, err)
	assert.NotEqual(t, "geheim123", dispatcher.Password)
	assert.True(t, utils.CheckPasswordHash("geheim123", dispatcher.Password))
	assert.Equal(t, models.DispatcherRoleDispatcher, dispatcher.Role)
	assert.Equal(t, models.DispatcherStatusOffline, dispatcher.Status)
}

func TestCreateDispatcherDuplicateUsername(t *testing.T) {
	env := newTestEnv()

	_, err := env.dispatchers.CreateDispatcher(&CreateDispatcherRequest{
		Name: "Maria Weber", Username: "mweber", Password: "geheim123",
	})
	require.NoError(t, err)

	_, err = env.dispatchers.CreateDispatcher(&CreateDispatcherRequest{
		Name: "Martin Weber", Username: "mweber", Password: "anderes123",
	})
	assert.ErrorIs(t, err, ErrDispatcherExists)
}

func TestAuthenticate(t *testing.T) {
	env := newTestEnv()
	_, err := env.dispatchers.CreateDispatcher(&CreateDispatcherRequest{
		Name: "Maria Weber", Username: "mweber", Password: "geheim123",
	})
	require.NoError(t, err)

	dispatcher, err := env.dispatchers.Authenticate("mweber", "geheim123")
	require.NoError(t, err)
	assert.Equal(t, "Maria Weber", dispatcher.Name)

	_, err = env.dispatchers.Authenticate("mweber", "falsch")
	assert.ErrorIs(t, err, ErrDispatcherPassword)

	_, err = env.dispatchers.Authenticate("unbekannt", "geheim123")
	assert.ErrorIs(t, err, ErrDispatcherNotFound)
}

func TestReleaseCallFloorsAtZero(t *testing.T) {
	env := newTestEnv()
	env.seedDispatcher(1, "Maria Weber")

	// 没有进行中的呼叫时挂断簿记也不把计数打成负数
	require.NoError(t, env.dispatchers.ReleaseCall(1))
	require.NoError(t, env.dispatchers.ReleaseCall(1))

	dispatcher, err := env.dispatchers.GetDispatcher(1)
	require.NoError(t, err)
	assert.Equal(t, 0, dispatcher.CurrentCallCount)
	assert.Equal(t, 2, dispatcher.TotalCallsHandled)
	assert.Equal(t, models.DispatcherStatusOnline, dispatcher.Status)
}

func TestMarkOnCallAndRelease(t *testing.T) {
	env := newTestEnv()
	env.seedDispatcher(1, "Maria Weber")

	require.NoError(t, env.dispatchers.MarkOnCall(1))
	require.NoError(t, env.dispatchers.MarkOnCall(1))

	busy, err := env.dispatchers.GetDispatcher(1)
	require.NoError(t, err)
	assert.Equal(t, 2, busy.CurrentCallCount)
	assert.Equal(t, models.DispatcherStatusOnCall, busy.Status)

	// 第一路挂断后仍在通话中
	require.NoError(t, env.dispatchers.ReleaseCall(1))
	stillBusy, err := env.dispatchers.GetDispatcher(1)
	require.NoError(t, err)
	assert.Equal(t, 1, stillBusy.CurrentCallCount)
	assert.Equal(t, models.DispatcherStatusOnCall, stillBusy.Status)

	require.NoError(t, env.dispatchers.ReleaseCall(1))
	free, err := env.dispatchers.GetDispatcher(1)
	require.NoError(t, err)
	assert.Equal(t, 0, free.CurrentCallCount)
	assert.Equal(t, models.DispatcherStatusOnline, free.Status)
}

func TestHeartbeat(t *testing.T) {
	env := newTestEnv()
	env.seedDispatcher(1, "Maria Weber")

	dispatcher, err := env.dispatchers.Heartbeat(1, models.DispatcherStatusBreak, false)
	require.NoError(t, err)
	assert.Equal(t, models.DispatcherStatusBreak, dispatcher.Status)
	assert.False(t, dispatcher.Available)

	_, err = env.dispatchers.Heartbeat(99, models.DispatcherStatusOnline, true)
	assert.ErrorIs(t, err, ErrDispatcherNotFound)
}

func TestMarkOnCallUnknownDispatcher(t *testing.T) {
	env := newTestEnv()
	assert.ErrorIs(t, env.dispatchers.MarkOnCall(99), ErrDispatcherNotFound)
	assert.ErrorIs(t, env.dispatchers.ReleaseCall(99), ErrDispatcherNotFound)
}

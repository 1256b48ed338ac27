package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniRedisService(t *testing.T) (*RedisService, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return &RedisService{Client: client, Ctx: context.Background()}, mr
}

func TestRedisSetGetDelete(t *testing.T) {
	service, _ := newMiniRedisService(t)

	type payload struct {
		AlertID uint   `json:"alert_id"`
		Status  string `json:"status"`
	}
	require.NoError(t, service.Set("chain_status:1", payload{AlertID: 1, Status: "new"}, time.Minute))

	var got payload
	require.NoError(t, service.Get("chain_status:1", &got))
	assert.Equal(t, uint(1), got.AlertID)
	assert.Equal(t, "new", got.Status)

	require.NoError(t, service.Delete("chain_status:1"))
	assert.Error(t, service.Get("chain_status:1", &got))
}

func TestRedisDispatcherPresence(t *testing.T) {
	service, mr := newMiniRedisService(t)

	require.NoError(t, service.CacheDispatcherPresence(7, "on_call", time.Minute))
	status, err := service.GetDispatcherPresence(7)
	require.NoError(t, err)
	assert.Equal(t, "on_call", status)

	// 过期后视为离线
	mr.FastForward(2 * time.Minute)
	_, err = service.GetDispatcherPresence(7)
	assert.Error(t, err)

	require.NoError(t, service.CacheDispatcherPresence(7, "online", time.Minute))
	require.NoError(t, service.ClearDispatcherPresence(7))
	_, err = service.GetDispatcherPresence(7)
	assert.Error(t, err)
}

package services

import (
	"carecall-http-service/config"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisService handles Redis operations
type RedisService struct {
	Client *redis.Client
	Ctx    context.Context
}

// NewRedisService creates a new Redis service
func NewRedisService(cfg *config.Config) *RedisService {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: "", // No password set
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()

	return &RedisService{
		Client: client,
		Ctx:    ctx,
	}
}

// Set sets a key-value pair in Redis with expiration
func (s *RedisService) Set(key string, value interface{}, expiration time.Duration) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return s.Client.Set(s.Ctx, key, jsonValue, expiration).Err()
}

// Get gets a value from Redis by key
func (s *RedisService) Get(key string, dest interface{}) error {
	val, err := s.Client.Get(s.Ctx, key).Result()
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(val), dest)
}

// Delete deletes a key from Redis
func (s *RedisService) Delete(key string) error {
	return s.Client.Del(s.Ctx, key).Err()
}

// CacheDispatcherPresence 缓存调度员在线状态，带过期时间
func (s *RedisService) CacheDispatcherPresence(dispatcherID uint, status string, expiration time.Duration) error {
	key := fmt.Sprintf("dispatcher_presence:%d", dispatcherID)
	return s.Client.Set(s.Ctx, key, status, expiration).Err()
}

// GetDispatcherPresence 读取调度员在线状态
func (s *RedisService) GetDispatcherPresence(dispatcherID uint) (string, error) {
	key := fmt.Sprintf("dispatcher_presence:%d", dispatcherID)
	return s.Client.Get(s.Ctx, key).Result()
}

// ClearDispatcherPresence 清除调度员在线状态
func (s *RedisService) ClearDispatcherPresence(dispatcherID uint) error {
	key := fmt.Sprintf("dispatcher_presence:%d", dispatcherID)
	return s.Client.Del(s.Ctx, key).Err()
}

package container

import (
	"context"
	"log"
	"sync"
	"time"

	"carecall-http-service/config"
	"carecall-http-service/repository"
	"carecall-http-service/services"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// ServiceContainer 管理所有服务的依赖注入
type ServiceContainer struct {
	db     *gorm.DB
	config *config.Config
	redis  *redis.Client

	// 存储端口
	repo repository.Repository

	// 基础服务
	jwtService   *services.JWTService
	redisService *services.RedisService

	// 话务网关
	gateway services.InterfaceTelephonyGateway

	// 业务服务
	alertService        services.InterfaceAlertService
	notificationService services.InterfaceNotificationService
	conferenceService   services.InterfaceConferenceService
	callSessionService  services.InterfaceCallSessionService
	dispatcherService   services.InterfaceDispatcherService

	mu sync.RWMutex
}

// NewServiceContainer 创建新的服务容器
func NewServiceContainer(db *gorm.DB, cfg *config.Config, redisClient *redis.Client) *ServiceContainer {
	if db == nil {
		panic("数据库连接为空")
	}

	if cfg == nil {
		panic("配置为空")
	}

	// 测试Redis连接
	if redisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("Redis连接测试失败: %v，将不使用Redis缓存", err)
		}
	}

	container := &ServiceContainer{
		db:     db,
		config: cfg,
		redis:  redisClient,
	}
	container.initializeServices()
	return container
}

// initializeServices 初始化所有服务
func (c *ServiceContainer) initializeServices() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// 初始化存储端口
	c.repo = repository.NewGormRepository(c.db)

	// 初始化基础服务
	c.jwtService = services.NewJWTService(c.config)
	c.redisService = services.NewRedisService(c.config)

	// 初始化话务网关并连接MQTT服务器
	gateway := services.NewMQTTTelephonyGateway(c.config)
	if err := gateway.Connect(); err != nil {
		log.Printf("话务网关连接失败: %v", err)
	}
	c.gateway = gateway

	// 初始化业务服务
	c.alertService = services.NewAlertService(c.repo, c.config, c.redisService)
	c.dispatcherService = services.NewDispatcherService(c.repo, c.config, c.redisService)
	c.notificationService = services.NewNotificationService(c.repo, c.config, c.gateway, c.alertService)
	c.conferenceService = services.NewConferenceService(c.repo, c.config, c.gateway, c.alertService)
	c.callSessionService = services.NewCallSessionService(c.repo, c.config, c.gateway, c.alertService, c.dispatcherService)

	// 网关事件回调与HTTP回调走同一条处理链
	gateway.SetEventHandler(func(evt services.WebhookEvent) {
		if _, err := c.callSessionService.HandleWebhookEvent(&evt); err != nil {
			log.Printf("处理网关事件失败: event=%s, call_id=%s, err=%v", evt.Event, evt.CallID, err)
		}
	})
}

// GetService 获取指定名称的服务
func (c *ServiceContainer) GetService(name string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch name {
	case "config":
		return c.config
	case "db":
		return c.db
	case "repository":
		return c.repo
	case "jwt":
		return c.jwtService
	case "redis":
		return c.redisService
	case "gateway":
		return c.gateway
	case "alert":
		return c.alertService
	case "notification":
		return c.notificationService
	case "conference":
		return c.conferenceService
	case "call_session":
		return c.callSessionService
	case "dispatcher":
		return c.dispatcherService
	default:
		return nil
	}
}

// GetDB 获取数据库连接
func (c *ServiceContainer) GetDB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// GetConfig 获取配置
func (c *ServiceContainer) GetConfig() *config.Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// GetRepository 获取存储端口
func (c *ServiceContainer) GetRepository() repository.Repository {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.repo
}

// GetJWTService 获取JWT服务
func (c *ServiceContainer) GetJWTService() *services.JWTService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.jwtService
}

// GetRedisService 获取Redis服务
func (c *ServiceContainer) GetRedisService() *services.RedisService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.redisService
}

// GetGateway 获取话务网关
func (c *ServiceContainer) GetGateway() services.InterfaceTelephonyGateway {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gateway
}

// GetAlertService 获取警报服务
func (c *ServiceContainer) GetAlertService() services.InterfaceAlertService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.alertService
}

// GetNotificationService 获取通知编排服务
func (c *ServiceContainer) GetNotificationService() services.InterfaceNotificationService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.notificationService
}

// GetConferenceService 获取会议桥服务
func (c *ServiceContainer) GetConferenceService() services.InterfaceConferenceService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conferenceService
}

// GetCallSessionService 获取话务会话服务
func (c *ServiceContainer) GetCallSessionService() services.InterfaceCallSessionService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.callSessionService
}

// GetDispatcherService 获取调度员服务
func (c *ServiceContainer) GetDispatcherService() services.InterfaceDispatcherService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dispatcherService
}

package routes

import (
	"carecall-http-service/config"
	"carecall-http-service/controllers"
	_ "carecall-http-service/docs"
	"carecall-http-service/middleware"
	"carecall-http-service/services/container"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// SetupRouter 初始化并返回配置好的路由
func SetupRouter(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// 初始化 Gin
	r := gin.Default()

	// 添加 CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, Accept, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})
	// 设置正确的Content-Type，确保UTF-8编码
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json; charset=utf-8")
		c.Next()
	})
	// 创建服务容器
	serviceContainer := container.NewServiceContainer(db, cfg, nil)
	// 初始化中间件
	middleware.InitAuthMiddleware(cfg)
	// 添加 Swagger 文档路由
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 注册路由
	registerRoutes(r, serviceContainer)
	return r
}

// registerRoutes 配置所有API路由
func registerRoutes(
	r *gin.Engine,
	container *container.ServiceContainer,
) {
	// API 路由根路径
	api := r.Group("/api")
	// 注册公共路由
	registerPublicRoutes(api, container)
	// 注册需要认证的路由
	registerAuthenticatedRoutes(api, container)
}

// registerPublicRoutes 注册公共路由
func registerPublicRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	// 健康检查
	healthController := controllers.NewHealthCheckController()
	api.GET("/ping", healthController.Ping)

	// 认证路由，按IP限流防爆破
	api.POST("/auth/login", middleware.IPRateLimiter(1, 5), controllers.HandleJWTFunc(container, "login"))

	// 话务网关事件回调，网关侧发后不管；限流挡住事件风暴
	api.POST("/webhook/incoming", middleware.IPRateLimiter(20, 50), controllers.HandleWebhookFunc(container, "incoming"))
}

// registerAuthenticatedRoutes 注册需要认证的路由
func registerAuthenticatedRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	// 添加认证中间件
	auth := api.Group("/")
	auth.Use(middleware.AuthenticateDispatcher())

	// 警报与响应链路由
	auth.Group("/alerts").POST("", controllers.HandleAlertFunc(container, "raiseAlert"))
	auth.Group("/alerts").GET("", controllers.HandleAlertFunc(container, "getAlerts"))
	auth.Group("/alerts").GET("/:id", controllers.HandleAlertFunc(container, "getAlert"))
	auth.Group("/alerts").GET("/:id/chain-status", controllers.HandleAlertFunc(container, "getChainStatus"))
	auth.Group("/alerts").POST("/:id/acknowledge", controllers.HandleAlertFunc(container, "acknowledgeAlert"))
	auth.Group("/alerts").POST("/:id/resolve", controllers.HandleAlertFunc(container, "resolveAlert"))
	auth.Group("/alerts").POST("/:id/notes", controllers.HandleAlertFunc(container, "appendNotes"))
	auth.Group("/alerts").POST("/:id/notify-family", controllers.HandleAlertFunc(container, "notifyFamily"))
	auth.Group("/alerts").POST("/:id/notify-doctor", controllers.HandleAlertFunc(container, "notifyDoctor"))
	auth.Group("/alerts").POST("/:id/call-ambulance", controllers.HandleAlertFunc(container, "callAmbulance"))

	// 会议桥路由
	auth.Group("/alerts").POST("/:id/start-conference", controllers.HandleConferenceFunc(container, "startConference"))
	auth.Group("/alerts").POST("/:id/add-to-conference", controllers.HandleConferenceFunc(container, "addParticipant"))
	auth.Group("/alerts").POST("/:id/end-conference", controllers.HandleConferenceFunc(container, "endConference"))

	// 话务路由
	auth.Group("/calls").POST("/initiate", controllers.HandleCallFunc(container, "initiateCall"))
	auth.Group("/calls").GET("/statistics", controllers.HandleCallFunc(container, "getCallStatistics"))
	auth.Group("/calls").GET("", controllers.HandleCallFunc(container, "getCalls"))
	auth.Group("/calls").GET("/:id", controllers.HandleCallFunc(container, "getCall"))
	auth.Group("/calls").POST("/:id/action", controllers.HandleCallFunc(container, "performCallAction"))

	// 调度员路由
	auth.Group("/dispatchers").GET("", controllers.HandleDispatcherFunc(container, "getDispatchers"))
	auth.Group("/dispatchers").GET("/:id", controllers.HandleDispatcherFunc(container, "getDispatcher"))
	auth.Group("/dispatchers").POST("/:id/heartbeat", controllers.HandleDispatcherFunc(container, "heartbeat"))

	// 客户档案目录，核心只读
	auth.Group("/clients").GET("/:id", controllers.HandleDirectoryFunc(container, "getClient"))
	auth.Group("/clients").GET("/:id/contacts", controllers.HandleDirectoryFunc(container, "getContacts"))
	auth.Group("/clients").GET("/:id/medications", controllers.HandleDirectoryFunc(container, "getMedications"))

	// 管理员专属路由
	admin := api.Group("/")
	admin.Use(middleware.AuthenticateAdmin())
	admin.Group("/dispatchers").POST("", controllers.HandleDispatcherFunc(container, "createDispatcher"))
}

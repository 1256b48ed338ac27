package middleware

import (
	"net/http"
	"strings"

	"carecall-http-service/config"
	"carecall-http-service/services"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

var jwtService *services.JWTService

// InitAuthMiddleware 初始化认证中间件
func InitAuthMiddleware(cfg *config.Config) {
	jwtService = services.NewJWTService(cfg)
}

// extractToken 从授权头中提取token
func extractToken(authHeader string) string {
	// 检查并移除 "Bearer " 前缀
	if len(authHeader) > 7 && strings.HasPrefix(authHeader, "Bearer ") {
		return authHeader[7:]
	}
	return authHeader
}

// unauthorized 写401响应并终止请求
func unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"code":    401,
		"message": message,
		"data":    nil,
	})
	c.Abort()
}

// dispatcherClaims 校验token并取出claims，失败时已写响应
func dispatcherClaims(c *gin.Context) (jwt.MapClaims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		unauthorized(c, "Authorization header is required")
		return nil, false
	}

	tokenString := extractToken(authHeader)
	token, err := jwtService.ValidateToken(tokenString)
	if err != nil {
		unauthorized(c, "Invalid token: "+err.Error())
		return nil, false
	}
	if !token.Valid {
		unauthorized(c, "Invalid token")
		return nil, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		unauthorized(c, "Invalid token claims")
		return nil, false
	}
	return claims, true
}

// AuthenticateDispatcher 验证调度员身份
func AuthenticateDispatcher() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := dispatcherClaims(c)
		if !ok {
			return
		}

		role, exists := claims["role"].(string)
		if !exists || (role != "dispatcher" && role != "admin") {
			c.JSON(http.StatusForbidden, gin.H{
				"code":    403,
				"message": "Insufficient permissions: requires dispatcher role",
				"data":    nil,
			})
			c.Abort()
			return
		}

		// 存储claims到上下文
		if id, ok := claims["dispatcher_id"].(float64); ok {
			c.Set("dispatcherID", uint(id))
		}
		c.Set("role", role)
		c.Set("claims", claims)
		c.Next()
	}
}

// AuthenticateAdmin 验证管理员身份
func AuthenticateAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := dispatcherClaims(c)
		if !ok {
			return
		}

		if role, exists := claims["role"].(string); !exists || role != "admin" {
			c.JSON(http.StatusForbidden, gin.H{
				"code":    403,
				"message": "Insufficient permissions: requires admin role",
				"data":    nil,
			})
			c.Abort()
			return
		}

		if id, ok := claims["dispatcher_id"].(float64); ok {
			c.Set("dispatcherID", uint(id))
		}
		c.Set("role", claims["role"])
		c.Set("claims", claims)
		c.Next()
	}
}

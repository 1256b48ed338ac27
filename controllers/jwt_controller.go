package controllers

import (
	"net/http"
	"time"

	"carecall-http-service/internal/error/code"
	"carecall-http-service/internal/error/response"
	"carecall-http-service/services/container"

	"github.com/gin-gonic/gin"
)

// InterfaceJWTController 定义认证控制器接口
type InterfaceJWTController interface {
	Login()
}

// JWTController 处理身份验证请求
type JWTController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewJWTController 创建一个新的认证控制器
func NewJWTController(ctx *gin.Context, container *container.ServiceContainer) *JWTController {
	return &JWTController{
		Ctx:       ctx,
		Container: container,
	}
}

// LoginRequest 表示登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"admin"`
	Password string `json:"password" binding:"required" example:"admin123"`
}

// LoginData 表示登录成功后返回的数据
type LoginData struct {
	Token        string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	DispatcherID uint   `json:"dispatcher_id" example:"1"`
	Role         string `json:"role" example:"dispatcher"`
	Username     string `json:"username" example:"m.krause"`
	CreatedAt    string `json:"created_at" example:"2023-01-01T00:00:00Z"`
}

// HandleJWTFunc 返回一个处理JWT认证请求的Gin处理函数
func HandleJWTFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewJWTController(ctx, container)

		switch method {
		case "login":
			controller.Login()
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "无效的方法",
				"data":    nil,
			})
		}
	}
}

// Login 处理调度员登录
// @Summary      调度员登录
// @Description  校验用户名密码并签发JWT令牌
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "登录参数"
// @Success      200  {object}  response.Response{data=LoginData}
// @Failure      401  {object}  response.Response
// @Router       /auth/login [post]
func (c *JWTController) Login() {
	var req LoginRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "无效的请求参数")
		return
	}

	dispatcher, err := c.Container.GetDispatcherService().Authenticate(req.Username, req.Password)
	if err != nil {
		// 登录失败不区分用户不存在和密码错误
		response.Fail(c.Ctx, code.ErrDispatcherPassword, nil)
		return
	}

	token, err := c.Container.GetJWTService().GenerateToken(dispatcher.ID, dispatcher.Username, string(dispatcher.Role))
	if err != nil {
		response.ServerError(c.Ctx)
		return
	}

	response.Success(c.Ctx, LoginData{
		Token:        token,
		DispatcherID: dispatcher.ID,
		Role:         string(dispatcher.Role),
		Username:     dispatcher.Username,
		CreatedAt:    dispatcher.CreatedAt.Format(time.RFC3339),
	})
}

package controllers

import (
	"net/http"

	"carecall-http-service/internal/error/response"
	"carecall-http-service/models"
	"carecall-http-service/services"
	"carecall-http-service/services/container"

	"github.com/gin-gonic/gin"
)

// DispatcherController 处理调度员相关的请求
type DispatcherController struct {
	BaseControllerImpl
}

// NewDispatcherController 创建一个新的调度员控制器
func (f *ControllerFactory) NewDispatcherController(ctx *gin.Context) *DispatcherController {
	return &DispatcherController{
		BaseControllerImpl: BaseControllerImpl{
			Container: f.Container,
			Context:   ctx,
		},
	}
}

// HeartbeatRequest 表示调度员心跳上报
type HeartbeatRequest struct {
	Status    models.DispatcherStatus `json:"status" binding:"required" example:"online"` // online/on_call/break/away/offline
	Available bool                    `json:"available"`
}

// GetDispatchers 处理调度员列表查询
// @Summary      获取调度员列表
// @Tags         Dispatcher
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /dispatchers [get]
func (c *DispatcherController) GetDispatchers() {
	dispatchers, err := c.Container.GetDispatcherService().ListDispatchers()
	if err != nil {
		respondServiceError(c.Context, err)
		return
	}
	response.Success(c.Context, gin.H{
		"dispatchers": dispatchers,
		"total":       len(dispatchers),
	})
}

// GetDispatcher 处理单个调度员查询
// @Summary      获取调度员详情
// @Tags         Dispatcher
// @Produce      json
// @Param        id path int true "调度员ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /dispatchers/{id} [get]
func (c *DispatcherController) GetDispatcher() {
	id, ok := parseIDParam(c.Context, "id")
	if !ok {
		return
	}
	dispatcher, err := c.Container.GetDispatcherService().GetDispatcher(id)
	if err != nil {
		respondServiceError(c.Context, err)
		return
	}
	response.Success(c.Context, dispatcher)
}

// CreateDispatcher 处理创建调度员
// @Summary      创建调度员
// @Description  创建调度员账号，密码入库前哈希，仅管理员可用
// @Tags         Dispatcher
// @Accept       json
// @Produce      json
// @Param        request body services.CreateDispatcherRequest true "调度员参数"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /dispatchers [post]
func (c *DispatcherController) CreateDispatcher() {
	var req services.CreateDispatcherRequest
	if err := c.Context.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Context, "无效的请求参数: "+err.Error())
		return
	}
	dispatcher, err := c.Container.GetDispatcherService().CreateDispatcher(&req)
	if err != nil {
		respondServiceError(c.Context, err)
		return
	}
	response.Success(c.Context, dispatcher)
}

// Heartbeat 处理调度员心跳
// @Summary      调度员心跳
// @Description  调度员直接上报状态和可用性，与通话簿记互不干扰
// @Tags         Dispatcher
// @Accept       json
// @Produce      json
// @Param        id      path int              true "调度员ID"
// @Param        request body HeartbeatRequest true "心跳参数"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /dispatchers/{id}/heartbeat [post]
func (c *DispatcherController) Heartbeat() {
	id, ok := parseIDParam(c.Context, "id")
	if !ok {
		return
	}
	var req HeartbeatRequest
	if err := c.Context.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Context, "无效的请求参数: "+err.Error())
		return
	}
	dispatcher, err := c.Container.GetDispatcherService().Heartbeat(id, req.Status, req.Available)
	if err != nil {
		respondServiceError(c.Context, err)
		return
	}
	response.Success(c.Context, dispatcher)
}

// HandleDispatcherFunc 返回一个处理调度员请求的Gin处理函数
func HandleDispatcherFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	factory := NewControllerFactory(container)

	return func(ctx *gin.Context) {
		controller := factory.NewDispatcherController(ctx)

		switch method {
		case "getDispatchers":
			controller.GetDispatchers()
		case "getDispatcher":
			controller.GetDispatcher()
		case "createDispatcher":
			controller.CreateDispatcher()
		case "heartbeat":
			controller.Heartbeat()
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "无效的方法",
				"data":    nil,
			})
		}
	}
}

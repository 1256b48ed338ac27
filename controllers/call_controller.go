package controllers

import (
	"net/http"
	"strconv"

	"carecall-http-service/internal/error/response"
	"carecall-http-service/services"
	"carecall-http-service/services/container"

	"github.com/gin-gonic/gin"
)

// CallController 处理话务会话相关的请求
type CallController struct {
	BaseControllerImpl
}

// NewCallController 创建一个新的话务控制器
func (f *ControllerFactory) NewCallController(ctx *gin.Context) *CallController {
	return &CallController{
		BaseControllerImpl: BaseControllerImpl{
			Container: f.Container,
			Context:   ctx,
		},
	}
}

// InitiateCall 处理发起外呼
// @Summary      发起外呼
// @Description  通过话务网关发起外呼并建立会话记录
// @Tags         Call
// @Accept       json
// @Produce      json
// @Param        request body services.InitiateCallRequest true "外呼参数"
// @Success      200  {object}  response.Response
// @Failure      502  {object}  response.Response
// @Router       /calls/initiate [post]
func (c *CallController) InitiateCall() {
	var req services.InitiateCallRequest
	if err := c.Context.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Context, "无效的请求参数: "+err.Error())
		return
	}
	if req.DispatcherID == nil {
		req.DispatcherID = currentDispatcherID(c.Context)
	}

	callLog, err := c.Container.GetCallSessionService().InitiateCall(&req)
	if err != nil {
		respondServiceError(c.Context, err)
		return
	}
	response.Success(c.Context, callLog)
}

// GetCall 处理单条通话查询
// @Summary      获取通话详情
// @Tags         Call
// @Produce      json
// @Param        id path int true "通话记录ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /calls/{id} [get]
func (c *CallController) GetCall() {
	id, ok := parseIDParam(c.Context, "id")
	if !ok {
		return
	}
	callLog, err := c.Container.GetCallSessionService().GetCall(id)
	if err != nil {
		respondServiceError(c.Context, err)
		return
	}
	response.Success(c.Context, callLog)
}

// GetCalls 处理通话列表查询
// @Summary      获取通话列表
// @Description  分页获取通话记录，按开始时间倒序
// @Tags         Call
// @Produce      json
// @Param        page      query int false "页码"
// @Param        page_size query int false "每页条数"
// @Success      200  {object}  response.Response
// @Router       /calls [get]
func (c *CallController) GetCalls() {
	page, _ := strconv.Atoi(c.Context.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.Context.DefaultQuery("page_size", "20"))

	calls, total, err := c.Container.GetCallSessionService().ListCalls(page, pageSize)
	if err != nil {
		respondServiceError(c.Context, err)
		return
	}
	response.Success(c.Context, gin.H{
		"calls":     calls,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetCallStatistics 处理通话统计查询
// @Summary      获取通话统计信息
// @Description  返回总量、呼入呼出、未接和平均时长
// @Tags         Call
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /calls/statistics [get]
func (c *CallController) GetCallStatistics() {
	statistics, err := c.Container.GetCallSessionService().GetStatistics()
	if err != nil {
		respondServiceError(c.Context, err)
		return
	}
	response.Success(c.Context, statistics)
}

// PerformCallAction 处理调度员通话动作
// @Summary      执行通话动作
// @Description  hold/resume/mute/unmute/transfer/hangup/record/stoprecord，先网关后本地
// @Tags         Call
// @Accept       json
// @Produce      json
// @Param        id      path int                        true "通话记录ID"
// @Param        request body services.CallActionRequest true "动作参数"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      502  {object}  response.Response
// @Router       /calls/{id}/action [post]
func (c *CallController) PerformCallAction() {
	id, ok := parseIDParam(c.Context, "id")
	if !ok {
		return
	}
	var req services.CallActionRequest
	if err := c.Context.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Context, "无效的请求参数: "+err.Error())
		return
	}
	callLog, err := c.Container.GetCallSessionService().PerformAction(id, currentDispatcherID(c.Context), &req)
	if err != nil {
		respondServiceError(c.Context, err)
		return
	}
	response.Success(c.Context, callLog)
}

// HandleCallFunc 返回一个处理话务请求的Gin处理函数
func HandleCallFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	factory := NewControllerFactory(container)

	return func(ctx *gin.Context) {
		controller := factory.NewCallController(ctx)

		switch method {
		case "initiateCall":
			controller.InitiateCall()
		case "getCall":
			controller.GetCall()
		case "getCalls":
			controller.GetCalls()
		case "getCallStatistics":
			controller.GetCallStatistics()
		case "performCallAction":
			controller.PerformCallAction()
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "无效的方法",
				"data":    nil,
			})
		}
	}
}

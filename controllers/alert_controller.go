package controllers

import (
	"net/http"
	"strconv"

	"carecall-http-service/internal/error/response"
	"carecall-http-service/models"
	"carecall-http-service/services"
	"carecall-http-service/services/container"

	"github.com/gin-gonic/gin"
)

// AlertController 处理紧急警报相关的请求
type AlertController struct {
	BaseControllerImpl
}

// NewAlertController 创建一个新的警报控制器
func (f *ControllerFactory) NewAlertController(ctx *gin.Context) *AlertController {
	return &AlertController{
		BaseControllerImpl: BaseControllerImpl{
			Container: f.Container,
			Context:   ctx,
		},
	}
}

// ResolveAlertRequest 表示结案请求
type ResolveAlertRequest struct {
	Outcome        models.AlertStatus `json:"outcome" example:"resolved"` // resolved/escalated/cancelled，默认resolved
	ResolutionCode string             `json:"resolution_code" binding:"required" example:"false_alarm"`
	Notes          string             `json:"notes" example:"Kundin hat versehentlich den Knopf gedrückt"`
}

// NotesPatchRequest 表示补充备注请求
type NotesPatchRequest struct {
	Notes string `json:"notes" binding:"required"`
}

// RaiseAlert 处理触发警报的请求
// @Summary      触发紧急警报
// @Description  创建一条新的紧急警报，未带设备时按来电号码反查客户
// @Tags         Alert
// @Accept       json
// @Produce      json
// @Param        request body services.RaiseAlertRequest true "警报参数"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /alerts [post]
func (c *AlertController) RaiseAlert() {
	var req services.RaiseAlertRequest
	if err := c.Context.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Context, "无效的请求参数: "+err.Error())
		return
	}
	if req.AlertType == "" {
		req.AlertType = models.AlertTypeManual
	}
	if req.Priority == "" {
		req.Priority = models.AlertPriorityHigh
	}

	alert, err := c.Container.GetAlertService().RaiseAlert(&req)
	if err != nil {
		respondServiceError(c.Context, err)
		return
	}
	response.Success(c.Context, alert)
}

// GetAlerts 处理警报列表查询
// @Summary      获取警报列表
// @Description  分页获取警报列表，按触发时间倒序
// @Tags         Alert
// @Produce      json
// @Param        page      query int false "页码"
// @Param        page_size query int false "每页条数"
// @Success      200  {object}  response.Response
// @Router       /alerts [get]
func (c *AlertController) GetAlerts() {
	page, _ := strconv.Atoi(c.Context.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.Context.DefaultQuery("page_size", "20"))

	alerts, total, err := c.Container.GetAlertService().ListAlerts(page, pageSize)
	if err != nil {
		respondServiceError(c.Context, err)
		return
	}
	response.Success(c.Context, gin.H{
		"alerts":    alerts,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetAlert 处理单条警报查询
// @Summary      获取警报详情
// @Tags         Alert
// @Produce      json
// @Param        id path int true "警报ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /alerts/{id} [get]
func (c *AlertController) GetAlert() {
	id, ok := parseIDParam(c.Context, "id")
	if !ok {
		return
	}
	alert, err := c.Container.GetAlertService().GetAlert(id)
	if err != nil {
		respondServiceError(c.Context, err)
		return
	}
	response.Success(c.Context, alert)
}

// GetChainStatus 处理响应链状态查询
// @Summary      获取响应链状态
// @Description  返回警报的响应链当前步骤、通知标记和全部审计记录
// @Tags         Alert
// @Produce      json
// @Param        id path int true "警报ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /alerts/{id}/chain-status [get]
func (c *AlertController) GetChainStatus() {
	id, ok := parseIDParam(c.Context, "id")
	if !ok {
		return
	}
	status, err := c.Container.GetAlertService().GetChainStatus(id)
	if err != nil {
		respondServiceError(c.Context, err)
		return
	}
	response.Success(c.Context, status)
}

// AcknowledgeAlert 处理警报确认
// @Summary      确认警报
// @Description  当前调度员确认接手警报，重复确认为空操作
// @Tags         Alert
// @Produce      json
// @Param        id path int true "警报ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /alerts/{id}/acknowledge [post]
func (c *AlertController) AcknowledgeAlert() {
	id, ok := parseIDParam(c.Context, "id")
	if !ok {
		return
	}
	dispatcherID := currentDispatcherID(c.Context)
	if dispatcherID == nil {
		response.Unauthorized(c.Context)
		return
	}
	if err := c.Container.GetAlertService().AcknowledgeAlert(id, *dispatcherID); err != nil {
		respondServiceError(c.Context, err)
		return
	}
	response.Success(c.Context, nil)
}

// ResolveAlert 处理警报结案
// @Summary      结案警报
// @Description  从任意非终态结案，响应链强制跳到resolved
// @Tags         Alert
// @Accept       json
// @Produce      json
// @Param        id      path int                 true "警报ID"
// @Param        request body ResolveAlertRequest true "结案参数"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /alerts/{id}/resolve [post]
func (c *AlertController) ResolveAlert() {
	id, ok := parseIDParam(c.Context, "id")
	if !ok {
		return
	}
	var req ResolveAlertRequest
	if err := c.Context.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Context, "无效的请求参数: "+err.Error())
		return
	}
	dispatcherID := currentDispatcherID(c.Context)
	if dispatcherID == nil {
		response.Unauthorized(c.Context)
		return
	}
	if req.Outcome == "" {
		req.Outcome = models.AlertStatusResolved
	}

	err := c.Container.GetAlertService().ResolveAlert(id, *dispatcherID, req.Outcome, req.ResolutionCode, req.Notes)
	if err != nil {
		respondServiceError(c.Context, err)
		return
	}
	response.Success(c.Context, nil)
}

// AppendNotes 处理补充备注
// @Summary      补充警报备注
// @Description  备注只追加不覆盖
// @Tags         Alert
// @Accept       json
// @Produce      json
// @Param        id      path int               true "警报ID"
// @Param        request body NotesPatchRequest true "备注内容"
// @Success      200  {object}  response.Response
// @Router       /alerts/{id}/notes [post]
func (c *AlertController) AppendNotes() {
	id, ok := parseIDParam(c.Context, "id")
	if !ok {
		return
	}
	var req NotesPatchRequest
	if err := c.Context.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Context, "无效的请求参数: "+err.Error())
		return
	}
	if err := c.Container.GetAlertService().AppendNotes(id, req.Notes); err != nil {
		respondServiceError(c.Context, err)
		return
	}
	response.Success(c.Context, nil)
}

// NotifyFamily 处理家属通知
// @Summary      通知紧急联系人
// @Description  按优先级逐个通知客户的紧急联系人，单个失败不中断
// @Tags         Alert
// @Produce      json
// @Param        id path int true "警报ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /alerts/{id}/notify-family [post]
func (c *AlertController) NotifyFamily() {
	id, ok := parseIDParam(c.Context, "id")
	if !ok {
		return
	}
	result, err := c.Container.GetNotificationService().NotifyFamily(id, currentDispatcherID(c.Context))
	if err != nil {
		respondServiceError(c.Context, err)
		return
	}
	response.Success(c.Context, result)
}

// NotifyDoctor 处理家庭医生通知
// @Summary      通知家庭医生
// @Description  呼叫客户签约的全科医生，没有时返回说明且不留审计记录
// @Tags         Alert
// @Produce      json
// @Param        id path int true "警报ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /alerts/{id}/notify-doctor [post]
func (c *AlertController) NotifyDoctor() {
	id, ok := parseIDParam(c.Context, "id")
	if !ok {
		return
	}
	result, err := c.Container.GetNotificationService().NotifyDoctor(id, currentDispatcherID(c.Context))
	if err != nil {
		respondServiceError(c.Context, err)
		return
	}
	response.Success(c.Context, result)
}

// CallAmbulance 处理急救呼叫
// @Summary      呼叫急救
// @Description  渲染用药清单、呼叫急救号码并留下不可变的审计快照
// @Tags         Alert
// @Accept       json
// @Produce      json
// @Param        id      path int                          true  "警报ID"
// @Param        request body services.AmbulanceCallRequest false "急救参数"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /alerts/{id}/call-ambulance [post]
func (c *AlertController) CallAmbulance() {
	id, ok := parseIDParam(c.Context, "id")
	if !ok {
		return
	}
	var req services.AmbulanceCallRequest
	if c.Context.Request.ContentLength > 0 {
		if err := c.Context.ShouldBindJSON(&req); err != nil {
			response.ParamError(c.Context, "无效的请求参数: "+err.Error())
			return
		}
	}
	if req.DispatcherID == nil {
		req.DispatcherID = currentDispatcherID(c.Context)
	}

	result, err := c.Container.GetNotificationService().CallAmbulance(id, &req)
	if err != nil {
		respondServiceError(c.Context, err)
		return
	}
	response.Success(c.Context, result)
}

// HandleAlertFunc 返回一个处理警报请求的Gin处理函数
func HandleAlertFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	factory := NewControllerFactory(container)

	return func(ctx *gin.Context) {
		controller := factory.NewAlertController(ctx)

		switch method {
		case "raiseAlert":
			controller.RaiseAlert()
		case "getAlerts":
			controller.GetAlerts()
		case "getAlert":
			controller.GetAlert()
		case "getChainStatus":
			controller.GetChainStatus()
		case "acknowledgeAlert":
			controller.AcknowledgeAlert()
		case "resolveAlert":
			controller.ResolveAlert()
		case "appendNotes":
			controller.AppendNotes()
		case "notifyFamily":
			controller.NotifyFamily()
		case "notifyDoctor":
			controller.NotifyDoctor()
		case "callAmbulance":
			controller.CallAmbulance()
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "无效的方法",
				"data":    nil,
			})
		}
	}
}

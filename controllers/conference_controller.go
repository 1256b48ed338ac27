package controllers

import (
	"net/http"

	"carecall-http-service/internal/error/response"
	"carecall-http-service/services/container"

	"github.com/gin-gonic/gin"
)

// ConferenceController 处理会议桥相关的请求
type ConferenceController struct {
	BaseControllerImpl
}

// NewConferenceController 创建一个新的会议桥控制器
func (f *ControllerFactory) NewConferenceController(ctx *gin.Context) *ConferenceController {
	return &ConferenceController{
		BaseControllerImpl: BaseControllerImpl{
			Container: f.Container,
			Context:   ctx,
		},
	}
}

// AddParticipantRequest 表示拉人入会请求
type AddParticipantRequest struct {
	Name        string `json:"name" binding:"required" example:"Dr. Weber"`
	PhoneNumber string `json:"phone_number" binding:"required" example:"+4930123456"`
	Role        string `json:"role" example:"Hausarzt"`
}

// StartConference 处理开启会议桥
// @Summary      开启会议桥
// @Description  为警报开启多方会议，初始成员只有调度员
// @Tags         Conference
// @Produce      json
// @Param        id path int true "警报ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /alerts/{id}/start-conference [post]
func (c *ConferenceController) StartConference() {
	id, ok := parseIDParam(c.Context, "id")
	if !ok {
		return
	}
	alert, err := c.Container.GetConferenceService().StartConference(id, currentDispatcherID(c.Context))
	if err != nil {
		respondServiceError(c.Context, err)
		return
	}
	response.Success(c.Context, gin.H{
		"conference_active": alert.ConferenceActive,
		"participants":      alert.ConferenceParticipants,
	})
}

// AddParticipant 处理拉人入会
// @Summary      拉人进入会议桥
// @Description  呼叫新成员并追加到成员名单，会议未开启时报状态错误
// @Tags         Conference
// @Accept       json
// @Produce      json
// @Param        id      path int                   true "警报ID"
// @Param        request body AddParticipantRequest true "成员参数"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /alerts/{id}/add-to-conference [post]
func (c *ConferenceController) AddParticipant() {
	id, ok := parseIDParam(c.Context, "id")
	if !ok {
		return
	}
	var req AddParticipantRequest
	if err := c.Context.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Context, "无效的请求参数: "+err.Error())
		return
	}
	result, err := c.Container.GetConferenceService().AddParticipant(id, req.Name, req.PhoneNumber, req.Role, currentDispatcherID(c.Context))
	if err != nil {
		respondServiceError(c.Context, err)
		return
	}
	response.Success(c.Context, result)
}

// EndConference 处理结束会议桥
// @Summary      结束会议桥
// @Description  关闭会议，成员名单作为历史保留在警报上
// @Tags         Conference
// @Produce      json
// @Param        id path int true "警报ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /alerts/{id}/end-conference [post]
func (c *ConferenceController) EndConference() {
	id, ok := parseIDParam(c.Context, "id")
	if !ok {
		return
	}
	alert, err := c.Container.GetConferenceService().EndConference(id, currentDispatcherID(c.Context))
	if err != nil {
		respondServiceError(c.Context, err)
		return
	}
	response.Success(c.Context, gin.H{
		"conference_active": alert.ConferenceActive,
		"participants":      alert.ConferenceParticipants,
	})
}

// HandleConferenceFunc 返回一个处理会议桥请求的Gin处理函数
func HandleConferenceFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	factory := NewControllerFactory(container)

	return func(ctx *gin.Context) {
		controller := factory.NewConferenceController(ctx)

		switch method {
		case "startConference":
			controller.StartConference()
		case "addParticipant":
			controller.AddParticipant()
		case "endConference":
			controller.EndConference()
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "无效的方法",
				"data":    nil,
			})
		}
	}
}

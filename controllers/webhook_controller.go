package controllers

import (
	"carecall-http-service/config"
	"carecall-http-service/internal/error/response"
	"carecall-http-service/services"
	"carecall-http-service/services/container"

	"github.com/gin-gonic/gin"
)

// WebhookController 处理话务网关的事件回调
type WebhookController struct {
	BaseControllerImpl
}

// NewWebhookController 创建一个新的回调控制器
func (f *ControllerFactory) NewWebhookController(ctx *gin.Context) *WebhookController {
	return &WebhookController{
		BaseControllerImpl: BaseControllerImpl{
			Container: f.Container,
			Context:   ctx,
		},
	}
}

// webhookPayload 网关回调的原始载荷
type webhookPayload struct {
	Event     string `json:"event"`
	CallID    string `json:"callId"`
	Direction string `json:"direction"`
	From      string `json:"from"`
	To        string `json:"to"`
	Cause     string `json:"cause"`
}

// Incoming 处理入站事件回调
// @Summary      话务网关事件回调
// @Description  接收newCall/answer/hangup事件；网关侧是发后不管，畸形或未知事件只记日志并确认
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        request body webhookPayload true "事件载荷"
// @Success      200  {object}  response.Response
// @Router       /webhook/incoming [post]
func (c *WebhookController) Incoming() {
	var payload webhookPayload
	if err := c.Context.ShouldBindJSON(&payload); err != nil {
		// 回调永远确认，不让网关无限重试
		config.Warning("回调载荷解析失败: %v", err)
		response.Success(c.Context, gin.H{"acknowledged": true})
		return
	}

	evt := &services.WebhookEvent{
		Event:     payload.Event,
		CallID:    payload.CallID,
		Direction: payload.Direction,
		From:      payload.From,
		To:        payload.To,
		Cause:     payload.Cause,
	}
	callLog, err := c.Container.GetCallSessionService().HandleWebhookEvent(evt)
	if err != nil {
		config.Warning("处理回调事件失败: event=%s, call_id=%s, err=%v", payload.Event, payload.CallID, err)
		response.Success(c.Context, gin.H{"acknowledged": true})
		return
	}

	response.Success(c.Context, gin.H{
		"acknowledged": true,
		"call":         callLog,
	})
}

// HandleWebhookFunc 返回一个处理回调请求的Gin处理函数
func HandleWebhookFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	factory := NewControllerFactory(container)

	return func(ctx *gin.Context) {
		controller := factory.NewWebhookController(ctx)

		switch method {
		case "incoming":
			controller.Incoming()
		default:
			controller.Incoming()
		}
	}
}

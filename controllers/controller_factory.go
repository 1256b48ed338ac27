package controllers

import (
	"errors"
	"strconv"

	"carecall-http-service/internal/error/code"
	"carecall-http-service/internal/error/response"
	"carecall-http-service/services"
	"carecall-http-service/services/container"

	"github.com/gin-gonic/gin"
)

// BaseController 是所有控制器的基础接口
type BaseController interface {
	// 获取服务容器
	GetContainer() *container.ServiceContainer
	// 获取Gin上下文
	GetContext() *gin.Context
}

// BaseControllerImpl 是控制器的基础实现
type BaseControllerImpl struct {
	Container *container.ServiceContainer
	Context   *gin.Context
}

// GetContainer 实现 BaseController 接口
func (c *BaseControllerImpl) GetContainer() *container.ServiceContainer {
	return c.Container
}

// GetContext 实现 BaseController 接口
func (c *BaseControllerImpl) GetContext() *gin.Context {
	return c.Context
}

// ControllerFactory 用于创建控制器的工厂
type ControllerFactory struct {
	Container *container.ServiceContainer
}

// NewControllerFactory 创建一个新的控制器工厂
func NewControllerFactory(container *container.ServiceContainer) *ControllerFactory {
	return &ControllerFactory{
		Container: container,
	}
}

// respondServiceError 把服务层错误映射为统一错误码响应
func respondServiceError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrAlertNotFound):
		response.Fail(ctx, code.ErrAlertNotFound, nil)
	case errors.Is(err, services.ErrAlertTerminal):
		response.Fail(ctx, code.ErrAlertTerminal, nil)
	case errors.Is(err, services.ErrChainStepOrder):
		response.Fail(ctx, code.ErrChainStepOrder, nil)
	case errors.Is(err, services.ErrConferenceInactive):
		response.Fail(ctx, code.ErrConferenceInactive, nil)
	case errors.Is(err, services.ErrCallNotFound):
		response.Fail(ctx, code.ErrCallNotFound, nil)
	case errors.Is(err, services.ErrCallEnded):
		response.Fail(ctx, code.ErrCallEnded, nil)
	case errors.Is(err, services.ErrUnknownCallAction):
		response.Fail(ctx, code.ErrCallAction, nil)
	case errors.Is(err, services.ErrGatewayFailure):
		response.Fail(ctx, code.ErrGatewayFailure, nil)
	case errors.Is(err, services.ErrDispatcherNotFound):
		response.Fail(ctx, code.ErrDispatcherNotFound, nil)
	case errors.Is(err, services.ErrDispatcherExists):
		response.Fail(ctx, code.ErrDispatcherExists, nil)
	case errors.Is(err, services.ErrDispatcherPassword):
		response.Fail(ctx, code.ErrDispatcherPassword, nil)
	case errors.Is(err, services.ErrClientNotFound):
		response.Fail(ctx, code.ErrClientNotFound, nil)
	case errors.Is(err, services.ErrDeviceNotFound):
		response.Fail(ctx, code.ErrDeviceNotFound, nil)
	case errors.Is(err, services.ErrWriteConflict):
		response.Fail(ctx, code.ErrConcurrencyConflict, nil)
	default:
		response.Fail(ctx, code.ErrDatabase, nil)
	}
}

// parseIDParam 解析路径里的数字ID，非法时直接写参数错误响应
func parseIDParam(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		response.ParamError(ctx, "无效的ID参数")
		return 0, false
	}
	return uint(id), true
}

// currentDispatcherID 从JWT中间件写入的上下文取当前调度员ID
func currentDispatcherID(ctx *gin.Context) *uint {
	v, exists := ctx.Get("dispatcherID")
	if !exists {
		return nil
	}
	id, ok := v.(uint)
	if !ok {
		return nil
	}
	return &id
}

package services

import "errors"

// 服务层错误，控制器据此映射错误码
var (
	// 未知记录
	ErrAlertNotFound      = errors.New("警报不存在")
	ErrDispatcherNotFound = errors.New("调度员不存在")
	ErrClientNotFound     = errors.New("客户不存在")
	ErrDeviceNotFound     = errors.New("设备不存在")
	ErrCallNotFound       = errors.New("通话记录不存在")

	// 账号相关
	ErrDispatcherExists   = errors.New("用户名已被占用")
	ErrDispatcherPassword = errors.New("用户名或密码错误")

	// 非法状态
	ErrAlertTerminal      = errors.New("警报已结案")
	ErrChainStepOrder     = errors.New("响应链步骤不允许回退")
	ErrConferenceInactive = errors.New("没有进行中的会议")
	ErrCallEnded          = errors.New("通话已结束")
	ErrUnknownCallAction  = errors.New("不支持的通话动作")

	// 网关原语返回失败或超时
	ErrGatewayFailure = errors.New("话务网关调用失败")

	// 乐观锁重试次数用尽
	ErrWriteConflict = errors.New("写入冲突，重试已用尽")
)

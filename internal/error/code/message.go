package code

// 错误码消息映射
var codeMessageMap = map[int]string{
	// 通用错误码
	ErrSuccess:         "成功",
	ErrUnknown:         "未知错误",
	ErrBind:            "请求参数绑定错误",
	ErrValidation:      "请求参数验证错误",
	ErrTokenInvalid:    "无效的认证令牌",
	ErrTooManyRequests: "请求频率过高，请稍后再试",

	// 警报相关错误码
	ErrAlertNotFound:      "警报不存在",
	ErrAlertTerminal:      "警报已结案",
	ErrChainStepOrder:     "响应链步骤不允许回退",
	ErrConferenceInactive: "没有进行中的会议",

	// 通话相关错误码
	ErrCallNotFound:   "通话记录不存在",
	ErrCallEnded:      "通话已结束",
	ErrCallAction:     "不支持的通话动作",
	ErrGatewayFailure: "话务网关调用失败",

	// 调度员相关错误码
	ErrDispatcherNotFound: "调度员不存在",
	ErrDispatcherExists:   "调度员已存在",
	ErrDispatcherPassword: "调度员密码错误",

	// 档案相关错误码
	ErrClientNotFound: "客户不存在",
	ErrDeviceNotFound: "设备不存在",

	// 存储相关错误码
	ErrDatabase:            "数据库错误",
	ErrRecordNotFound:      "记录不存在",
	ErrConcurrencyConflict: "写入冲突，请重试",
}

// 错误码HTTP状态码映射
var codeStatusMap = map[int]int{
	// 通用错误码
	ErrSuccess:         StatusOK,
	ErrUnknown:         StatusInternalServerError,
	ErrBind:            StatusBadRequest,
	ErrValidation:      StatusBadRequest,
	ErrTokenInvalid:    StatusUnauthorized,
	ErrTooManyRequests: StatusTooManyRequests,

	// 警报相关错误码
	ErrAlertNotFound:      StatusNotFound,
	ErrAlertTerminal:      StatusBadRequest,
	ErrChainStepOrder:     StatusBadRequest,
	ErrConferenceInactive: StatusBadRequest,

	// 通话相关错误码
	ErrCallNotFound:   StatusNotFound,
	ErrCallEnded:      StatusBadRequest,
	ErrCallAction:     StatusBadRequest,
	ErrGatewayFailure: StatusBadGateway,

	// 调度员相关错误码
	ErrDispatcherNotFound: StatusNotFound,
	ErrDispatcherExists:   StatusBadRequest,
	ErrDispatcherPassword: StatusUnauthorized,

	// 档案相关错误码
	ErrClientNotFound: StatusNotFound,
	ErrDeviceNotFound: StatusNotFound,

	// 存储相关错误码
	ErrDatabase:            StatusInternalServerError,
	ErrRecordNotFound:      StatusNotFound,
	ErrConcurrencyConflict: StatusConflict,
}

// GetMessage 获取错误码对应的消息
func GetMessage(code int) string {
	if msg, ok := codeMessageMap[code]; ok {
		return msg
	}
	return "未知错误"
}

// GetStatus 获取错误码对应的HTTP状态码
func GetStatus(code int) int {
	if status, ok := codeStatusMap[code]; ok {
		return status
	}
	return StatusInternalServerError
}

package code

// HTTP状态码.
const (
	// StatusOK - 200: 成功.
	StatusOK = 200
	// StatusBadRequest - 400: 请求参数错误.
	StatusBadRequest = 400
	// StatusUnauthorized - 401: 未授权.
	StatusUnauthorized = 401
	// StatusForbidden - 403: 禁止访问.
	StatusForbidden = 403
	// StatusNotFound - 404: 资源不存在.
	StatusNotFound = 404
	// StatusConflict - 409: 并发冲突.
	StatusConflict = 409
	// StatusTooManyRequests - 429: 请求频率过高.
	StatusTooManyRequests = 429
	// StatusInternalServerError - 500: 服务器内部错误.
	StatusInternalServerError = 500
	// StatusBadGateway - 502: 话务网关错误.
	StatusBadGateway = 502
)

// 通用错误码 (100xxx).
const (
	// ErrSuccess - 200: 成功.
	ErrSuccess int = iota + 100000
	// ErrUnknown - 500: 未知错误.
	ErrUnknown
	// ErrBind - 400: 请求参数绑定错误.
	ErrBind
	// ErrValidation - 400: 请求参数验证错误.
	ErrValidation
	// ErrTokenInvalid - 401: 令牌无效.
	ErrTokenInvalid
	// ErrTooManyRequests - 429: 请求频率过高.
	ErrTooManyRequests
)

// 警报相关错误码 (101xxx).
const (
	// ErrAlertNotFound - 404: 警报不存在.
	ErrAlertNotFound int = iota + 101000
	// ErrAlertTerminal - 400: 警报已结案.
	ErrAlertTerminal
	// ErrChainStepOrder - 400: 响应链步骤不允许回退.
	ErrChainStepOrder
	// ErrConferenceInactive - 400: 没有进行中的会议.
	ErrConferenceInactive
)

// 通话相关错误码 (102xxx).
const (
	// ErrCallNotFound - 404: 通话记录不存在.
	ErrCallNotFound int = iota + 102000
	// ErrCallEnded - 400: 通话已结束.
	ErrCallEnded
	// ErrCallAction - 400: 不支持的通话动作.
	ErrCallAction
	// ErrGatewayFailure - 502: 话务网关调用失败.
	ErrGatewayFailure
)

// 调度员相关错误码 (103xxx).
const (
	// ErrDispatcherNotFound - 404: 调度员不存在.
	ErrDispatcherNotFound int = iota + 103000
	// ErrDispatcherExists - 400: 调度员已存在.
	ErrDispatcherExists
	// ErrDispatcherPassword - 401: 调度员密码错误.
	ErrDispatcherPassword
)

// 档案相关错误码 (104xxx).
const (
	// ErrClientNotFound - 404: 客户不存在.
	ErrClientNotFound int = iota + 104000
	// ErrDeviceNotFound - 404: 设备不存在.
	ErrDeviceNotFound
)

// 存储相关错误码 (105xxx).
const (
	// ErrDatabase - 500: 数据库错误.
	ErrDatabase int = iota + 105000
	// ErrRecordNotFound - 404: 记录不存在.
	ErrRecordNotFound
	// ErrConcurrencyConflict - 409: 写入冲突，重试已用尽.
	ErrConcurrencyConflict
)

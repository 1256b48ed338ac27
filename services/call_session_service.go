package services

import (
	"errors"
	"time"

	"carecall-http-service/config"
	"carecall-http-service/models"
	"carecall-http-service/repository"
)

// 通话动作名，调度员通过 POST /calls/:id/action 下发
const (
	CallActionHold       = "hold"
	CallActionResume     = "resume"
	CallActionMute       = "mute"
	CallActionUnmute     = "unmute"
	CallActionTransfer   = "transfer"
	CallActionHangup     = "hangup"
	CallActionRecord     = "record"
	CallActionStopRecord = "stoprecord"
)

// InitiateCallRequest 发起外呼的参数
type InitiateCallRequest struct {
	ToNumber     string `json:"to_number" binding:"required"`
	DispatcherID *uint  `json:"dispatcher_id,omitempty"`
	ClientID     *uint  `json:"client_id,omitempty"`
	AlertID      *uint  `json:"alert_id,omitempty"`
}

// CallActionRequest 调度员通话动作的参数
type CallActionRequest struct {
	Action string `json:"action" binding:"required"`
	Target string `json:"target,omitempty"` // transfer动作的转接目标
}

// InterfaceCallSessionService defines the call session tracker interface
type InterfaceCallSessionService interface {
	InitiateCall(req *InitiateCallRequest) (*models.CallLog, error)
	GetCall(id uint) (*models.CallLog, error)
	ListCalls(page, pageSize int) ([]models.CallLog, int64, error)
	GetStatistics() (*repository.CallStatistics, error)
	PerformAction(id uint, dispatcherID *uint, req *CallActionRequest) (*models.CallLog, error)
	HandleWebhookEvent(evt *WebhookEvent) (*models.CallLog, error)
}

// CallSessionService 话务会话跟踪器
// 状态变化来自两个方向：调度员动作（先网关后本地）和网关事件回调（总是落地）
type CallSessionService struct {
	Repo              repository.Repository
	Config            *config.Config
	Gateway           InterfaceTelephonyGateway
	AlertService      InterfaceAlertService
	DispatcherService InterfaceDispatcherService
}

// NewCallSessionService 创建一个新的话务会话服务
func NewCallSessionService(repo repository.Repository, cfg *config.Config, gateway InterfaceTelephonyGateway, alertService InterfaceAlertService, dispatcherService InterfaceDispatcherService) InterfaceCallSessionService {
	return &CallSessionService{
		Repo:              repo,
		Config:            cfg,
		Gateway:           gateway,
		AlertService:      alertService,
		DispatcherService: dispatcherService,
	}
}

// 1 InitiateCall 发起外呼并建立会话记录
func (s *CallSessionService) InitiateCall(req *InitiateCallRequest) (*models.CallLog, error) {
	fromExtension := s.Config.DispatchExtension
	if req.DispatcherID != nil {
		dispatcher, err := s.DispatcherService.GetDispatcher(*req.DispatcherID)
		if err != nil {
			return nil, err
		}
		if dispatcher.Extension != "" {
			fromExtension = dispatcher.Extension
		}
	}

	result := s.Gateway.InitiateCall(fromExtension, req.ToNumber)
	if !result.Success {
		return nil, ErrGatewayFailure
	}

	callLog := &models.CallLog{
		CallID:       result.SessionID,
		Direction:    models.CallDirectionOutbound,
		FromNumber:   fromExtension,
		ToNumber:     req.ToNumber,
		DispatcherID: req.DispatcherID,
		ClientID:     req.ClientID,
		AlertID:      req.AlertID,
		Status:       models.CallLogStatusRinging,
		StartTime:    time.Now(),
	}
	if err := s.Repo.CreateCallLog(callLog); err != nil {
		return nil, err
	}

	if req.DispatcherID != nil {
		if err := s.DispatcherService.MarkOnCall(*req.DispatcherID); err != nil {
			config.Warning("标记调度员通话中失败: id=%d, err=%v", *req.DispatcherID, err)
		}
	}
	return callLog, nil
}

// 2 GetCall 按ID查询通话记录
func (s *CallSessionService) GetCall(id uint) (*models.CallLog, error) {
	callLog, err := s.Repo.GetCallLog(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCallNotFound
		}
		return nil, err
	}
	return callLog, nil
}

// 3 ListCalls 分页查询通话记录
func (s *CallSessionService) ListCalls(page, pageSize int) ([]models.CallLog, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.Repo.ListCallLogs(page, pageSize)
}

// 4 GetStatistics 通话统计
func (s *CallSessionService) GetStatistics() (*repository.CallStatistics, error) {
	return s.Repo.GetCallStatistics()
}

// 5 PerformAction 执行调度员通话动作
// 先调网关原语，网关失败直接报错、不改本地状态
func (s *CallSessionService) PerformAction(id uint, dispatcherID *uint, req *CallActionRequest) (*models.CallLog, error) {
	callLog, err := s.GetCall(id)
	if err != nil {
		return nil, err
	}
	if callLog.Status.IsTerminal() {
		return nil, ErrCallEnded
	}

	switch req.Action {
	case CallActionHold:
		if !s.Gateway.HoldCall(callLog.CallID, true) {
			return nil, ErrGatewayFailure
		}
		return s.mutateCall(callLog.CallID, func(c *models.CallLog) error {
			if c.Status.IsTerminal() {
				return ErrCallEnded
			}
			c.Status = models.CallLogStatusOnHold
			return nil
		})

	case CallActionResume:
		if !s.Gateway.HoldCall(callLog.CallID, false) {
			return nil, ErrGatewayFailure
		}
		return s.mutateCall(callLog.CallID, func(c *models.CallLog) error {
			if c.Status.IsTerminal() {
				return ErrCallEnded
			}
			c.Status = models.CallLogStatusConnected
			return nil
		})

	case CallActionMute, CallActionUnmute:
		mute := req.Action == CallActionMute
		if !s.Gateway.MuteCall(callLog.CallID, mute) {
			return nil, ErrGatewayFailure
		}
		return s.mutateCall(callLog.CallID, func(c *models.CallLog) error {
			if c.Status.IsTerminal() {
				return ErrCallEnded
			}
			c.Muted = mute
			return nil
		})

	case CallActionTransfer:
		if req.Target == "" {
			return nil, ErrUnknownCallAction
		}
		if !s.Gateway.TransferCall(callLog.CallID, req.Target) {
			return nil, ErrGatewayFailure
		}
		return s.mutateCall(callLog.CallID, func(c *models.CallLog) error {
			if c.Status.IsTerminal() {
				return ErrCallEnded
			}
			c.Escalated = true
			return nil
		})

	case CallActionRecord:
		if !s.Gateway.StartRecording(callLog.CallID) {
			return nil, ErrGatewayFailure
		}
		return s.mutateCall(callLog.CallID, func(c *models.CallLog) error {
			if c.Status.IsTerminal() {
				return ErrCallEnded
			}
			if !c.Recording {
				now := time.Now()
				c.Recording = true
				c.RecordingStartTime = &now
			}
			return nil
		})

	case CallActionStopRecord:
		if !s.Gateway.StopRecording(callLog.CallID) {
			return nil, ErrGatewayFailure
		}
		return s.mutateCall(callLog.CallID, func(c *models.CallLog) error {
			if c.Status.IsTerminal() {
				return ErrCallEnded
			}
			if c.Recording && c.RecordingStartTime != nil {
				c.RecordingDuration += int(time.Since(*c.RecordingStartTime).Seconds())
			}
			c.Recording = false
			c.RecordingStartTime = nil
			return nil
		})

	case CallActionHangup:
		if !s.Gateway.HangupCall(callLog.CallID) {
			return nil, ErrGatewayFailure
		}
		return s.finishCall(callLog.CallID, "dispatcher_hangup")

	default:
		return nil, ErrUnknownCallAction
	}
}

// 6 HandleWebhookEvent 处理网关事件回调
// 回调是外部状态变化的事实来源，总是落地；重复投递是常态，处理必须幂等
func (s *CallSessionService) HandleWebhookEvent(evt *WebhookEvent) (*models.CallLog, error) {
	switch evt.Event {
	case WebhookEventNewCall:
		return s.handleNewCall(evt)
	case WebhookEventAnswer:
		return s.handleAnswer(evt)
	case WebhookEventHangup:
		cause := evt.Cause
		if cause == "" {
			cause = "remote_hangup"
		}
		return s.finishCall(evt.CallID, cause)
	default:
		return nil, ErrUnknownCallAction
	}
}

// handleNewCall 新呼叫事件：建立会话记录，来电时顺带触发来电警报
func (s *CallSessionService) handleNewCall(evt *WebhookEvent) (*models.CallLog, error) {
	// 重复投递：记录已存在则原样返回
	if existing, err := s.Repo.GetCallLogByCallID(evt.CallID); err == nil {
		return existing, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	direction := models.CallDirection(evt.Direction)
	if direction != models.CallDirectionOutbound {
		direction = models.CallDirectionInbound
	}

	callLog := &models.CallLog{
		CallID:     evt.CallID,
		Direction:  direction,
		FromNumber: evt.From,
		ToNumber:   evt.To,
		Status:     models.CallLogStatusRinging,
		StartTime:  time.Now(),
	}

	// 来电按设备注册号码反查客户并触发来电警报
	if direction == models.CallDirectionInbound {
		if device, err := s.Repo.FindDeviceByPhone(evt.From); err == nil {
			callLog.ClientID = device.ClientID
		}
		alert, err := s.AlertService.RaiseAlert(&RaiseAlertRequest{
			AlertType:    models.AlertTypeIncomingCall,
			Priority:     models.AlertPriorityHigh,
			CallerNumber: evt.From,
		})
		if err != nil {
			config.Warning("来电触发警报失败: call_id=%s, err=%v", evt.CallID, err)
		} else {
			callLog.AlertID = &alert.ID
			if callLog.ClientID == nil {
				callLog.ClientID = alert.ClientID
			}
		}
	}

	if err := s.Repo.CreateCallLog(callLog); err != nil {
		return nil, err
	}
	return callLog, nil
}

// handleAnswer 接通事件：置为已接通并记录接通时间，重复投递为空操作
func (s *CallSessionService) handleAnswer(evt *WebhookEvent) (*models.CallLog, error) {
	return s.mutateCall(evt.CallID, func(c *models.CallLog) error {
		if c.Status.IsTerminal() || c.Status == models.CallLogStatusConnected {
			return nil
		}
		c.Status = models.CallLogStatusConnected
		if c.ConnectTime == nil {
			now := time.Now()
			c.ConnectTime = &now
		}
		return nil
	})
}

// finishCall 结束会话，调度员挂断和网关挂断事件共用
// 乐观锁保证只有一个调用方完成终态迁移，调度员计数簿记只由赢家执行一次
func (s *CallSessionService) finishCall(callID, reason string) (*models.CallLog, error) {
	var transitioned bool
	callLog, err := s.mutateCall(callID, func(c *models.CallLog) error {
		transitioned = false
		if c.Status.IsTerminal() {
			return nil
		}
		transitioned = true

		now := time.Now()
		if c.ConnectTime != nil {
			c.Status = models.CallLogStatusEnded
			c.Duration = int(now.Sub(*c.ConnectTime).Seconds())
		} else {
			// 从未接通的呼叫按未接处理
			c.Status = models.CallLogStatusMissed
			c.Duration = 0
		}
		c.EndTime = &now
		c.EndReason = reason
		if c.Recording && c.RecordingStartTime != nil {
			c.RecordingDuration += int(now.Sub(*c.RecordingStartTime).Seconds())
		}
		c.Recording = false
		c.RecordingStartTime = nil
		return nil
	})
	if err != nil {
		return nil, err
	}

	if transitioned && callLog.DispatcherID != nil {
		if err := s.DispatcherService.ReleaseCall(*callLog.DispatcherID); err != nil {
			config.Warning("调度员挂断簿记失败: id=%d, err=%v", *callLog.DispatcherID, err)
		}
	}
	return callLog, nil
}

// mutateCall 对单条通话记录做串行化的读-改-写，版本冲突时重读再试
func (s *CallSessionService) mutateCall(callID string, mutate func(*models.CallLog) error) (*models.CallLog, error) {
	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		callLog, err := s.Repo.GetCallLogByCallID(callID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrCallNotFound
			}
			return nil, err
		}

		if err := mutate(callLog); err != nil {
			return nil, err
		}

		if err := s.Repo.UpdateCallLog(callLog); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				continue
			}
			return nil, err
		}
		return callLog, nil
	}
	return nil, ErrWriteConflict
}

package services

import (
	"errors"
	"fmt"
	"time"

	"carecall-http-service/config"
	"carecall-http-service/models"
	"carecall-http-service/repository"
)

// 单条记录读-改-写的最大重试次数（乐观锁冲突时重读再试）
const maxUpdateRetries = 5

// 响应链状态缓存的有效期，很短，只为挡住面板轮询
const chainStatusCacheTTL = 5 * time.Second

// RaiseAlertRequest 触发警报的参数
type RaiseAlertRequest struct {
	AlertType    models.AlertType     `json:"alert_type"`
	Priority     models.AlertPriority `json:"priority"`
	DeviceID     *uint                `json:"device_id,omitempty"`
	ClientID     *uint                `json:"client_id,omitempty"`
	CallerNumber string               `json:"caller_number,omitempty"`
	Location     string               `json:"location,omitempty"`
	Latitude     *float64             `json:"latitude,omitempty"`
	Longitude    *float64             `json:"longitude,omitempty"`
	HeartRate    *int                 `json:"heart_rate,omitempty"`
	Notes        string               `json:"notes,omitempty"`
}

// AlertFlagsPatch 警报布尔标记的补丁，逐字段幂等
type AlertFlagsPatch struct {
	ContactsNotified       *bool `json:"contacts_notified,omitempty"`
	AmbulanceCalled        *bool `json:"ambulance_called,omitempty"`
	MedicationListProvided *bool `json:"medication_list_provided,omitempty"`
}

// ChainStatus 响应链当前状态的汇总视图
type ChainStatus struct {
	AlertID                uint                          `json:"alert_id"`
	Status                 models.AlertStatus            `json:"status"`
	ChainStep              models.ChainStep              `json:"chain_step"`
	ContactsNotified       bool                          `json:"contacts_notified"`
	FamilyContactsNotified int                           `json:"family_contacts_notified"`
	DoctorNotified         string                        `json:"doctor_notified,omitempty"`
	AmbulanceCalled        bool                          `json:"ambulance_called"`
	MedicationListProvided bool                          `json:"medication_list_provided"`
	ConferenceActive       bool                          `json:"conference_active"`
	ConferenceParticipants []string                      `json:"conference_participants,omitempty"`
	Actions                []models.EmergencyChainAction `json:"actions"`
}

// InterfaceAlertService defines the alert state machine interface
type InterfaceAlertService interface {
	RaiseAlert(req *RaiseAlertRequest) (*models.EmergencyAlert, error)
	GetAlert(alertID uint) (*models.EmergencyAlert, error)
	GetChainStatus(alertID uint) (*ChainStatus, error)
	ListAlerts(page, pageSize int) ([]models.EmergencyAlert, int64, error)
	AcknowledgeAlert(alertID, dispatcherID uint) error
	ResolveAlert(alertID, dispatcherID uint, outcome models.AlertStatus, resolutionCode, notes string) error
	AdvanceChainStep(alertID uint, target models.ChainStep) error
	AppendNotes(alertID uint, notes string) error
	UpdateFlags(alertID uint, patch *AlertFlagsPatch) error
	// MutateAlert 串行化的读-改-写，供编排服务复用
	MutateAlert(alertID uint, mutate func(*models.EmergencyAlert) error) (*models.EmergencyAlert, error)
}

// AlertService 警报状态机实现
type AlertService struct {
	Repo   repository.Repository
	Config *config.Config
	Redis  *RedisService // 可为nil，降级为不缓存
}

// NewAlertService 创建一个新的警报服务
func NewAlertService(repo repository.Repository, cfg *config.Config, redis *RedisService) InterfaceAlertService {
	return &AlertService{
		Repo:   repo,
		Config: cfg,
		Redis:  redis,
	}
}

// 1 RaiseAlert 触发紧急警报
// 未带设备但带来电号码时，按设备注册号码反查客户（号码重复时取最先注册的设备）
func (s *AlertService) RaiseAlert(req *RaiseAlertRequest) (*models.EmergencyAlert, error) {
	alert := &models.EmergencyAlert{
		AlertType:    req.AlertType,
		Priority:     req.Priority,
		Status:       models.AlertStatusNew,
		ChainStep:    models.ChainStepInitial,
		DeviceID:     req.DeviceID,
		ClientID:     req.ClientID,
		CallerNumber: req.CallerNumber,
		Location:     req.Location,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		HeartRate:    req.HeartRate,
		Notes:        req.Notes,
		RaisedAt:     time.Now(),
	}

	// 带设备时直接从设备档案取客户
	if alert.DeviceID != nil {
		device, err := s.Repo.GetDevice(*alert.DeviceID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrDeviceNotFound
			}
			return nil, err
		}
		if alert.ClientID == nil {
			alert.ClientID = device.ClientID
		}
	} else if alert.ClientID == nil && alert.CallerNumber != "" {
		// 来电号码反查设备，查不到不算错误，警报照常触发
		device, err := s.Repo.FindDeviceByPhone(alert.CallerNumber)
		if err == nil {
			alert.DeviceID = &device.ID
			alert.ClientID = device.ClientID
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	if err := s.Repo.CreateAlert(alert); err != nil {
		return nil, err
	}
	return alert, nil
}

// 2 GetAlert 根据ID获取警报
func (s *AlertService) GetAlert(alertID uint) (*models.EmergencyAlert, error) {
	alert, err := s.Repo.GetAlert(alertID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAlertNotFound
		}
		return nil, err
	}
	return alert, nil
}

// 3 GetChainStatus 获取响应链状态汇总（短TTL缓存）
func (s *AlertService) GetChainStatus(alertID uint) (*ChainStatus, error) {
	cacheKey := fmt.Sprintf("chain_status:%d", alertID)
	if s.Redis != nil {
		var cached ChainStatus
		if err := s.Redis.Get(cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	alert, err := s.GetAlert(alertID)
	if err != nil {
		return nil, err
	}
	actions, err := s.Repo.ListActionsByAlert(alertID)
	if err != nil {
		return nil, err
	}

	status := &ChainStatus{
		AlertID:                alert.ID,
		Status:                 alert.Status,
		ChainStep:              alert.ChainStep,
		ContactsNotified:       alert.ContactsNotified,
		FamilyContactsNotified: alert.FamilyContactsNotified,
		DoctorNotified:         alert.DoctorNotified,
		AmbulanceCalled:        alert.AmbulanceCalled,
		MedicationListProvided: alert.MedicationListProvided,
		ConferenceActive:       alert.ConferenceActive,
		ConferenceParticipants: alert.ConferenceParticipants,
		Actions:                actions,
	}

	if s.Redis != nil {
		if err := s.Redis.Set(cacheKey, status, chainStatusCacheTTL); err != nil {
			// 缓存失败不影响主流程
			config.Warning("缓存响应链状态失败: %v", err)
		}
	}
	return status, nil
}

// 4 ListAlerts 分页获取警报列表
func (s *AlertService) ListAlerts(page, pageSize int) ([]models.EmergencyAlert, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	return s.Repo.ListAlerts(page, pageSize)
}

// 5 AcknowledgeAlert 调度员确认警报，重复确认是无害的空操作
func (s *AlertService) AcknowledgeAlert(alertID, dispatcherID uint) error {
	if _, err := s.Repo.GetDispatcher(dispatcherID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrDispatcherNotFound
		}
		return err
	}

	_, err := s.MutateAlert(alertID, func(alert *models.EmergencyAlert) error {
		if alert.AcknowledgedAt != nil {
			// 已确认，幂等返回
			return nil
		}
		if alert.Status.IsTerminal() {
			return ErrAlertTerminal
		}
		now := time.Now()
		alert.Status = models.AlertStatusAcknowledged
		alert.AcknowledgedAt = &now
		alert.AcknowledgedByID = &dispatcherID
		return nil
	})
	return err
}

// 6 ResolveAlert 结案，允许从任何非终态进入；响应链步骤强制跳到Resolved
func (s *AlertService) ResolveAlert(alertID, dispatcherID uint, outcome models.AlertStatus, resolutionCode, notes string) error {
	if _, err := s.Repo.GetDispatcher(dispatcherID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrDispatcherNotFound
		}
		return err
	}
	if outcome == "" {
		outcome = models.AlertStatusResolved
	}
	if !outcome.IsTerminal() {
		return fmt.Errorf("非法的结案状态: %s", outcome)
	}

	_, err := s.MutateAlert(alertID, func(alert *models.EmergencyAlert) error {
		if alert.Status.IsTerminal() {
			return ErrAlertTerminal
		}
		now := time.Now()
		alert.Status = outcome
		alert.ChainStep = models.ChainStepResolved
		alert.ResolvedAt = &now
		alert.ResolvedByID = &dispatcherID
		alert.ResolutionCode = resolutionCode
		if notes != "" {
			alert.Notes = appendNotes(alert.Notes, notes)
		}
		return nil
	})
	return err
}

// 7 AdvanceChainStep 推进响应链步骤，只允许前进（强制结案除外）
func (s *AlertService) AdvanceChainStep(alertID uint, target models.ChainStep) error {
	if target.Order() < 0 {
		return fmt.Errorf("未知的响应链步骤: %s", target)
	}
	_, err := s.MutateAlert(alertID, func(alert *models.EmergencyAlert) error {
		return advanceChainStep(alert, target)
	})
	return err
}

// 8 AppendNotes 追加备注，从不覆盖既有内容
func (s *AlertService) AppendNotes(alertID uint, notes string) error {
	if notes == "" {
		return nil
	}
	_, err := s.MutateAlert(alertID, func(alert *models.EmergencyAlert) error {
		alert.Notes = appendNotes(alert.Notes, notes)
		return nil
	})
	return err
}

// 9 UpdateFlags 应用布尔标记补丁，逐字段幂等
func (s *AlertService) UpdateFlags(alertID uint, patch *AlertFlagsPatch) error {
	_, err := s.MutateAlert(alertID, func(alert *models.EmergencyAlert) error {
		now := time.Now()
		if patch.ContactsNotified != nil && *patch.ContactsNotified && !alert.ContactsNotified {
			alert.ContactsNotified = true
			alert.FamilyNotifiedTime = &now
		}
		if patch.AmbulanceCalled != nil && *patch.AmbulanceCalled && !alert.AmbulanceCalled {
			alert.AmbulanceCalled = true
			alert.AmbulanceCalledTime = &now
		}
		if patch.MedicationListProvided != nil && *patch.MedicationListProvided && !alert.MedicationListProvided {
			alert.MedicationListProvided = true
			alert.MedicationListTime = &now
		}
		return nil
	})
	return err
}

// MutateAlert 串行化的读-改-写：版本冲突时重读再试，次数用尽返回 ErrWriteConflict
func (s *AlertService) MutateAlert(alertID uint, mutate func(*models.EmergencyAlert) error) (*models.EmergencyAlert, error) {
	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		alert, err := s.Repo.GetAlert(alertID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrAlertNotFound
			}
			return nil, err
		}

		if err := mutate(alert); err != nil {
			return nil, err
		}

		err = s.Repo.UpdateAlert(alert)
		if err == nil {
			s.invalidateChainStatus(alertID)
			return alert, nil
		}
		if !errors.Is(err, repository.ErrConflict) {
			return nil, err
		}
		// 丢了写竞争，重读后再试
	}
	return nil, ErrWriteConflict
}

// invalidateChainStatus 尽力失效缓存，失败不影响主流程
func (s *AlertService) invalidateChainStatus(alertID uint) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Delete(fmt.Sprintf("chain_status:%d", alertID)); err != nil {
		config.Warning("失效响应链状态缓存失败: %v", err)
	}
}

// advanceChainStep 推进步骤并把进入响应链的警报标记为处理中
func advanceChainStep(alert *models.EmergencyAlert, target models.ChainStep) error {
	if alert.Status.IsTerminal() {
		return ErrAlertTerminal
	}
	if !alert.ChainStep.CanAdvanceTo(target) {
		return ErrChainStepOrder
	}
	alert.ChainStep = target
	if target != models.ChainStepResolved && target.Order() > models.ChainStepInitial.Order() {
		alert.Status = models.AlertStatusInProgress
	}
	return nil
}

// appendNotes 备注只追加不覆盖
func appendNotes(existing, notes string) string {
	if existing == "" {
		return notes
	}
	return existing + "\n" + notes
}

package services

import (
	"fmt"
	"strings"
	"time"

	"carecall-http-service/config"
	"carecall-http-service/models"
	"carecall-http-service/repository"
)

// ConferenceParticipantResult 加入会议桥的结果
type ConferenceParticipantResult struct {
	Success       bool     `json:"success"`
	Name          string   `json:"name"`
	GatewayCallID string   `json:"gateway_call_id,omitempty"`
	Participants  []string `json:"participants"`
}

// InterfaceConferenceService defines the conference coordinator interface
type InterfaceConferenceService interface {
	StartConference(alertID uint, dispatcherID *uint) (*models.EmergencyAlert, error)
	AddParticipant(alertID uint, name, phoneNumber, role string, dispatcherID *uint) (*ConferenceParticipantResult, error)
	EndConference(alertID uint, dispatcherID *uint) (*models.EmergencyAlert, error)
}

// ConferenceService 管理单个警报的临时多方会议桥
type ConferenceService struct {
	Repo         repository.Repository
	Config       *config.Config
	Gateway      InterfaceTelephonyGateway
	AlertService InterfaceAlertService
}

// NewConferenceService 创建一个新的会议桥服务
func NewConferenceService(repo repository.Repository, cfg *config.Config, gateway InterfaceTelephonyGateway, alertService InterfaceAlertService) InterfaceConferenceService {
	return &ConferenceService{
		Repo:         repo,
		Config:       cfg,
		Gateway:      gateway,
		AlertService: alertService,
	}
}

// 1 StartConference 开启会议桥，初始成员只有调度员
func (s *ConferenceService) StartConference(alertID uint, dispatcherID *uint) (*models.EmergencyAlert, error) {
	now := time.Now()
	alert, err := s.AlertService.MutateAlert(alertID, func(a *models.EmergencyAlert) error {
		if err := advanceChainStep(a, models.ChainStepInConference); err != nil {
			return err
		}
		a.ConferenceActive = true
		a.ConferenceParticipants = models.StringList{"Dispatcher"}
		return nil
	})
	if err != nil {
		return nil, err
	}

	action := &models.EmergencyChainAction{
		AlertID:      alertID,
		ActionType:   models.ActionStartConference,
		Timestamp:    now,
		DispatcherID: dispatcherID,
		Result:       models.ResultSuccess,
	}
	if err := s.Repo.AppendAction(action); err != nil {
		return nil, err
	}
	return alert, nil
}

// 2 AddParticipant 呼叫新成员并拉入会议桥
// 会议未激活时返回状态错误，不追加任何审计记录
// 成员名单只追加不去重，保留每一次拉人的历史
func (s *ConferenceService) AddParticipant(alertID uint, name, phoneNumber, role string, dispatcherID *uint) (*ConferenceParticipantResult, error) {
	alert, err := s.AlertService.GetAlert(alertID)
	if err != nil {
		return nil, err
	}
	if !alert.ConferenceActive {
		return nil, ErrConferenceInactive
	}

	callResult := s.Gateway.InitiateCall(s.Config.DispatchExtension, phoneNumber)
	result := models.ResultSuccess
	if !callResult.Success {
		result = mapGatewayError(callResult.Error)
	}

	var participants models.StringList
	if _, err := s.AlertService.MutateAlert(alertID, func(a *models.EmergencyAlert) error {
		if !a.ConferenceActive {
			return ErrConferenceInactive
		}
		a.ConferenceParticipants = append(a.ConferenceParticipants, name)
		participants = a.ConferenceParticipants
		return nil
	}); err != nil {
		return nil, err
	}

	notes := fmt.Sprintf("Rolle: %s", role)
	action := &models.EmergencyChainAction{
		AlertID:       alertID,
		ActionType:    models.ActionAddToConference,
		Timestamp:     time.Now(),
		DispatcherID:  dispatcherID,
		TargetName:    name,
		TargetNumber:  phoneNumber,
		Result:        result,
		Notes:         notes,
		GatewayCallID: callResult.SessionID,
	}
	if err := s.Repo.AppendAction(action); err != nil {
		return nil, err
	}

	return &ConferenceParticipantResult{
		Success:       callResult.Success,
		Name:          name,
		GatewayCallID: callResult.SessionID,
		Participants:  participants,
	}, nil
}

// 3 EndConference 结束会议桥，名单作为历史保留在警报上
func (s *ConferenceService) EndConference(alertID uint, dispatcherID *uint) (*models.EmergencyAlert, error) {
	var roster models.StringList
	alert, err := s.AlertService.MutateAlert(alertID, func(a *models.EmergencyAlert) error {
		if !a.ConferenceActive {
			return ErrConferenceInactive
		}
		a.ConferenceActive = false
		roster = a.ConferenceParticipants
		return nil
	})
	if err != nil {
		return nil, err
	}

	action := &models.EmergencyChainAction{
		AlertID:      alertID,
		ActionType:   models.ActionEndConference,
		Timestamp:    time.Now(),
		DispatcherID: dispatcherID,
		Result:       models.ResultSuccess,
		Notes:        fmt.Sprintf("Teilnehmer: %s", strings.Join(roster, ", ")),
	}
	if err := s.Repo.AppendAction(action); err != nil {
		return nil, err
	}
	return alert, nil
}

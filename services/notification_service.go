package services

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"carecall-http-service/config"
	"carecall-http-service/models"
	"carecall-http-service/repository"
	"carecall-http-service/utils"
)

// ContactAttempt 单个联系人的通知尝试结果
type ContactAttempt struct {
	ContactID   uint                `json:"contact_id"`
	ContactName string              `json:"contact_name"`
	Channel     string              `json:"channel"` // sms/call/none
	Number      string              `json:"number,omitempty"`
	Result      models.ActionResult `json:"result"`
	Success     bool                `json:"success"`
}

// NotificationResult 家属通知扫荡的汇总结果
type NotificationResult struct {
	AlertID       uint             `json:"alert_id"`
	TotalContacts int              `json:"total_contacts"`
	SuccessCount  int              `json:"success_count"`
	Attempts      []ContactAttempt `json:"attempts"`
}

// DoctorNotificationResult 通知家庭医生的结果
type DoctorNotificationResult struct {
	Success       bool   `json:"success"`
	Message       string `json:"message,omitempty"`
	DoctorName    string `json:"doctor_name,omitempty"`
	GatewayCallID string `json:"gateway_call_id,omitempty"`
}

// AmbulanceCallRequest 拨打急救的参数
type AmbulanceCallRequest struct {
	AmbulanceNumber string `json:"ambulance_number,omitempty"`
	IncidentNumber  string `json:"incident_number,omitempty"`
	DispatcherID    *uint  `json:"dispatcher_id,omitempty"`
}

// AmbulanceCallResult 拨打急救的结果
type AmbulanceCallResult struct {
	Success            bool   `json:"success"`
	NumberCalled       string `json:"number_called"`
	GatewayCallID      string `json:"gateway_call_id,omitempty"`
	IncidentNumber     string `json:"incident_number"`
	Address            string `json:"address,omitempty"`
	MedicationListText string `json:"medication_list_text"`
}

// InterfaceNotificationService defines the notification orchestrator interface
type InterfaceNotificationService interface {
	NotifyFamily(alertID uint, dispatcherID *uint) (*NotificationResult, error)
	NotifyDoctor(alertID uint, dispatcherID *uint) (*DoctorNotificationResult, error)
	CallAmbulance(alertID uint, req *AmbulanceCallRequest) (*AmbulanceCallResult, error)
}

// NotificationService 驱动家属/医生/急救通知步骤的编排服务
type NotificationService struct {
	Repo         repository.Repository
	Config       *config.Config
	Gateway      InterfaceTelephonyGateway
	AlertService InterfaceAlertService
}

// NewNotificationService 创建一个新的通知编排服务
func NewNotificationService(repo repository.Repository, cfg *config.Config, gateway InterfaceTelephonyGateway, alertService InterfaceAlertService) InterfaceNotificationService {
	return &NotificationService{
		Repo:         repo,
		Config:       cfg,
		Gateway:      gateway,
		AlertService: alertService,
	}
}

// 1 NotifyFamily 按优先级逐个通知紧急联系人
// 联系人个体失败不终止扫荡，所有联系人都会被尝试；每个联系人恰好追加一条审计记录
func (s *NotificationService) NotifyFamily(alertID uint, dispatcherID *uint) (*NotificationResult, error) {
	alert, err := s.AlertService.GetAlert(alertID)
	if err != nil {
		return nil, err
	}
	// 结案的警报在发起任何网关呼叫之前就拒绝，底层的版本比对仍是最终防线
	if alert.Status.IsTerminal() {
		return nil, ErrAlertTerminal
	}
	if alert.ClientID == nil {
		return nil, ErrClientNotFound
	}
	client, err := s.Repo.GetClient(*alert.ClientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}

	contacts, err := s.Repo.ListContactsByClient(client.ID)
	if err != nil {
		return nil, err
	}

	// 网关调用可以并发进行，审计追加与计数更新随后串行完成
	attempts := make([]ContactAttempt, len(contacts))
	sessionIDs := make([]string, len(contacts))
	var wg sync.WaitGroup
	for i := range contacts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			attempts[i], sessionIDs[i] = s.attemptContact(alert, client, &contacts[i])
		}(i)
	}
	wg.Wait()

	// 串行追加审计记录，每个联系人恰好一条
	now := time.Now()
	successCount := 0
	for i := range contacts {
		attempt := attempts[i]
		if attempt.Success {
			successCount++
		}

		actionType := models.ActionCallFamily
		if attempt.Channel == "sms" {
			actionType = models.ActionSmsFamily
		}
		action := &models.EmergencyChainAction{
			AlertID:       alertID,
			ActionType:    actionType,
			Timestamp:     now,
			DispatcherID:  dispatcherID,
			TargetName:    attempt.ContactName,
			TargetNumber:  attempt.Number,
			Result:        attempt.Result,
			GatewayCallID: sessionIDs[i],
		}
		if attempt.Channel == "none" {
			action.Notes = "Kein Kontaktweg hinterlegt"
		}
		if err := s.Repo.AppendAction(action); err != nil {
			return nil, err
		}

		// 成功发起的呼叫记入通话日志
		if attempt.Channel == "call" && attempt.Success {
			s.recordOutboundCall(sessionIDs[i], attempt.Number, dispatcherID, &client.ID, &alertID, &contacts[i].ID)
		}
	}

	// 推进响应链并更新聚合计数，计数取本次扫荡的值而非累计
	_, err = s.AlertService.MutateAlert(alertID, func(a *models.EmergencyAlert) error {
		if err := advanceChainStep(a, models.ChainStepContactingFamily); err != nil {
			return err
		}
		a.ContactsNotified = successCount > 0
		a.FamilyNotifiedTime = &now
		a.FamilyContactsNotified = successCount
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &NotificationResult{
		AlertID:       alertID,
		TotalContacts: len(contacts),
		SuccessCount:  successCount,
		Attempts:      attempts,
	}, nil
}

// attemptContact 尝试联系一个紧急联系人：优先短信，其次电话
// 没有可用渠道时也产生一条失败的尝试记录
func (s *NotificationService) attemptContact(alert *models.EmergencyAlert, client *models.CareClient, contact *models.EmergencyContact) (ContactAttempt, string) {
	attempt := ContactAttempt{
		ContactID:   contact.ID,
		ContactName: contact.Name,
	}

	if contact.NotifyBySMS && contact.MobilePhone != "" {
		attempt.Channel = "sms"
		attempt.Number = contact.MobilePhone
		text := fmt.Sprintf("Notruf: %s von %s. Bitte melden Sie sich umgehend bei der Hausnotrufzentrale.", alertTypeLabel(alert.AlertType), client.Name)
		if s.Gateway.SendSMS(s.Config.SMSSenderID, contact.MobilePhone, text) {
			attempt.Result = models.ResultSuccess
			attempt.Success = true
		} else {
			attempt.Result = models.ResultFailed
		}
		return attempt, ""
	}

	if contact.NotifyByCall && contact.BestCallNumber() != "" {
		attempt.Channel = "call"
		attempt.Number = contact.BestCallNumber()
		result := s.Gateway.InitiateCall(s.Config.DispatchExtension, attempt.Number)
		if result.Success {
			attempt.Result = models.ResultSuccess
			attempt.Success = true
		} else {
			attempt.Result = mapGatewayError(result.Error)
		}
		return attempt, result.SessionID
	}

	attempt.Channel = "none"
	attempt.Result = models.ResultFailed
	return attempt, ""
}

// 2 NotifyDoctor 通知客户的家庭医生
// 没有签约全科医生时不追加审计记录、不推进响应链，只返回说明
func (s *NotificationService) NotifyDoctor(alertID uint, dispatcherID *uint) (*DoctorNotificationResult, error) {
	alert, err := s.AlertService.GetAlert(alertID)
	if err != nil {
		return nil, err
	}
	if alert.Status.IsTerminal() {
		return nil, ErrAlertTerminal
	}
	if alert.ClientID == nil {
		return nil, ErrClientNotFound
	}

	providers, err := s.Repo.ListProvidersByClient(*alert.ClientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}

	// 取第一个全科/家庭医生
	var doctor *models.MedicalProvider
	for i := range providers {
		if providers[i].IsGeneralPractitioner() {
			doctor = &providers[i]
			break
		}
	}
	if doctor == nil {
		return &DoctorNotificationResult{
			Success: false,
			Message: "Kein Hausarzt hinterlegt",
		}, nil
	}

	callResult := s.Gateway.InitiateCall(s.Config.DispatchExtension, doctor.Phone)

	now := time.Now()
	result := models.ResultSuccess
	if !callResult.Success {
		result = mapGatewayError(callResult.Error)
	}
	action := &models.EmergencyChainAction{
		AlertID:       alertID,
		ActionType:    models.ActionCallDoctor,
		Timestamp:     now,
		DispatcherID:  dispatcherID,
		TargetName:    doctor.Name,
		TargetNumber:  doctor.Phone,
		Result:        result,
		GatewayCallID: callResult.SessionID,
	}
	if err := s.Repo.AppendAction(action); err != nil {
		return nil, err
	}

	_, err = s.AlertService.MutateAlert(alertID, func(a *models.EmergencyAlert) error {
		if err := advanceChainStep(a, models.ChainStepContactingDoctor); err != nil {
			return err
		}
		if callResult.Success {
			a.DoctorNotified = doctor.Name
			a.DoctorNotifiedTime = &now
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if callResult.Success {
		s.recordOutboundCall(callResult.SessionID, doctor.Phone, dispatcherID, alert.ClientID, &alertID, nil)
	}

	return &DoctorNotificationResult{
		Success:       callResult.Success,
		DoctorName:    doctor.Name,
		GatewayCallID: callResult.SessionID,
	}, nil
}

// 3 CallAmbulance 拨打急救并朗读用药清单
// 清单在呼叫当时渲染并作为审计快照保存，之后档案再改动也不回填
func (s *NotificationService) CallAmbulance(alertID uint, req *AmbulanceCallRequest) (*AmbulanceCallResult, error) {
	if req == nil {
		req = &AmbulanceCallRequest{}
	}

	alert, err := s.AlertService.GetAlert(alertID)
	if err != nil {
		return nil, err
	}
	if alert.Status.IsTerminal() {
		return nil, ErrAlertTerminal
	}
	if alert.ClientID == nil {
		return nil, ErrClientNotFound
	}
	client, err := s.Repo.GetClient(*alert.ClientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}

	medications, err := s.Repo.ListActiveMedications(client.ID)
	if err != nil {
		return nil, err
	}
	medicationText := models.RenderMedicationList(medications)
	address := client.FullAddress()

	number := req.AmbulanceNumber
	if number == "" {
		number = s.Config.EmergencyNumber
	}
	// 调度员没给事件编号时由系统分配，急救派遣必须有编号可引用
	incidentNumber := req.IncidentNumber
	if incidentNumber == "" {
		incidentNumber = utils.GenerateIncidentNumber()
	}

	callResult := s.Gateway.InitiateCall(s.Config.DispatchExtension, number)

	now := time.Now()
	result := models.ResultSuccess
	if !callResult.Success {
		result = mapGatewayError(callResult.Error)
	}
	notes := fmt.Sprintf("Einsatzadresse: %s\nEinsatznummer: %s", address, incidentNumber)
	action := &models.EmergencyChainAction{
		AlertID:        alertID,
		ActionType:     models.ActionCallAmbulance,
		Timestamp:      now,
		DispatcherID:   req.DispatcherID,
		TargetName:     "Rettungsdienst",
		TargetNumber:   number,
		Result:         result,
		Notes:          notes,
		MedicationList: medicationText,
		GatewayCallID:  callResult.SessionID,
	}
	if err := s.Repo.AppendAction(action); err != nil {
		return nil, err
	}

	_, err = s.AlertService.MutateAlert(alertID, func(a *models.EmergencyAlert) error {
		if err := advanceChainStep(a, models.ChainStepContactingAmbulance); err != nil {
			return err
		}
		a.AmbulanceCalled = true
		a.AmbulanceCalledTime = &now
		a.MedicationListProvided = true
		a.MedicationListTime = &now
		a.IncidentNumber = incidentNumber
		return nil
	})
	if err != nil {
		return nil, err
	}

	if callResult.Success {
		s.recordOutboundCall(callResult.SessionID, number, req.DispatcherID, &client.ID, &alertID, nil)
	}

	return &AmbulanceCallResult{
		Success:            callResult.Success,
		NumberCalled:       number,
		GatewayCallID:      callResult.SessionID,
		IncidentNumber:     incidentNumber,
		Address:            address,
		MedicationListText: medicationText,
	}, nil
}

// recordOutboundCall 为成功发起的呼叫创建通话日志，失败只记日志不中断编排
func (s *NotificationService) recordOutboundCall(sessionID, toNumber string, dispatcherID, clientID, alertID, contactID *uint) {
	if sessionID == "" {
		return
	}
	callLog := &models.CallLog{
		CallID:       sessionID,
		Direction:    models.CallDirectionOutbound,
		FromNumber:   s.Config.DispatchExtension,
		ToNumber:     toNumber,
		DispatcherID: dispatcherID,
		ClientID:     clientID,
		AlertID:      alertID,
		ContactID:    contactID,
		Status:       models.CallLogStatusRinging,
		StartTime:    time.Now(),
	}
	if err := s.Repo.CreateCallLog(callLog); err != nil {
		config.Error("创建通话日志失败: call_id=%s, err=%v", sessionID, err)
	}
}

// mapGatewayError 把网关错误串映射为审计结果
func mapGatewayError(gatewayError string) models.ActionResult {
	switch {
	case strings.Contains(gatewayError, "busy"):
		return models.ResultBusy
	case strings.Contains(gatewayError, "no_answer"), strings.Contains(gatewayError, "no-answer"):
		return models.ResultNoAnswer
	case strings.Contains(gatewayError, "voicemail"):
		return models.ResultVoicemail
	default:
		return models.ResultFailed
	}
}

// alertTypeLabel 警报类型的德语展示名（用于短信文案）
func alertTypeLabel(alertType models.AlertType) string {
	switch alertType {
	case models.AlertTypeFallDetection:
		return "Sturz erkannt"
	case models.AlertTypeManual:
		return "Notruf ausgelöst"
	case models.AlertTypeInactivity:
		return "Inaktivität erkannt"
	case models.AlertTypeMedical:
		return "Medizinischer Notfall"
	case models.AlertTypeFire:
		return "Brandalarm"
	case models.AlertTypeIncomingCall:
		return "Eingehender Notruf"
	default:
		return string(alertType)
	}
}

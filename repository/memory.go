package repository

import (
	"sort"
	"sync"
	"time"

	"carecall-http-service/models"
)

// MemoryRepository 内存存储实现，供测试和无数据库的演示模式使用
// 所有读写持锁进行，取出和写入都做拷贝，避免调用方共享内部状态
type MemoryRepository struct {
	mu sync.Mutex

	alerts      map[uint]*models.EmergencyAlert
	actions     []models.EmergencyChainAction
	callLogs    map[uint]*models.CallLog
	dispatchers map[uint]*models.Dispatcher
	clients     map[uint]*models.CareClient
	devices     map[uint]*models.CareDevice
	contacts    map[uint][]models.EmergencyContact
	providers   map[uint][]models.MedicalProvider
	medications map[uint][]models.Medication

	nextAlertID      uint
	nextActionID     uint
	nextCallLogID    uint
	nextDispatcherID uint
}

// NewMemoryRepository 创建新的内存存储
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		alerts:           make(map[uint]*models.EmergencyAlert),
		callLogs:         make(map[uint]*models.CallLog),
		dispatchers:      make(map[uint]*models.Dispatcher),
		clients:          make(map[uint]*models.CareClient),
		devices:          make(map[uint]*models.CareDevice),
		contacts:         make(map[uint][]models.EmergencyContact),
		providers:        make(map[uint][]models.MedicalProvider),
		medications:      make(map[uint][]models.Medication),
		nextAlertID:      1,
		nextActionID:     1,
		nextCallLogID:    1,
		nextDispatcherID: 1,
	}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func copyAlert(a *models.EmergencyAlert) *models.EmergencyAlert {
	c := *a
	c.AcknowledgedAt = copyTime(a.AcknowledgedAt)
	c.ResolvedAt = copyTime(a.ResolvedAt)
	c.FamilyNotifiedTime = copyTime(a.FamilyNotifiedTime)
	c.DoctorNotifiedTime = copyTime(a.DoctorNotifiedTime)
	c.AmbulanceCalledTime = copyTime(a.AmbulanceCalledTime)
	c.MedicationListTime = copyTime(a.MedicationListTime)
	c.ConferenceParticipants = append(models.StringList(nil), a.ConferenceParticipants...)
	c.Device = nil
	c.Client = nil
	c.ChainActions = nil
	return &c
}

func copyCallLog(l *models.CallLog) *models.CallLog {
	c := *l
	c.ConnectTime = copyTime(l.ConnectTime)
	c.EndTime = copyTime(l.EndTime)
	c.Dispatcher = nil
	c.Client = nil
	c.Alert = nil
	return &c
}

// ---------- Alerts ----------

// CreateAlert 创建警报记录
func (r *MemoryRepository) CreateAlert(alert *models.EmergencyAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if alert.ID == 0 {
		alert.ID = r.nextAlertID
		r.nextAlertID++
	}
	now := time.Now()
	alert.CreatedAt = now
	alert.UpdatedAt = now
	r.alerts[alert.ID] = copyAlert(alert)
	return nil
}

// GetAlert 根据ID获取警报
func (r *MemoryRepository) GetAlert(id uint) (*models.EmergencyAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	alert, ok := r.alerts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyAlert(alert), nil
}

// UpdateAlert 以版本比对写回警报
func (r *MemoryRepository) UpdateAlert(alert *models.EmergencyAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.alerts[alert.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != alert.Version {
		return ErrConflict
	}
	alert.Version++
	alert.UpdatedAt = time.Now()
	r.alerts[alert.ID] = copyAlert(alert)
	return nil
}

// ListAlerts 分页获取警报列表，按触发时间倒序
func (r *MemoryRepository) ListAlerts(page, pageSize int) ([]models.EmergencyAlert, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]models.EmergencyAlert, 0, len(r.alerts))
	for _, alert := range r.alerts {
		all = append(all, *copyAlert(alert))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].RaisedAt.After(all[j].RaisedAt) })

	total := int64(len(all))
	start := (page - 1) * pageSize
	if start >= len(all) {
		return []models.EmergencyAlert{}, total, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

// ---------- Chain actions ----------

// AppendAction 追加一条响应链审计记录
func (r *MemoryRepository) AppendAction(action *models.EmergencyChainAction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	action.ID = r.nextActionID
	r.nextActionID++
	action.CreatedAt = time.Now()
	r.actions = append(r.actions, *action)
	return nil
}

// ListActionsByAlert 按时间顺序返回警报的全部审计记录
func (r *MemoryRepository) ListActionsByAlert(alertID uint) ([]models.EmergencyChainAction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var actions []models.EmergencyChainAction
	for _, action := range r.actions {
		if action.AlertID == alertID {
			actions = append(actions, action)
		}
	}
	return actions, nil
}

// ---------- Call logs ----------

// CreateCallLog 创建通话记录
func (r *MemoryRepository) CreateCallLog(callLog *models.CallLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if callLog.ID == 0 {
		callLog.ID = r.nextCallLogID
		r.nextCallLogID++
	}
	now := time.Now()
	callLog.CreatedAt = now
	callLog.UpdatedAt = now
	r.callLogs[callLog.ID] = copyCallLog(callLog)
	return nil
}

// GetCallLog 根据ID获取通话记录
func (r *MemoryRepository) GetCallLog(id uint) (*models.CallLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	callLog, ok := r.callLogs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyCallLog(callLog), nil
}

// GetCallLogByCallID 根据网关通话标识获取通话记录
func (r *MemoryRepository) GetCallLogByCallID(callID string) (*models.CallLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, callLog := range r.callLogs {
		if callLog.CallID == callID {
			return copyCallLog(callLog), nil
		}
	}
	return nil, ErrNotFound
}

// UpdateCallLog 以版本比对写回通话记录
func (r *MemoryRepository) UpdateCallLog(callLog *models.CallLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.callLogs[callLog.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != callLog.Version {
		return ErrConflict
	}
	callLog.Version++
	callLog.UpdatedAt = time.Now()
	r.callLogs[callLog.ID] = copyCallLog(callLog)
	return nil
}

// ListCallLogs 分页获取通话记录，按开始时间倒序
func (r *MemoryRepository) ListCallLogs(page, pageSize int) ([]models.CallLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]models.CallLog, 0, len(r.callLogs))
	for _, callLog := range r.callLogs {
		all = append(all, *copyCallLog(callLog))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StartTime.After(all[j].StartTime) })

	total := int64(len(all))
	start := (page - 1) * pageSize
	if start >= len(all) {
		return []models.CallLog{}, total, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

// GetCallStatistics 统计通话情况
func (r *MemoryRepository) GetCallStatistics() (*CallStatistics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var statistics CallStatistics
	var connected, totalDuration int64
	for _, callLog := range r.callLogs {
		statistics.TotalCalls++
		if callLog.Direction == models.CallDirectionInbound {
			statistics.InboundCalls++
		} else {
			statistics.OutboundCalls++
		}
		if callLog.Status == models.CallLogStatusMissed {
			statistics.MissedCalls++
		}
		if callLog.ConnectTime != nil {
			connected++
			totalDuration += int64(callLog.Duration)
		}
	}
	if connected > 0 {
		statistics.AverageDuration = int(totalDuration / connected)
	}
	return &statistics, nil
}

// ---------- Dispatchers ----------

// CreateDispatcher 创建调度员
func (r *MemoryRepository) CreateDispatcher(dispatcher *models.Dispatcher) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if dispatcher.ID == 0 {
		dispatcher.ID = r.nextDispatcherID
		r.nextDispatcherID++
	}
	c := *dispatcher
	r.dispatchers[dispatcher.ID] = &c
	return nil
}

// GetDispatcher 根据ID获取调度员
func (r *MemoryRepository) GetDispatcher(id uint) (*models.Dispatcher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dispatcher, ok := r.dispatchers[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *dispatcher
	return &c, nil
}

// GetDispatcherByUsername 根据用户名获取调度员
func (r *MemoryRepository) GetDispatcherByUsername(username string) (*models.Dispatcher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, dispatcher := range r.dispatchers {
		if dispatcher.Username == username {
			c := *dispatcher
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

// ListDispatchers 获取全部调度员
func (r *MemoryRepository) ListDispatchers() ([]models.Dispatcher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]models.Dispatcher, 0, len(r.dispatchers))
	for _, dispatcher := range r.dispatchers {
		all = append(all, *dispatcher)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

// AdjustDispatcherCalls 原子调整调度员当前通话数，结果不小于0
func (r *MemoryRepository) AdjustDispatcherCalls(id uint, delta int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dispatcher, ok := r.dispatchers[id]
	if !ok {
		return 0, ErrNotFound
	}
	dispatcher.CurrentCallCount += delta
	if dispatcher.CurrentCallCount < 0 {
		dispatcher.CurrentCallCount = 0
	}
	return dispatcher.CurrentCallCount, nil
}

// IncrementTotalCalls 累加调度员已处理通话总数
func (r *MemoryRepository) IncrementTotalCalls(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	dispatcher, ok := r.dispatchers[id]
	if !ok {
		return ErrNotFound
	}
	dispatcher.TotalCallsHandled++
	return nil
}

// UpdateDispatcherStatus 更新调度员状态与可用标记
func (r *MemoryRepository) UpdateDispatcherStatus(id uint, status models.DispatcherStatus, available bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	dispatcher, ok := r.dispatchers[id]
	if !ok {
		return ErrNotFound
	}
	dispatcher.Status = status
	dispatcher.Available = available
	return nil
}

// ---------- Directory ----------

// AddClient 写入客户档案（测试与演示数据装载用）
func (r *MemoryRepository) AddClient(client *models.CareClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *client
	r.clients[client.ID] = &c
	if len(client.Providers) > 0 {
		r.providers[client.ID] = append([]models.MedicalProvider(nil), client.Providers...)
	}
}

// AddDevice 写入设备档案
func (r *MemoryRepository) AddDevice(device *models.CareDevice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *device
	r.devices[device.ID] = &c
}

// AddContact 写入紧急联系人
func (r *MemoryRepository) AddContact(contact models.EmergencyContact) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contacts[contact.ClientID] = append(r.contacts[contact.ClientID], contact)
}

// AddProvider 写入客户签约的医疗服务提供者
func (r *MemoryRepository) AddProvider(clientID uint, provider models.MedicalProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[clientID] = append(r.providers[clientID], provider)
}

// AddMedication 写入用药记录
func (r *MemoryRepository) AddMedication(medication models.Medication) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.medications[medication.ClientID] = append(r.medications[medication.ClientID], medication)
}

// GetClient 根据ID获取客户档案
func (r *MemoryRepository) GetClient(id uint) (*models.CareClient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.clients[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *client
	c.Providers = append([]models.MedicalProvider(nil), r.providers[id]...)
	return &c, nil
}

// GetDevice 根据ID获取设备
func (r *MemoryRepository) GetDevice(id uint) (*models.CareDevice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	device, ok := r.devices[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *device
	return &c, nil
}

// FindDeviceByPhone 按注册号码反查设备，多台共享号码时取ID最小的一台
func (r *MemoryRepository) FindDeviceByPhone(number string) (*models.CareDevice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var found *models.CareDevice
	for _, device := range r.devices {
		if device.PhoneNumber != number {
			continue
		}
		if found == nil || device.ID < found.ID {
			found = device
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	c := *found
	return &c, nil
}

// ListContactsByClient 返回紧急联系人，按优先级升序
func (r *MemoryRepository) ListContactsByClient(clientID uint) ([]models.EmergencyContact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contacts := append([]models.EmergencyContact(nil), r.contacts[clientID]...)
	sort.Slice(contacts, func(i, j int) bool {
		if contacts[i].Priority != contacts[j].Priority {
			return contacts[i].Priority < contacts[j].Priority
		}
		return contacts[i].ID < contacts[j].ID
	})
	return contacts, nil
}

// ListProvidersByClient 返回客户签约的医疗服务提供者
func (r *MemoryRepository) ListProvidersByClient(clientID uint) ([]models.MedicalProvider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[clientID]; !ok {
		return nil, ErrNotFound
	}
	return append([]models.MedicalProvider(nil), r.providers[clientID]...), nil
}

// ListActiveMedications 返回在用药物，按优先级升序
func (r *MemoryRepository) ListActiveMedications(clientID uint) ([]models.Medication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var medications []models.Medication
	for _, medication := range r.medications[clientID] {
		if medication.Active {
			medications = append(medications, medication)
		}
	}
	sort.Slice(medications, func(i, j int) bool {
		if medications[i].Priority != medications[j].Priority {
			return medications[i].Priority < medications[j].Priority
		}
		return medications[i].ID < medications[j].ID
	})
	return medications, nil
}

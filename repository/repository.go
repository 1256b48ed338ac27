package repository

import (
	"errors"

	"carecall-http-service/models"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("record not found")
	// ErrConflict 乐观锁版本冲突，调用方需要重读后重试
	ErrConflict = errors.New("version conflict")
)

// CallStatistics 通话统计信息
type CallStatistics struct {
	TotalCalls      int64 `json:"total_calls"`
	InboundCalls    int64 `json:"inbound_calls"`
	OutboundCalls   int64 `json:"outbound_calls"`
	MissedCalls     int64 `json:"missed_calls"`
	AverageDuration int   `json:"average_duration"` // 秒
}

// AlertRepository 警报记录的读写
// UpdateAlert 以版本号做比对交换，丢失写竞争时返回 ErrConflict
type AlertRepository interface {
	CreateAlert(alert *models.EmergencyAlert) error
	GetAlert(id uint) (*models.EmergencyAlert, error)
	UpdateAlert(alert *models.EmergencyAlert) error
	ListAlerts(page, pageSize int) ([]models.EmergencyAlert, int64, error)
}

// ActionRepository 响应链审计记录，只追加
type ActionRepository interface {
	AppendAction(action *models.EmergencyChainAction) error
	ListActionsByAlert(alertID uint) ([]models.EmergencyChainAction, error)
}

// CallLogRepository 通话记录的读写
// UpdateCallLog 以版本号做比对交换，丢失写竞争时返回 ErrConflict
type CallLogRepository interface {
	CreateCallLog(callLog *models.CallLog) error
	GetCallLog(id uint) (*models.CallLog, error)
	GetCallLogByCallID(callID string) (*models.CallLog, error)
	UpdateCallLog(callLog *models.CallLog) error
	ListCallLogs(page, pageSize int) ([]models.CallLog, int64, error)
	GetCallStatistics() (*CallStatistics, error)
}

// DispatcherRepository 调度员记录与在线状态计数
type DispatcherRepository interface {
	CreateDispatcher(dispatcher *models.Dispatcher) error
	GetDispatcher(id uint) (*models.Dispatcher, error)
	GetDispatcherByUsername(username string) (*models.Dispatcher, error)
	ListDispatchers() ([]models.Dispatcher, error)
	// AdjustDispatcherCalls 原子调整当前通话数（结果不小于0），返回调整后的值
	AdjustDispatcherCalls(id uint, delta int) (int, error)
	// IncrementTotalCalls 累加已处理通话总数
	IncrementTotalCalls(id uint) error
	UpdateDispatcherStatus(id uint, status models.DispatcherStatus, available bool) error
}

// DirectoryRepository 客户档案目录，对核心只读
type DirectoryRepository interface {
	GetClient(id uint) (*models.CareClient, error)
	GetDevice(id uint) (*models.CareDevice, error)
	// FindDeviceByPhone 按注册号码反查设备，多台设备共享号码时取ID最小的一台
	FindDeviceByPhone(number string) (*models.CareDevice, error)
	// ListContactsByClient 返回紧急联系人，按Priority升序
	ListContactsByClient(clientID uint) ([]models.EmergencyContact, error)
	// ListProvidersByClient 返回客户签约的医疗服务提供者
	ListProvidersByClient(clientID uint) ([]models.MedicalProvider, error)
	// ListActiveMedications 返回在用药物，按Priority升序
	ListActiveMedications(clientID uint) ([]models.Medication, error)
}

// Repository 聚合所有存储端口，服务层只依赖该接口
type Repository interface {
	AlertRepository
	ActionRepository
	CallLogRepository
	DispatcherRepository
	DirectoryRepository
}

package repository

import (
	"errors"

	"carecall-http-service/models"

	"gorm.io/gorm"
)

// GormRepository 基于GORM/MySQL的存储实现
type GormRepository struct {
	DB *gorm.DB
}

// NewGormRepository 创建新的GORM存储
func NewGormRepository(db *gorm.DB) Repository {
	return &GormRepository{DB: db}
}

// ---------- Alerts ----------

// CreateAlert 创建警报记录
func (r *GormRepository) CreateAlert(alert *models.EmergencyAlert) error {
	return r.DB.Create(alert).Error
}

// GetAlert 根据ID获取警报
func (r *GormRepository) GetAlert(id uint) (*models.EmergencyAlert, error) {
	var alert models.EmergencyAlert
	if err := r.DB.Preload("Device").Preload("Client").First(&alert, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &alert, nil
}

// UpdateAlert 以版本比对写回警报，版本不匹配时返回 ErrConflict
func (r *GormRepository) UpdateAlert(alert *models.EmergencyAlert) error {
	currentVersion := alert.Version
	alert.Version = currentVersion + 1

	result := r.DB.Model(&models.EmergencyAlert{}).
		Where("id = ? AND version = ?", alert.ID, currentVersion).
		Select("*").Omit("id", "created_at").
		Updates(alert)
	if result.Error != nil {
		alert.Version = currentVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		alert.Version = currentVersion
		return ErrConflict
	}
	return nil
}

// ListAlerts 分页获取警报列表，按触发时间倒序
func (r *GormRepository) ListAlerts(page, pageSize int) ([]models.EmergencyAlert, int64, error) {
	var alerts []models.EmergencyAlert
	var total int64

	// 获取总数
	if err := r.DB.Model(&models.EmergencyAlert{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 分页查询，并预加载关联
	offset := (page - 1) * pageSize
	if err := r.DB.Preload("Device").Preload("Client").
		Order("raised_at DESC").
		Limit(pageSize).Offset(offset).
		Find(&alerts).Error; err != nil {
		return nil, 0, err
	}

	return alerts, total, nil
}

// ---------- Chain actions ----------

// AppendAction 追加一条响应链审计记录
func (r *GormRepository) AppendAction(action *models.EmergencyChainAction) error {
	return r.DB.Create(action).Error
}

// ListActionsByAlert 按时间顺序返回警报的全部审计记录
func (r *GormRepository) ListActionsByAlert(alertID uint) ([]models.EmergencyChainAction, error) {
	var actions []models.EmergencyChainAction
	if err := r.DB.Where("alert_id = ?", alertID).
		Order("timestamp ASC, id ASC").
		Find(&actions).Error; err != nil {
		return nil, err
	}
	return actions, nil
}

// ---------- Call logs ----------

// CreateCallLog 创建通话记录
func (r *GormRepository) CreateCallLog(callLog *models.CallLog) error {
	return r.DB.Create(callLog).Error
}

// GetCallLog 根据ID获取通话记录
func (r *GormRepository) GetCallLog(id uint) (*models.CallLog, error) {
	var callLog models.CallLog
	if err := r.DB.Preload("Dispatcher").Preload("Client").First(&callLog, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &callLog, nil
}

// GetCallLogByCallID 根据网关通话标识获取通话记录
func (r *GormRepository) GetCallLogByCallID(callID string) (*models.CallLog, error) {
	var callLog models.CallLog
	if err := r.DB.Where("call_id = ?", callID).First(&callLog).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &callLog, nil
}

// UpdateCallLog 以版本比对写回通话记录
func (r *GormRepository) UpdateCallLog(callLog *models.CallLog) error {
	currentVersion := callLog.Version
	callLog.Version = currentVersion + 1

	result := r.DB.Model(&models.CallLog{}).
		Where("id = ? AND version = ?", callLog.ID, currentVersion).
		Select("*").Omit("id", "created_at").
		Updates(callLog)
	if result.Error != nil {
		callLog.Version = currentVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		callLog.Version = currentVersion
		return ErrConflict
	}
	return nil
}

// ListCallLogs 分页获取通话记录，按开始时间倒序
func (r *GormRepository) ListCallLogs(page, pageSize int) ([]models.CallLog, int64, error) {
	var callLogs []models.CallLog
	var total int64

	if err := r.DB.Model(&models.CallLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := r.DB.Preload("Dispatcher").Preload("Client").
		Order("start_time DESC").
		Limit(pageSize).Offset(offset).
		Find(&callLogs).Error; err != nil {
		return nil, 0, err
	}

	return callLogs, total, nil
}

// GetCallStatistics 统计通话情况
func (r *GormRepository) GetCallStatistics() (*CallStatistics, error) {
	var statistics CallStatistics

	if err := r.DB.Model(&models.CallLog{}).Count(&statistics.TotalCalls).Error; err != nil {
		return nil, err
	}
	if err := r.DB.Model(&models.CallLog{}).
		Where("direction = ?", models.CallDirectionInbound).
		Count(&statistics.InboundCalls).Error; err != nil {
		return nil, err
	}
	if err := r.DB.Model(&models.CallLog{}).
		Where("direction = ?", models.CallDirectionOutbound).
		Count(&statistics.OutboundCalls).Error; err != nil {
		return nil, err
	}
	if err := r.DB.Model(&models.CallLog{}).
		Where("status = ?", models.CallLogStatusMissed).
		Count(&statistics.MissedCalls).Error; err != nil {
		return nil, err
	}

	// 计算已接通话的平均时长
	var connected int64
	if err := r.DB.Model(&models.CallLog{}).
		Where("connect_time IS NOT NULL").
		Count(&connected).Error; err != nil {
		return nil, err
	}
	if connected > 0 {
		var result struct {
			TotalDuration int64
		}
		if err := r.DB.Model(&models.CallLog{}).
			Where("connect_time IS NOT NULL").
			Select("sum(duration) as total_duration").
			Scan(&result).Error; err != nil {
			return nil, err
		}
		statistics.AverageDuration = int(result.TotalDuration / connected)
	}

	return &statistics, nil
}

// ---------- Dispatchers ----------

// CreateDispatcher 创建调度员
func (r *GormRepository) CreateDispatcher(dispatcher *models.Dispatcher) error {
	return r.DB.Create(dispatcher).Error
}

// GetDispatcher 根据ID获取调度员
func (r *GormRepository) GetDispatcher(id uint) (*models.Dispatcher, error) {
	var dispatcher models.Dispatcher
	if err := r.DB.First(&dispatcher, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &dispatcher, nil
}

// GetDispatcherByUsername 根据用户名获取调度员
func (r *GormRepository) GetDispatcherByUsername(username string) (*models.Dispatcher, error) {
	var dispatcher models.Dispatcher
	if err := r.DB.Where("username = ?", username).First(&dispatcher).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &dispatcher, nil
}

// ListDispatchers 获取全部调度员
func (r *GormRepository) ListDispatchers() ([]models.Dispatcher, error) {
	var dispatchers []models.Dispatcher
	if err := r.DB.Order("id ASC").Find(&dispatchers).Error; err != nil {
		return nil, err
	}
	return dispatchers, nil
}

// AdjustDispatcherCalls 原子调整调度员当前通话数，结果不小于0
func (r *GormRepository) AdjustDispatcherCalls(id uint, delta int) (int, error) {
	result := r.DB.Model(&models.Dispatcher{}).
		Where("id = ?", id).
		Update("current_call_count", gorm.Expr("GREATEST(current_call_count + ?, 0)", delta))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, ErrNotFound
	}

	dispatcher, err := r.GetDispatcher(id)
	if err != nil {
		return 0, err
	}
	return dispatcher.CurrentCallCount, nil
}

// IncrementTotalCalls 累加调度员已处理通话总数
func (r *GormRepository) IncrementTotalCalls(id uint) error {
	result := r.DB.Model(&models.Dispatcher{}).
		Where("id = ?", id).
		Update("total_calls_handled", gorm.Expr("total_calls_handled + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateDispatcherStatus 更新调度员状态与可用标记
func (r *GormRepository) UpdateDispatcherStatus(id uint, status models.DispatcherStatus, available bool) error {
	result := r.DB.Model(&models.Dispatcher{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":    status,
			"available": available,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ---------- Directory ----------

// GetClient 根据ID获取客户档案
func (r *GormRepository) GetClient(id uint) (*models.CareClient, error) {
	var client models.CareClient
	if err := r.DB.Preload("Providers").First(&client, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &client, nil
}

// GetDevice 根据ID获取设备
func (r *GormRepository) GetDevice(id uint) (*models.CareDevice, error) {
	var device models.CareDevice
	if err := r.DB.First(&device, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &device, nil
}

// FindDeviceByPhone 按注册号码反查设备，多台共享号码时取ID最小的一台
func (r *GormRepository) FindDeviceByPhone(number string) (*models.CareDevice, error) {
	var device models.CareDevice
	if err := r.DB.Where("phone_number = ?", number).
		Order("id ASC").
		First(&device).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &device, nil
}

// ListContactsByClient 返回客户的紧急联系人，按优先级升序
func (r *GormRepository) ListContactsByClient(clientID uint) ([]models.EmergencyContact, error) {
	var contacts []models.EmergencyContact
	if err := r.DB.Where("client_id = ?", clientID).
		Order("priority ASC, id ASC").
		Find(&contacts).Error; err != nil {
		return nil, err
	}
	return contacts, nil
}

// ListProvidersByClient 返回客户签约的医疗服务提供者
func (r *GormRepository) ListProvidersByClient(clientID uint) ([]models.MedicalProvider, error) {
	client, err := r.GetClient(clientID)
	if err != nil {
		return nil, err
	}
	return client.Providers, nil
}

// ListActiveMedications 返回客户在用药物，按优先级升序
func (r *GormRepository) ListActiveMedications(clientID uint) ([]models.Medication, error) {
	var medications []models.Medication
	if err := r.DB.Where("client_id = ? AND active = ?", clientID, true).
		Order("priority ASC, id ASC").
		Find(&medications).Error; err != nil {
		return nil, err
	}
	return medications, nil
}

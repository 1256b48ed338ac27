package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// AlertType represents what raised an emergency alert
type AlertType string

const (
	AlertTypeFallDetection AlertType = "fall_detection"
	AlertTypeManual        AlertType = "manual"
	AlertTypeInactivity    AlertType = "inactivity"
	AlertTypeMedical       AlertType = "medical"
	AlertTypeFire          AlertType = "fire"
	AlertTypeIncomingCall  AlertType = "incoming_call"
)

// AlertPriority represents the urgency of an alert
type AlertPriority string

const (
	AlertPriorityCritical AlertPriority = "critical"
	AlertPriorityHigh     AlertPriority = "high"
	AlertPriorityMedium   AlertPriority = "medium"
	AlertPriorityLow      AlertPriority = "low"
)

// AlertStatus represents the lifecycle status of an alert
type AlertStatus string

const (
	AlertStatusNew          AlertStatus = "new"
	AlertStatusAcknowledged AlertStatus = "acknowledged"
	AlertStatusInProgress   AlertStatus = "in_progress"
	AlertStatusResolved     AlertStatus = "resolved"
	AlertStatusEscalated    AlertStatus = "escalated"
	AlertStatusCancelled    AlertStatus = "cancelled"
)

// IsTerminal 判断警报状态是否为终态
func (s AlertStatus) IsTerminal() bool {
	switch s {
	case AlertStatusResolved, AlertStatusEscalated, AlertStatusCancelled:
		return true
	default:
		return false
	}
}

// ChainStep 紧急响应链所处的步骤
type ChainStep string

const (
	ChainStepInitial             ChainStep = "initial"
	ChainStepContactingFamily    ChainStep = "contacting_family"
	ChainStepContactingDoctor    ChainStep = "contacting_doctor"
	ChainStepContactingAmbulance ChainStep = "contacting_ambulance"
	ChainStepInConference        ChainStep = "in_conference"
	ChainStepResolved            ChainStep = "resolved"
)

// 响应链步骤的固定顺序，只允许前进，不允许回退
var chainStepOrder = map[ChainStep]int{
	ChainStepInitial:             0,
	ChainStepContactingFamily:    1,
	ChainStepContactingDoctor:    2,
	ChainStepContactingAmbulance: 3,
	ChainStepInConference:        4,
	ChainStepResolved:            5,
}

// Order 返回步骤在响应链中的序号，未知步骤返回-1
func (s ChainStep) Order() int {
	if order, ok := chainStepOrder[s]; ok {
		return order
	}
	return -1
}

// CanAdvanceTo 判断是否允许从当前步骤推进到目标步骤
// 强制结案（Resolved）允许从任何步骤跳转
func (s ChainStep) CanAdvanceTo(target ChainStep) bool {
	if target == ChainStepResolved {
		return true
	}
	return target.Order() >= s.Order()
}

// StringList 以JSON形式存储的字符串列表（用于会议参与人名单）
type StringList []string

// Value 实现 driver.Valuer 接口
func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现 sql.Scanner 接口
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return errors.New("unsupported type for StringList")
	}
}

// EmergencyAlert 表示一次被触发的紧急警报（Hausnotruf事件）
// 记录只追加、只通过响应链操作推进，从不物理删除
type EmergencyAlert struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	AlertType AlertType     `gorm:"type:varchar(30);not null" json:"alert_type"`
	Priority  AlertPriority `gorm:"type:varchar(20);not null" json:"priority"`
	Status    AlertStatus   `gorm:"type:varchar(20);not null;default:'new'" json:"status"`
	ChainStep ChainStep     `gorm:"type:varchar(30);not null;default:'initial'" json:"chain_step"`

	DeviceID     *uint  `json:"device_id,omitempty"`
	ClientID     *uint  `json:"client_id,omitempty"`
	CallerNumber string `gorm:"type:varchar(30)" json:"caller_number,omitempty"`

	// 可选的位置信息与生命体征
	Location  string   `gorm:"type:varchar(200)" json:"location,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	HeartRate *int     `json:"heart_rate,omitempty"`

	RaisedAt         time.Time  `json:"raised_at"`
	AcknowledgedAt   *time.Time `json:"acknowledged_at,omitempty"`
	AcknowledgedByID *uint      `json:"acknowledged_by_id,omitempty"`
	ResolvedAt       *time.Time `json:"resolved_at,omitempty"`
	ResolvedByID     *uint      `json:"resolved_by_id,omitempty"`
	ResolutionCode   string     `gorm:"type:varchar(50)" json:"resolution_code,omitempty"`
	Notes            string     `gorm:"type:text" json:"notes,omitempty"`

	// 响应链各步骤的标记与时间戳
	ContactsNotified       bool       `json:"contacts_notified"`
	FamilyNotifiedTime     *time.Time `json:"family_notified_time,omitempty"`
	FamilyContactsNotified int        `json:"family_contacts_notified"`
	DoctorNotified         string     `gorm:"type:varchar(100)" json:"doctor_notified,omitempty"`
	DoctorNotifiedTime     *time.Time `json:"doctor_notified_time,omitempty"`
	AmbulanceCalled        bool       `json:"ambulance_called"`
	AmbulanceCalledTime    *time.Time `json:"ambulance_called_time,omitempty"`
	IncidentNumber         string     `gorm:"type:varchar(50)" json:"incident_number,omitempty"`
	MedicationListProvided bool       `json:"medication_list_provided"`
	MedicationListTime     *time.Time `json:"medication_list_time,omitempty"`

	// 会议桥接状态
	ConferenceActive       bool       `json:"conference_active"`
	ConferenceParticipants StringList `gorm:"type:text" json:"conference_participants,omitempty"`

	// 乐观锁版本号，读-改-写通过版本比对串行化
	Version int `gorm:"not null;default:0" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Device       *CareDevice            `gorm:"foreignKey:DeviceID" json:"device,omitempty"`
	Client       *CareClient            `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	ChainActions []EmergencyChainAction `gorm:"foreignKey:AlertID" json:"chain_actions,omitempty"`
}

package models

import (
	"time"
)

// DispatcherStatus represents the live status of a dispatcher
type DispatcherStatus string

const (
	DispatcherStatusOffline DispatcherStatus = "offline"
	DispatcherStatusOnline  DispatcherStatus = "online"
	DispatcherStatusOnCall  DispatcherStatus = "on_call"
	DispatcherStatusBreak   DispatcherStatus = "break"
	DispatcherStatusAway    DispatcherStatus = "away"
)

// DispatcherRole 调度员角色
type DispatcherRole string

const (
	DispatcherRoleAdmin      DispatcherRole = "admin"
	DispatcherRoleDispatcher DispatcherRole = "dispatcher"
)

// Dispatcher 呼叫中心调度员，状态只由通话会话跟踪器和心跳动作修改
type Dispatcher struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"type:varchar(50);not null" json:"name"`
	Username  string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Password  string         `gorm:"type:varchar(100);not null" json:"-"`
	Phone     string         `gorm:"type:varchar(30)" json:"phone,omitempty"`
	Extension string         `gorm:"type:varchar(10)" json:"extension,omitempty"` // 分机号
	Role      DispatcherRole `gorm:"type:varchar(20);not null;default:'dispatcher'" json:"role"`

	Status            DispatcherStatus `gorm:"type:varchar(20);not null;default:'offline'" json:"status"`
	Available         bool             `json:"available"`
	CurrentCallCount  int              `gorm:"not null;default:0" json:"current_call_count"`
	TotalCallsHandled int              `gorm:"not null;default:0" json:"total_calls_handled"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

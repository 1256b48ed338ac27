package models

import (
	"time"
)

// CallDirection represents whether a call is inbound or outbound
type CallDirection string

const (
	CallDirectionInbound  CallDirection = "inbound"
	CallDirectionOutbound CallDirection = "outbound"
)

// CallLogStatus represents the status of a telephony session
type CallLogStatus string

const (
	CallLogStatusRinging   CallLogStatus = "ringing"
	CallLogStatusConnected CallLogStatus = "connected"
	CallLogStatusOnHold    CallLogStatus = "on_hold"
	CallLogStatusEnded     CallLogStatus = "ended"
	CallLogStatusMissed    CallLogStatus = "missed"
)

// IsTerminal 判断通话状态是否为终态
func (s CallLogStatus) IsTerminal() bool {
	return s == CallLogStatusEnded || s == CallLogStatusMissed
}

// CallLog 一次话务会话的生命周期记录，每通电话一行
type CallLog struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	CallID    string        `gorm:"type:varchar(100);uniqueIndex;not null" json:"call_id"` // 网关通话唯一标识
	Direction CallDirection `gorm:"type:varchar(10);not null" json:"direction"`

	FromNumber string `gorm:"type:varchar(30)" json:"from_number"`
	ToNumber   string `gorm:"type:varchar(30)" json:"to_number"`

	DispatcherID *uint `json:"dispatcher_id,omitempty"`
	ClientID     *uint `json:"client_id,omitempty"`
	AlertID      *uint `json:"alert_id,omitempty"`
	ContactID    *uint `json:"contact_id,omitempty"`

	Status      CallLogStatus `gorm:"type:varchar(20);not null;default:'ringing'" json:"status"`
	StartTime   time.Time     `json:"start_time"`
	ConnectTime *time.Time    `json:"connect_time,omitempty"`
	EndTime     *time.Time    `json:"end_time,omitempty"`
	Duration    int           `json:"duration"` // 秒，从接通到挂断；从未接通则为0
	EndReason   string        `gorm:"type:varchar(50)" json:"end_reason,omitempty"`

	Muted              bool       `json:"muted"`
	Recording          bool       `json:"recording"`
	RecordingStartTime *time.Time `json:"recording_start_time,omitempty"`
	RecordingDuration  int        `json:"recording_duration"` // 秒，多段录音累加
	Escalated          bool       `json:"escalated"`
	FollowUpRequired   bool       `json:"follow_up_required"`

	// 乐观锁版本号
	Version int `gorm:"not null;default:0" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Dispatcher *Dispatcher     `gorm:"foreignKey:DispatcherID" json:"dispatcher,omitempty"`
	Client     *CareClient     `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Alert      *EmergencyAlert `gorm:"foreignKey:AlertID" json:"alert,omitempty"`
}

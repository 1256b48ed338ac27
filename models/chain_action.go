package models

import (
	"time"
)

// ChainActionType represents one kind of emergency chain step attempt
type ChainActionType string

const (
	ActionSmsFamily       ChainActionType = "sms_family"
	ActionCallFamily      ChainActionType = "call_family"
	ActionCallDoctor      ChainActionType = "call_doctor"
	ActionCallAmbulance   ChainActionType = "call_ambulance"
	ActionStartConference ChainActionType = "start_conference"
	ActionAddToConference ChainActionType = "add_to_conference"
	ActionEndConference   ChainActionType = "end_conference"
)

// ActionResult represents the outcome of one chain step attempt
type ActionResult string

const (
	ResultSuccess   ActionResult = "success"
	ResultNoAnswer  ActionResult = "no_answer"
	ResultBusy      ActionResult = "busy"
	ResultFailed    ActionResult = "failed"
	ResultVoicemail ActionResult = "voicemail"
)

// EmergencyChainAction 响应链审计记录，每次步骤尝试写入一条
// 只追加，从不更新
type EmergencyChainAction struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	AlertID      uint            `gorm:"index;not null" json:"alert_id"`
	ActionType   ChainActionType `gorm:"type:varchar(30);not null" json:"action_type"`
	Timestamp    time.Time       `json:"timestamp"`
	DispatcherID *uint           `json:"dispatcher_id,omitempty"`
	TargetName   string          `gorm:"type:varchar(100)" json:"target_name,omitempty"`
	TargetNumber string          `gorm:"type:varchar(30)" json:"target_number,omitempty"`
	Result       ActionResult    `gorm:"type:varchar(20);not null" json:"result"`
	Duration     int             `json:"duration"` // 秒
	Notes        string          `gorm:"type:text" json:"notes,omitempty"`

	// 拨打急救时朗读的用药清单快照，仅在呼叫当时采集，之后不再重算
	MedicationList string `gorm:"type:text" json:"medication_list,omitempty"`

	// 网关通话标识（如适用）
	GatewayCallID string `gorm:"type:varchar(100)" json:"gateway_call_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	Alert      *EmergencyAlert `gorm:"foreignKey:AlertID" json:"alert,omitempty"`
	Dispatcher *Dispatcher     `gorm:"foreignKey:DispatcherID" json:"dispatcher,omitempty"`
}

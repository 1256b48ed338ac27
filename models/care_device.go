package models

import (
	"time"
)

// DeviceType represents the kind of home emergency device
type DeviceType string

const (
	DeviceTypeCallButton  DeviceType = "call_button"
	DeviceTypeWearable    DeviceType = "wearable"
	DeviceTypeBaseStation DeviceType = "base_station"
	DeviceTypeSmokeSensor DeviceType = "smoke_sensor"
)

// DeviceStatus represents the status of a home emergency device
type DeviceStatus string

const (
	DeviceStatusOnline     DeviceStatus = "online"
	DeviceStatusOffline    DeviceStatus = "offline"
	DeviceStatusLowBattery DeviceStatus = "low_battery"
	DeviceStatusFault      DeviceStatus = "fault"
)

// CareDevice 客户家中的紧急呼叫设备（按钮/手环/基站）
type CareDevice struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	SerialNumber string     `gorm:"type:varchar(50);unique;not null" json:"serial_number"`
	Type         DeviceType `gorm:"type:varchar(20);not null" json:"type"`

	// 设备内置SIM卡注册的电话号码，来电时反查客户使用
	PhoneNumber string `gorm:"type:varchar(30);index" json:"phone_number,omitempty"`

	ClientID     *uint        `json:"client_id,omitempty"`
	Status       DeviceStatus `gorm:"type:varchar(20);default:'offline'" json:"status"`
	BatteryLevel int          `json:"battery_level"`
	LastSeenAt   *time.Time   `json:"last_seen_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Client *CareClient `gorm:"foreignKey:ClientID" json:"client,omitempty"`
}

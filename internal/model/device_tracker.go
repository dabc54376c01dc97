package model

import "time"

// DeviceTracker is one disposal/reuse action. Rows are append-only and never
// updated; total_devices on UserTracker equals the count of these rows.
type DeviceTracker struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	DeviceName string    `gorm:"size:255;not null" json:"device_name"`
	DeviceCO2  int64     `gorm:"not null;default:0" json:"device_co2"`
	DeviceKWh  int64     `gorm:"not null;default:0" json:"device_kwh"`
	CreatedAt  time.Time `json:"created_at"`
}

package model

import "time"

// UserTracker holds one user's running environmental totals. One row per user,
// created lazily on the first recorded disposal. Accumulators only ever grow.
type UserTracker struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	TotalDevices int64     `gorm:"not null;default:0" json:"total_devices"`
	TotalCO2     int64     `gorm:"not null;default:0" json:"total_co2"`
	TotalKWh     int64     `gorm:"not null;default:0" json:"total_kwh"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

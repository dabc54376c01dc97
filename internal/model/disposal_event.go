package model

import "time"

// DisposalEvent is published after a disposal commits, for consumers outside
// the tracker transaction (community stats today).
type DisposalEvent struct {
	UserID     uint      `json:"user_id"`
	DeviceName string    `json:"device_name"`
	DeviceCO2  int64     `json:"device_co2"`
	DeviceKWh  int64     `json:"device_kwh"`
	RecordedAt time.Time `json:"recorded_at"`
}

package model

// TrackerSummary is one user's totals plus recent history, as served by
// GET /tracker/ and cached in redis.
type TrackerSummary struct {
	TotalDevices int64           `json:"total_devices"`
	TotalCO2     int64           `json:"total_co2"`
	TotalKWh     int64           `json:"total_kwh"`
	Devices      []DeviceTracker `json:"devices"`
}

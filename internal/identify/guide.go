package identify

import (
	"context"
	"errors"
)

// SentinelNoDevice is the reserved classification meaning the image contained
// no recognizable electronic device. It must never reach the tracker tables.
const SentinelNoDevice = "No Device Detected"

var (
	ErrInvalidImageFormat = errors.New("invalid image format")
	ErrServiceUnavailable = errors.New("classification service unavailable")
	ErrBadRequest         = errors.New("classification request rejected")
	ErrUnknownService     = errors.New("classification service error")
)

// DeviceGuide is the structured result of classifying one uploaded image:
// the identified device plus its e-waste guidance and impact estimates.
type DeviceGuide struct {
	DeviceName   string `json:"device_name"`
	DeviceCO2    int64  `json:"device_co2"`
	DeviceKWh    int64  `json:"device_kwh"`
	DisposalInfo string `json:"disposal_info"`
	ReuseIdeas   string `json:"reuse_ideas"`
	FullResponse string `json:"full_response,omitempty"`
}

func (g DeviceGuide) IsSentinel() bool {
	return g.DeviceName == SentinelNoDevice
}

// sentinelGuide carries only the sentinel name; all other fields stay zero so
// nothing downstream can persist guidance for a non-device.
func sentinelGuide() DeviceGuide {
	return DeviceGuide{DeviceName: SentinelNoDevice}
}

// ClassifierGateway abstracts whichever identification backend is configured:
// the remote vision API or the locally loaded model. Implementations do not
// retry; the caller owns retry policy.
type ClassifierGateway interface {
	Identify(ctx context.Context, imageData []byte, mimeType string) (DeviceGuide, error)
}

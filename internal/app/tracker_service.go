package app

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"ecotrace/internal/identify"
	"ecotrace/internal/model"
)

// ActionDisposeReuse is the only action tag /update-tracker/ recognizes.
const ActionDisposeReuse = "dispose_reuse"

var (
	ErrUnauthenticated  = errors.New("authentication required")
	ErrInvalidAction    = errors.New("invalid action")
	ErrSentinelRejected = errors.New(`cannot track "No Device Detected"`)
)

type TrackerRepository interface {
	RecordDisposal(ctx context.Context, userID uint, device *model.DeviceTracker) (int64, error)
	GetByUserID(ctx context.Context, userID uint) (*model.UserTracker, error)
	ListDevicesByUserID(ctx context.Context, userID uint, limit int) ([]model.DeviceTracker, error)
}

type DisposalPublisher interface {
	Publish(ctx context.Context, event model.DisposalEvent) error
}

type SummaryCache interface {
	GetSummary(ctx context.Context, userID uint) (*model.TrackerSummary, bool, error)
	SetSummary(ctx context.Context, userID uint, summary *model.TrackerSummary) error
	DeleteSummary(ctx context.Context, userID uint) error
	MarkDirty(ctx context.Context, userID uint) error
	IsDirty(ctx context.Context, userID uint) (bool, error)
}

type TrackerService struct {
	trackerRepo  TrackerRepository
	publisher    DisposalPublisher
	summaryCache SummaryCache
	deviceLimit  int
}

type RecordDisposalInput struct {
	Action     string
	DeviceName string
	DeviceCO2  int64
	DeviceKWh  int64
}

func NewTrackerService(trackerRepo TrackerRepository, publisher DisposalPublisher, summaryCache SummaryCache) *TrackerService {
	return &TrackerService{
		trackerRepo:  trackerRepo,
		publisher:    publisher,
		summaryCache: summaryCache,
		deviceLimit:  200,
	}
}

// RecordDisposal validates one disposal/reuse action and applies it
// atomically: totals increment and history row land in the same transaction.
// Returns the user's updated device total.
func (s *TrackerService) RecordDisposal(ctx context.Context, userID uint, input RecordDisposalInput) (int64, error) {
	if userID == 0 {
		return 0, ErrUnauthenticated
	}
	if input.Action != ActionDisposeReuse {
		return 0, ErrInvalidAction
	}

	deviceName := strings.TrimSpace(input.DeviceName)
	if deviceName == identify.SentinelNoDevice {
		return 0, ErrSentinelRejected
	}
	if deviceName == "" || input.DeviceCO2 < 0 || input.DeviceKWh < 0 {
		return 0, ErrInvalidInput
	}

	device := &model.DeviceTracker{
		DeviceName: deviceName,
		DeviceCO2:  input.DeviceCO2,
		DeviceKWh:  input.DeviceKWh,
	}
	total, err := s.trackerRepo.RecordDisposal(ctx, userID, device)
	if err != nil {
		return 0, err
	}

	if s.summaryCache != nil {
		_ = s.summaryCache.MarkDirty(ctx, userID)
		_ = s.summaryCache.DeleteSummary(ctx, userID)
	}
	if s.publisher != nil {
		event := model.DisposalEvent{
			UserID:     userID,
			DeviceName: deviceName,
			DeviceCO2:  input.DeviceCO2,
			DeviceKWh:  input.DeviceKWh,
			RecordedAt: time.Now(),
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			log.Printf("publish disposal event failed: %v", err)
		}
	}

	return total, nil
}

// GetSummary returns the user's totals and recent history. Unauthenticated
// callers and users with no tracker row get a zero summary; the GET path
// never creates rows.
func (s *TrackerService) GetSummary(ctx context.Context, userID uint) (*model.TrackerSummary, error) {
	if userID == 0 {
		return emptySummary(), nil
	}

	if s.summaryCache != nil {
		dirty, err := s.summaryCache.IsDirty(ctx, userID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.summaryCache.GetSummary(ctx, userID); cacheErr == nil && hit {
				return cached, nil
			}
		}
	}

	tracker, err := s.trackerRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if tracker == nil {
		return emptySummary(), nil
	}

	devices, err := s.trackerRepo.ListDevicesByUserID(ctx, userID, s.deviceLimit)
	if err != nil {
		return nil, err
	}

	summary := &model.TrackerSummary{
		TotalDevices: tracker.TotalDevices,
		TotalCO2:     tracker.TotalCO2,
		TotalKWh:     tracker.TotalKWh,
		Devices:      devices,
	}
	if s.summaryCache != nil {
		if dirty, dirtyErr := s.summaryCache.IsDirty(ctx, userID); dirtyErr == nil && !dirty {
			_ = s.summaryCache.SetSummary(ctx, userID, summary)
		}
	}
	return summary, nil
}

func emptySummary() *model.TrackerSummary {
	return &model.TrackerSummary{Devices: []model.DeviceTracker{}}
}

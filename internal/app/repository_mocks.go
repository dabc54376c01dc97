package app

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ecotrace/internal/model"
)

// Testify mocks for the service dependencies, shared by the package tests.

type MockTrackerRepository struct {
	mock.Mock
}

func (m *MockTrackerRepository) RecordDisposal(ctx context.Context, userID uint, device *model.DeviceTracker) (int64, error) {
	args := m.Called(ctx, userID, device)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTrackerRepository) GetByUserID(ctx context.Context, userID uint) (*model.UserTracker, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserTracker), args.Error(1)
}

func (m *MockTrackerRepository) ListDevicesByUserID(ctx context.Context, userID uint, limit int) ([]model.DeviceTracker, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DeviceTracker), args.Error(1)
}

type MockDisposalPublisher struct {
	mock.Mock
}

func (m *MockDisposalPublisher) Publish(ctx context.Context, event model.DisposalEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockSummaryCache struct {
	mock.Mock
}

func (m *MockSummaryCache) GetSummary(ctx context.Context, userID uint) (*model.TrackerSummary, bool, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.TrackerSummary), args.Bool(1), args.Error(2)
}

func (m *MockSummaryCache) SetSummary(ctx context.Context, userID uint, summary *model.TrackerSummary) error {
	args := m.Called(ctx, userID, summary)
	return args.Error(0)
}

func (m *MockSummaryCache) DeleteSummary(ctx context.Context, userID uint) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockSummaryCache) MarkDirty(ctx context.Context, userID uint) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockSummaryCache) IsDirty(ctx context.Context, userID uint) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ecotrace/internal/model"
)

type TrackerRepository struct {
	db *gorm.DB
}

func NewTrackerRepository(db *gorm.DB) *TrackerRepository {
	return &TrackerRepository{db: db}
}

// RecordDisposal applies one disposal action in a single transaction: the
// aggregate row is created with zero defaults if missing, its totals are
// bumped with relative increments (never read-modify-write, so two concurrent
// disposals for the same user both land), and the immutable history row is
// inserted alongside. Returns the updated device total.
func (r *TrackerRepository) RecordDisposal(ctx context.Context, userID uint, device *model.DeviceTracker) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Ensure the aggregate row exists without racing on the user_id unique
		// index: two concurrent first disposals both insert, the loser's row is
		// a no-op, and both proceed to the relative increments below.
		tracker := model.UserTracker{UserID: userID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&tracker).Error; err != nil {
			return fmt.Errorf("ensure user tracker failed: %w", err)
		}

		updates := map[string]interface{}{
			"total_devices": gorm.Expr("total_devices + ?", 1),
			"total_co2":     gorm.Expr("total_co2 + ?", device.DeviceCO2),
			"total_kwh":     gorm.Expr("total_kwh + ?", device.DeviceKWh),
		}
		if err := tx.Model(&model.UserTracker{}).Where("user_id = ?", userID).Updates(updates).Error; err != nil {
			return fmt.Errorf("increment user tracker failed: %w", err)
		}

		device.UserID = userID
		if err := tx.Create(device).Error; err != nil {
			return fmt.Errorf("create device tracker failed: %w", err)
		}

		var updated model.UserTracker
		if err := tx.Where("user_id = ?", userID).First(&updated).Error; err != nil {
			return fmt.Errorf("reload user tracker failed: %w", err)
		}
		total = updated.TotalDevices
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *TrackerRepository) GetByUserID(ctx context.Context, userID uint) (*model.UserTracker, error) {
	var tracker model.UserTracker
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&tracker).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user tracker failed: %w", err)
	}
	return &tracker, nil
}

func (r *TrackerRepository) ListDevicesByUserID(ctx context.Context, userID uint, limit int) ([]model.DeviceTracker, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}

	var devices []model.DeviceTracker
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Limit(limit).Find(&devices).Error; err != nil {
		return nil, fmt.Errorf("list device trackers failed: %w", err)
	}
	return devices, nil
}

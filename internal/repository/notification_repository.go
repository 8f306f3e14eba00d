package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"taskflow/internal/model"
)

// NotificationRepository stores reminders waiting to be delivered.
type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *model.ScheduledNotification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// FindByHandle returns gorm.ErrRecordNotFound (wrapped) when the handle is unknown.
func (r *NotificationRepository) FindByHandle(ctx context.Context, handle string) (*model.ScheduledNotification, error) {
	var n model.ScheduledNotification
	if err := r.db.WithContext(ctx).Where("handle = ?", handle).First(&n).Error; err != nil {
		return nil, fmt.Errorf("find notification %s: %w", handle, err)
	}
	return &n, nil
}

// ListPending returns every stored notification ordered by fire time.
func (r *NotificationRepository) ListPending(ctx context.Context) ([]model.ScheduledNotification, error) {
	var out []model.ScheduledNotification
	if err := r.db.WithContext(ctx).Order("fire_at ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

// Delete removes the notification. It reports whether a row existed.
func (r *NotificationRepository) Delete(ctx context.Context, handle string) (bool, error) {
	res := r.db.WithContext(ctx).Where("handle = ?", handle).Delete(&model.ScheduledNotification{})
	if res.Error != nil {
		return false, fmt.Errorf("delete notification %s: %w", handle, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// DeleteBefore drops notifications whose fire time is not after cutoff.
// Fire times are stored in UTC so that text comparison orders them.
func (r *NotificationRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("fire_at <= ?", cutoff.UTC()).Delete(&model.ScheduledNotification{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete stale notifications: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// IsNotFound reports whether err wraps gorm's record-not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

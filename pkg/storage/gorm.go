// Package storage provides storage implementations for the reminders package.
package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/jdziat/durable-reminders/pkg/core"
)

// GormStorage implements core.Storage using GORM.
type GormStorage struct {
	db *gorm.DB
}

// NewGormStorage creates a new GORM-backed storage.
func NewGormStorage(db *gorm.DB) *GormStorage {
	return &GormStorage{db: db}
}

// DB returns the underlying GORM handle.
func (s *GormStorage) DB() *gorm.DB {
	return s.db
}

// IsSQLite reports whether the storage talks to SQLite.
func (s *GormStorage) IsSQLite() bool {
	if s.db == nil || s.db.Dialector == nil {
		return false
	}
	return s.db.Dialector.Name() == "sqlite"
}

// Migrate creates the necessary tables.
func (s *GormStorage) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&core.Reminder{})
}

// Create inserts a reminder. Times are stored in UTC at minute precision.
func (s *GormStorage) Create(ctx context.Context, r *core.Reminder) error {
	r.ScheduleTime = normalize(r.ScheduleTime)
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	r.CreatedAt = normalize(r.CreatedAt)
	return s.db.WithContext(ctx).Create(r).Error
}

// List returns every reminder ordered by schedule time.
func (s *GormStorage) List(ctx context.Context) ([]*core.Reminder, error) {
	var reminders []*core.Reminder
	err := s.db.WithContext(ctx).
		Order("schedule_time ASC, id ASC").
		Find(&reminders).Error
	if err != nil {
		return nil, err
	}
	for _, r := range reminders {
		toUTC(r)
	}
	return reminders, nil
}

// Get retrieves a reminder by ID. It returns nil, nil when none exists.
func (s *GormStorage) Get(ctx context.Context, id int64) (*core.Reminder, error) {
	var r core.Reminder
	err := s.db.WithContext(ctx).First(&r, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	toUTC(&r)
	return &r, nil
}

// UpdateScheduleTime overwrites the stored next occurrence.
func (s *GormStorage) UpdateScheduleTime(ctx context.Context, id int64, next time.Time) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&core.Reminder{}).
		Where("id = ?", id).
		Update("schedule_time", normalize(next))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Delete removes a reminder.
func (s *GormStorage) Delete(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&core.Reminder{}).Error
}

// DeleteExpired removes one-shot reminders due before the cutoff.
func (s *GormStorage) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("repeat_minutes IS NULL OR repeat_minutes <= 0").
		Where("schedule_time < ?", normalize(before)).
		Delete(&core.Reminder{})
	return result.RowsAffected, result.Error
}

func normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Minute)
}

func toUTC(r *core.Reminder) {
	r.ScheduleTime = r.ScheduleTime.UTC()
	r.CreatedAt = r.CreatedAt.UTC()
}

var _ core.Storage = (*GormStorage)(nil)

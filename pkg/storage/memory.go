package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jdziat/durable-reminders/pkg/core"
)

// MemoryStorage is a process-local core.Storage. Nothing survives a restart,
// so it suits tests and dry runs only.
type MemoryStorage struct {
	mu        sync.Mutex
	nextID    int64
	reminders map[int64]core.Reminder
	now       func() time.Time
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		reminders: make(map[int64]core.Reminder),
		now:       time.Now,
	}
}

// Migrate is a no-op.
func (s *MemoryStorage) Migrate(context.Context) error {
	return nil
}

// Create stores a copy of r and assigns its ID.
func (s *MemoryStorage) Create(ctx context.Context, r *core.Reminder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	r.ID = s.nextID
	r.ScheduleTime = normalize(r.ScheduleTime)
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}
	r.CreatedAt = normalize(r.CreatedAt)
	s.reminders[r.ID] = clone(*r)
	return nil
}

// List returns copies of every reminder ordered by schedule time.
func (s *MemoryStorage) List(ctx context.Context) ([]*core.Reminder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*core.Reminder, 0, len(s.reminders))
	for _, r := range s.reminders {
		c := clone(r)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ScheduleTime.Equal(out[j].ScheduleTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].ScheduleTime.Before(out[j].ScheduleTime)
	})
	return out, nil
}

// Get returns a copy of the reminder, or nil, nil when absent.
func (s *MemoryStorage) Get(ctx context.Context, id int64) (*core.Reminder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reminders[id]
	if !ok {
		return nil, nil
	}
	c := clone(r)
	return &c, nil
}

// UpdateScheduleTime overwrites the stored next occurrence.
func (s *MemoryStorage) UpdateScheduleTime(ctx context.Context, id int64, next time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reminders[id]
	if !ok {
		return false, nil
	}
	r.ScheduleTime = normalize(next)
	s.reminders[id] = r
	return true, nil
}

// Delete removes a reminder.
func (s *MemoryStorage) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.reminders, id)
	s.mu.Unlock()
	return nil
}

// DeleteExpired removes one-shot reminders due before the cutoff.
func (s *MemoryStorage) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	cutoff := normalize(before)

	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, r := range s.reminders {
		if !r.IsRepeating() && r.ScheduleTime.Before(cutoff) {
			delete(s.reminders, id)
			n++
		}
	}
	return n, nil
}

func clone(r core.Reminder) core.Reminder {
	if r.RepeatMinutes != nil {
		m := *r.RepeatMinutes
		r.RepeatMinutes = &m
	}
	return r
}

var _ core.Storage = (*MemoryStorage)(nil)

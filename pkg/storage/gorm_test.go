package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/durable-reminders/pkg/core"
)

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func intPtr(n int) *int { return &n }

// newTestReminder builds a minimal valid Reminder for insertion in tests.
func newTestReminder(at time.Time, repeat *int) *core.Reminder {
	return &core.Reminder{
		MedicationName: "Aspirin",
		Dosage:         "100mg",
		ScheduleTime:   at,
		RepeatMinutes:  repeat,
	}
}

// backends runs the storage contract against every implementation.
func backends(t *testing.T) map[string]func(t *testing.T) core.Storage {
	t.Helper()
	return map[string]func(t *testing.T) core.Storage{
		"gorm": func(t *testing.T) core.Storage { return newTestStorage(t) },
		"memory": func(t *testing.T) core.Storage {
			s := NewMemoryStorage()
			require.NoError(t, s.Migrate(t.Context()))
			return s
		},
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Constructor / detection
// ──────────────────────────────────────────────────────────────────────────────

func TestNewGormStorage_IsSQLite(t *testing.T) {
	s := NewGormStorage(openSQLiteMemory(t))
	assert.True(t, s.IsSQLite(), "should detect SQLite dialect")
}

func TestNewGormStorage_DB(t *testing.T) {
	db := openSQLiteMemory(t)
	s := NewGormStorage(db)
	assert.Same(t, db, s.DB(), "DB() should return the same *gorm.DB passed in")
}

func TestNewGormStorage_NilDB(t *testing.T) {
	s := NewGormStorage(nil)
	assert.False(t, s.IsSQLite(), "nil db should not claim SQLite")
}

// ──────────────────────────────────────────────────────────────────────────────
// Create / Get
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_AssignsIDAndNormalizesTimes(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			at := time.Date(2024, 3, 1, 10, 30, 45, 500, time.FixedZone("CET", 3600))
			r := newTestReminder(at, intPtr(60))
			require.NoError(t, s.Create(ctx, r))

			assert.NotZero(t, r.ID)
			assert.Equal(t, time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC), r.ScheduleTime)
			assert.False(t, r.CreatedAt.IsZero())
			assert.Zero(t, r.CreatedAt.Second())

			got, err := s.Get(ctx, r.ID)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "Aspirin", got.MedicationName)
			assert.Equal(t, "100mg", got.Dosage)
			assert.True(t, got.ScheduleTime.Equal(r.ScheduleTime))
			assert.Equal(t, time.UTC, got.ScheduleTime.Location())
			require.NotNil(t, got.RepeatMinutes)
			assert.Equal(t, 60, *got.RepeatMinutes)
		})
	}
}

func TestCreate_DistinctIDs(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			a := newTestReminder(base, nil)
			b := newTestReminder(base, nil)
			require.NoError(t, s.Create(ctx, a))
			require.NoError(t, s.Create(ctx, b))

			assert.NotEqual(t, a.ID, b.ID)
		})
	}
}

func TestGet_MissingReturnsNil(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			got, err := open(t).Get(context.Background(), 4242)
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestGet_OneShotHasNilRepeat(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			r := newTestReminder(base, nil)
			require.NoError(t, s.Create(ctx, r))

			got, err := s.Get(ctx, r.ID)
			require.NoError(t, err)
			assert.Nil(t, got.RepeatMinutes)
			assert.False(t, got.IsRepeating())
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// List
// ──────────────────────────────────────────────────────────────────────────────

func TestList_OrderedByScheduleTime(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			late := newTestReminder(base.Add(2*time.Hour), nil)
			early := newTestReminder(base, nil)
			mid := newTestReminder(base.Add(time.Hour), intPtr(30))
			for _, r := range []*core.Reminder{late, early, mid} {
				require.NoError(t, s.Create(ctx, r))
			}

			list, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 3)
			assert.Equal(t, early.ID, list[0].ID)
			assert.Equal(t, mid.ID, list[1].ID)
			assert.Equal(t, late.ID, list[2].ID)
		})
	}
}

func TestList_Empty(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			list, err := open(t).List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// UpdateScheduleTime
// ──────────────────────────────────────────────────────────────────────────────

func TestUpdateScheduleTime_OverwritesInPlace(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			r := newTestReminder(base, intPtr(1440))
			require.NoError(t, s.Create(ctx, r))

			next := base.Add(24 * time.Hour)
			found, err := s.UpdateScheduleTime(ctx, r.ID, next)
			require.NoError(t, err)
			assert.True(t, found)

			got, err := s.Get(ctx, r.ID)
			require.NoError(t, err)
			assert.True(t, got.ScheduleTime.Equal(next))
			assert.True(t, got.CreatedAt.Equal(r.CreatedAt), "created_at is immutable")

			list, err := s.List(ctx)
			require.NoError(t, err)
			assert.Len(t, list, 1, "update must not insert a second record")
		})
	}
}

func TestUpdateScheduleTime_MissingReportsFalse(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			found, err := open(t).UpdateScheduleTime(context.Background(), 99, base)
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestUpdateScheduleTime_Concurrent(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			var ids []int64
			for range 5 {
				r := newTestReminder(base, intPtr(10))
				require.NoError(t, s.Create(ctx, r))
				ids = append(ids, r.ID)
			}

			var wg sync.WaitGroup
			for _, id := range ids {
				wg.Add(1)
				go func(id int64) {
					defer wg.Done()
					found, err := s.UpdateScheduleTime(ctx, id, base.Add(10*time.Minute))
					assert.NoError(t, err)
					assert.True(t, found)
				}(id)
			}
			wg.Wait()

			list, err := s.List(ctx)
			require.NoError(t, err)
			for _, r := range list {
				assert.True(t, r.ScheduleTime.Equal(base.Add(10*time.Minute)))
			}
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Delete / DeleteExpired
// ──────────────────────────────────────────────────────────────────────────────

func TestDelete(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			r := newTestReminder(base, nil)
			require.NoError(t, s.Create(ctx, r))

			require.NoError(t, s.Delete(ctx, r.ID))

			got, err := s.Get(ctx, r.ID)
			require.NoError(t, err)
			assert.Nil(t, got)

			assert.NoError(t, s.Delete(ctx, r.ID), "deleting twice is not an error")
		})
	}
}

func TestDeleteExpired_OnlyPastOneShots(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			oldOneShot := newTestReminder(base.Add(-48*time.Hour), nil)
			oldRepeating := newTestReminder(base.Add(-48*time.Hour), intPtr(60))
			futureOneShot := newTestReminder(base.Add(time.Hour), nil)
			for _, r := range []*core.Reminder{oldOneShot, oldRepeating, futureOneShot} {
				require.NoError(t, s.Create(ctx, r))
			}

			n, err := s.DeleteExpired(ctx, base)
			require.NoError(t, err)
			assert.Equal(t, int64(1), n)

			list, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, oldRepeating.ID, list[0].ID)
			assert.Equal(t, futureOneShot.ID, list[1].ID)
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Context handling
// ──────────────────────────────────────────────────────────────────────────────

func TestMemoryStorage_CancelledContext(t *testing.T) {
	s := NewMemoryStorage()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Create(ctx, newTestReminder(base, nil)), context.Canceled)
	_, err := s.Get(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStorage_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	r := newTestReminder(base, intPtr(5))
	require.NoError(t, s.Create(ctx, r))

	got, err := s.Get(ctx, r.ID)
	require.NoError(t, err)
	*got.RepeatMinutes = 999
	got.MedicationName = "changed"

	again, err := s.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, *again.RepeatMinutes)
	assert.Equal(t, "Aspirin", again.MedicationName)
}

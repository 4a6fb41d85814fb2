package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPopDue_OrdersByDueThenReminderID(t *testing.T) {
	s, _, clock := newTestScheduler(t, newRecorder())

	s.Schedule(3, t0.Add(2*time.Minute))
	s.Schedule(2, t0.Add(time.Minute))
	s.Schedule(1, t0.Add(time.Minute))
	s.Schedule(4, t0.Add(time.Hour))

	clock.Advance(2 * time.Minute)
	due, wait, hasNext := s.popDue()

	require.Len(t, due, 3)
	assert.Equal(t, int64(1), due[0].key.ReminderID)
	assert.Equal(t, int64(2), due[1].key.ReminderID)
	assert.Equal(t, int64(3), due[2].key.ReminderID)
	for _, tk := range due {
		assert.Equal(t, -1, tk.index)
	}

	assert.True(t, hasNext)
	assert.Equal(t, 58*time.Minute, wait)
}

func TestPopDue_Empty(t *testing.T) {
	s, _, _ := newTestScheduler(t, newRecorder())

	due, _, hasNext := s.popDue()
	assert.Empty(t, due)
	assert.False(t, hasNext)
}

func TestTaskCancel_Idempotent(t *testing.T) {
	s, _, _ := newTestScheduler(t, newRecorder())
	s.Schedule(1, t0.Add(time.Minute))
	s.Schedule(2, t0.Add(2*time.Minute))

	tk := s.queue[0]
	tk.Cancel()
	tk.Cancel()

	assert.True(t, tk.cancelled.Load())
	assert.Equal(t, 1, s.queue.Len())
	assert.Equal(t, int64(2), s.queue[0].key.ReminderID)
}

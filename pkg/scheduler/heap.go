package scheduler

import (
	"container/heap"
	"sync/atomic"
	"time"

	"github.com/jdziat/durable-reminders/pkg/core"
)

// task is one armed occurrence. It is the registry handle for its key.
type task struct {
	key       core.OccurrenceKey
	due       time.Time
	index     int
	cancelled atomic.Bool
	owner     *Scheduler
}

// Cancel marks the task dead and drops it from the heap if it is still
// waiting there.
func (t *task) Cancel() {
	if t.cancelled.Swap(true) {
		return
	}
	t.owner.remove(t)
}

// taskHeap is a min-heap on due time. Ties are broken by reminder id so the
// firing order is stable.
type taskHeap []*task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].key.ReminderID < h[j].key.ReminderID
	}
	return h[i].due.Before(h[j].due)
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	t := x.(*task)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

var _ heap.Interface = (*taskHeap)(nil)

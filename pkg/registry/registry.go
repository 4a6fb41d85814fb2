// Package registry tracks which reminder occurrences currently have a live timer.
package registry

import (
	"sync"

	"github.com/jdziat/durable-reminders/pkg/core"
)

// Handle is a cancellable reference to an armed timer.
type Handle interface {
	Cancel()
}

// Registry maps occurrence keys to their armed timer.
// At most one handle exists per key at any instant.
type Registry struct {
	mu      sync.Mutex
	handles map[core.OccurrenceKey]Handle
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{handles: make(map[core.OccurrenceKey]Handle)}
}

// Register stores h under key. It returns false and does nothing if the key
// is already present.
func (r *Registry) Register(key core.OccurrenceKey, h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handles[key]; exists {
		return false
	}
	r.handles[key] = h
	return true
}

// Deregister forgets key. Used once the timer fired or was skipped.
func (r *Registry) Deregister(key core.OccurrenceKey) {
	r.mu.Lock()
	delete(r.handles, key)
	r.mu.Unlock()
}

// CancelAllFor cancels and removes every handle belonging to reminderID and
// returns the removed keys.
func (r *Registry) CancelAllFor(reminderID int64) []core.OccurrenceKey {
	r.mu.Lock()
	var (
		keys    []core.OccurrenceKey
		handles []Handle
	)
	for key, h := range r.handles {
		if key.ReminderID != reminderID {
			continue
		}
		keys = append(keys, key)
		handles = append(handles, h)
		delete(r.handles, key)
	}
	r.mu.Unlock()

	// Cancel outside the lock so handles may call back into the registry.
	for _, h := range handles {
		h.Cancel()
	}
	return keys
}

// Has reports whether key is registered.
func (r *Registry) Has(key core.OccurrenceKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.handles[key]
	return ok
}

// Len returns the number of live timers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// Keys returns a snapshot of the registered keys in no particular order.
func (r *Registry) Keys() []core.OccurrenceKey {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]core.OccurrenceKey, 0, len(r.handles))
	for k := range r.handles {
		keys = append(keys, k)
	}
	return keys
}

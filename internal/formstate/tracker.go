// internal/formstate/tracker.go
//
// Server-side memory of rendered forms.
//
// Every rendered form carries a hidden form_instance ID.  Tracker maps
// (mode, ID) to the live *Form so that a double-click, which posts the same
// instance twice, lands on the same state machine and the second post is
// rejected while the first is pending.  The map is a bounded LRU: old
// instances fall out, which only means a very stale form starts Idle again.

package formstate

import (
	"sync"

	"github.com/yanizio/gatehouse/internal/cache"
	"github.com/yanizio/gatehouse/internal/form"
)

// DefaultTrackerCapacity is used when NewTracker gets a non-positive size.
const DefaultTrackerCapacity = 10000

type trackerKey struct {
	mode form.Mode
	id   string
}

// Tracker is safe for concurrent use.
type Tracker struct {
	v Validator
	d Dispatcher

	mu  sync.Mutex
	lru *cache.LRU[trackerKey, *Form]
}

// NewTracker builds a tracker; every Form it creates shares v and d.
func NewTracker(capacity int, v Validator, d Dispatcher) *Tracker {
	if capacity < 1 {
		capacity = DefaultTrackerCapacity
	}
	return &Tracker{v: v, d: d, lru: cache.New[trackerKey, *Form](capacity)}
}

// Form returns the instance for (mode, id), creating it Idle on first use.
// An empty id yields a fresh, untracked form.
func (t *Tracker) Form(mode form.Mode, id string) *Form {
	if id == "" {
		return NewForm(mode, t.v, t.d)
	}
	k := trackerKey{mode: mode, id: id}

	t.mu.Lock()
	defer t.mu.Unlock()
	if f, ok := t.lru.Get(k); ok {
		return f
	}
	f := NewForm(mode, t.v, t.d)
	t.lru.Add(k, f)
	return f
}

// Len reports how many instances are tracked.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lru.Len()
}

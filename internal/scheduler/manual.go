package scheduler

import (
	"sort"
	"sync"
	"time"

	"travel-booking/internal/clock"

	"github.com/google/uuid"
)

type manualEntry struct {
	key uuid.UUID
	at  time.Time
	seq uint64
	fn  func()
}

// Manual keeps timers against a clock and fires them only from RunDue.
type Manual struct {
	mu      sync.Mutex
	clock   clock.Clock
	timers  map[uuid.UUID]*manualEntry
	seq     uint64
	stopped bool
}

func NewManual(c clock.Clock) *Manual {
	return &Manual{clock: c, timers: make(map[uuid.UUID]*manualEntry)}
}

func (m *Manual) After(key uuid.UUID, d time.Duration, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return
	}
	m.seq++
	m.timers[key] = &manualEntry{key: key, at: m.clock.Now().Add(d), seq: m.seq, fn: fn}
}

func (m *Manual) Cancel(key uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.timers[key]
	delete(m.timers, key)
	return ok
}

func (m *Manual) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

// Deadline reports when the timer for key fires.
func (m *Manual) Deadline(key uuid.UUID) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.timers[key]
	if !ok {
		return time.Time{}, false
	}
	return e.at, true
}

func (m *Manual) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopped = true
	clear(m.timers)
}

// RunDue fires, in deadline order, every timer due at the current clock time
// and returns how many ran.
func (m *Manual) RunDue() int {
	now := m.clock.Now()

	m.mu.Lock()
	var due []*manualEntry
	for key, e := range m.timers {
		if !e.at.After(now) {
			due = append(due, e)
			delete(m.timers, key)
		}
	}
	m.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].at.Equal(due[j].at) {
			return due[i].seq < due[j].seq
		}
		return due[i].at.Before(due[j].at)
	})

	for _, e := range due {
		e.fn()
	}
	return len(due)
}

// Package scheduler runs one cancellable deferred callback per key.
package scheduler

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Scheduler interface {
	// After arms fn to run once after d. An earlier timer for key is replaced.
	After(key uuid.UUID, d time.Duration, fn func())
	// Cancel disarms the timer for key and reports whether one was pending.
	Cancel(key uuid.UUID) bool
	Len() int
	// Stop disarms every timer and waits for callbacks already running.
	Stop()
}

type timerEntry struct {
	timer *time.Timer
}

type TimerScheduler struct {
	mu      sync.Mutex
	timers  map[uuid.UUID]*timerEntry
	stopped bool
	running sync.WaitGroup
}

func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{timers: make(map[uuid.UUID]*timerEntry)}
}

func (s *TimerScheduler) After(key uuid.UUID, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.disarm(key)

	if d < 0 {
		d = 0
	}

	e := &timerEntry{}
	s.running.Add(1)
	e.timer = time.AfterFunc(d, func() {
		defer s.running.Done()

		s.mu.Lock()
		if s.timers[key] == e {
			delete(s.timers, key)
		}
		s.mu.Unlock()

		fn()
	})
	s.timers[key] = e
}

func (s *TimerScheduler) Cancel(key uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disarm(key)
}

// disarm must be called with mu held
func (s *TimerScheduler) disarm(key uuid.UUID) bool {
	e, ok := s.timers[key]
	if !ok {
		return false
	}
	delete(s.timers, key)
	if e.timer.Stop() {
		s.running.Done()
		return true
	}
	// already fired, callback owns the Done
	return false
}

func (s *TimerScheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	for key := range s.timers {
		s.disarm(key)
	}
	s.mu.Unlock()

	s.running.Wait()
}

package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"travel-booking/internal/clock"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestTimerScheduler_Fires(t *testing.T) {
	s := NewTimerScheduler()
	defer s.Stop()

	done := make(chan struct{})
	key := uuid.New()
	s.After(key, 5*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}

	assert.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, time.Millisecond)
}

func TestTimerScheduler_CancelPreventsFire(t *testing.T) {
	s := NewTimerScheduler()
	defer s.Stop()

	var fired atomic.Bool
	key := uuid.New()
	s.After(key, 20*time.Millisecond, func() { fired.Store(true) })

	assert.True(t, s.Cancel(key))
	assert.False(t, s.Cancel(key))
	assert.Equal(t, 0, s.Len())

	time.Sleep(50 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestTimerScheduler_ReplaceKeepsOnlyLatest(t *testing.T) {
	s := NewTimerScheduler()
	defer s.Stop()

	var first, second atomic.Int32
	key := uuid.New()
	s.After(key, 10*time.Millisecond, func() { first.Add(1) })
	s.After(key, 30*time.Millisecond, func() { second.Add(1) })
	assert.Equal(t, 1, s.Len())

	require.Eventually(t, func() bool { return second.Load() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, int32(0), first.Load())
}

func TestTimerScheduler_StopDisarmsAll(t *testing.T) {
	s := NewTimerScheduler()

	var fired atomic.Int32
	for range 5 {
		s.After(uuid.New(), 20*time.Millisecond, func() { fired.Add(1) })
	}
	s.Stop()
	assert.Equal(t, 0, s.Len())

	s.After(uuid.New(), time.Millisecond, func() { fired.Add(1) })
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestManual_RunDueInDeadlineOrder(t *testing.T) {
	start := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	c := clock.NewFake(start)
	m := NewManual(c)

	var order []string
	a, b, late := uuid.New(), uuid.New(), uuid.New()
	m.After(a, 2*time.Hour, func() { order = append(order, "a") })
	m.After(b, time.Hour, func() { order = append(order, "b") })
	m.After(late, 3*time.Hour, func() { order = append(order, "late") })

	deadline, ok := m.Deadline(a)
	require.True(t, ok)
	assert.Equal(t, start.Add(2*time.Hour), deadline)

	assert.Zero(t, m.RunDue())

	c.Advance(2 * time.Hour)
	assert.Equal(t, 2, m.RunDue())
	assert.Equal(t, []string{"b", "a"}, order)
	assert.Equal(t, 1, m.Len())

	assert.True(t, m.Cancel(late))
	c.Advance(time.Hour)
	assert.Zero(t, m.RunDue())
}

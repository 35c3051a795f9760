package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fireteam-lab/fireteam/internal/activity"
	"github.com/fireteam-lab/fireteam/internal/event"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

var testConfig = Config{AlertLead: 10 * time.Second, CleanupGrace: 30 * time.Second, Name: "test"}

type fired struct {
	at   time.Duration
	kind ActionKind
	seq  uint8
}

// fakeHandler records performed actions with their offset from start.
type fakeHandler struct {
	clock clockwork.Clock

	mu    sync.Mutex
	times map[event.ID]time.Time
	fired []fired
	err   error
}

func newFakeHandler(clock clockwork.Clock, events ...*event.Event) *fakeHandler {
	h := &fakeHandler{clock: clock, times: map[event.ID]time.Time{}}
	for _, e := range events {
		h.times[e.ID] = e.ScheduledTime
	}
	return h
}

func (h *fakeHandler) LookupScheduledTime(id event.ID) (time.Time, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	t, ok := h.times[id]
	return t, ok
}

func (h *fakeHandler) PerformAction(_ context.Context, a Action) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fired = append(h.fired, fired{at: h.clock.Since(start), kind: a.Kind, seq: a.EventID.Seq})
	return h.err
}

func (h *fakeHandler) set(e *event.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.times[e.ID] = e.ScheduledTime
}

func (h *fakeHandler) remove(id event.ID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.times, id)
}

func (h *fakeHandler) snapshot() []fired {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]fired(nil), h.fired...)
}

func eventAt(seq uint8, offset time.Duration) *event.Event {
	return event.New(event.NewID(activity.Custom, seq), event.Member{ID: "1"}, start.Add(offset), "")
}

func sec(n int) time.Duration { return time.Duration(n) * time.Second }

// startLoop runs the scheduler and waits until its first timer is armed.
func startLoop(t *testing.T, s *Scheduler, h Handler, clock *clockwork.FakeClock) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, s.Run(ctx, h))
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	clock.BlockUntil(1)
}

// advanceTo moves the clock to start+offset and waits for the loop to re-arm.
func advanceTo(clock *clockwork.FakeClock, offset time.Duration) {
	clock.Advance(start.Add(offset).Sub(clock.Now()))
	clock.BlockUntil(1)
}

func TestScheduler_FiresInOrder(t *testing.T) {
	clock := clockwork.NewFakeClockAt(start)
	events := []*event.Event{eventAt(1, sec(90)), eventAt(2, sec(30)), eventAt(3, sec(50))}
	h := newFakeHandler(clock, events...)
	s := New(testConfig, clock, events)
	require.Len(t, s.Pending(), 6)

	startLoop(t, s, h, clock)

	advanceTo(clock, sec(19))
	assert.Empty(t, h.snapshot())

	advanceTo(clock, sec(20))
	assert.Equal(t, []fired{{sec(20), ActionAlert, 2}}, h.snapshot())

	advanceTo(clock, sec(40))
	advanceTo(clock, sec(60))
	advanceTo(clock, sec(80))

	clock.Advance(sec(40))
	require.Eventually(t, func() bool { return len(h.snapshot()) == 6 }, time.Second, time.Millisecond)

	assert.Equal(t, []fired{
		{sec(20), ActionAlert, 2},
		{sec(40), ActionAlert, 3},
		{sec(60), ActionCleanup, 2},
		{sec(80), ActionAlert, 1},
		{sec(80), ActionCleanup, 3},
		{sec(120), ActionCleanup, 1},
	}, h.snapshot())
	assert.Empty(t, s.Pending())
}

func TestScheduler_AddEditDelete(t *testing.T) {
	clock := clockwork.NewFakeClockAt(start)
	e1, e2 := eventAt(1, sec(200)), eventAt(2, sec(40))
	h := newFakeHandler(clock, e1, e2)
	s := New(testConfig, clock, []*event.Event{e1, e2})

	startLoop(t, s, h, clock)

	advanceTo(clock, sec(30))
	assert.Equal(t, []fired{{sec(30), ActionAlert, 2}}, h.snapshot())

	// Move e1 close enough that its alert is already past, and push e2 back.
	e1 = e1.Clone()
	e1.SetScheduledTime(start.Add(sec(30)))
	h.set(e1)
	s.OnEventChanged(event.NewEdited(e1))
	e2 = e2.Clone()
	e2.SetScheduledTime(start.Add(sec(50)))
	h.set(e2)
	s.OnEventChanged(event.NewEdited(e2))
	clock.BlockUntil(1)

	advanceTo(clock, sec(40))
	assert.Equal(t, []fired{
		{sec(30), ActionAlert, 2},
		{sec(40), ActionAlert, 2},
	}, h.snapshot())

	// Edits that keep the time leave the schedule alone.
	before := s.Pending()
	e1 = e1.Clone()
	e1.Description = "changed"
	s.OnEventChanged(event.NewEdited(e1))
	s.OnEventChanged(event.NewAlert(e1))
	assert.Equal(t, before, s.Pending())
	clock.BlockUntil(1)

	advanceTo(clock, sec(60))
	assert.Equal(t, fired{sec(60), ActionCleanup, 1}, h.snapshot()[2])

	h.remove(e2.ID)
	s.OnEventChanged(event.NewDeleted(e2))
	e4 := eventAt(4, sec(200))
	h.set(e4)
	s.OnEventChanged(event.NewAdded(e4))
	clock.BlockUntil(1)

	advanceTo(clock, sec(190))
	got := h.snapshot()
	require.Len(t, got, 4)
	assert.Equal(t, fired{sec(190), ActionAlert, 4}, got[3])
}

func TestScheduler_SkipsStaleActions(t *testing.T) {
	clock := clockwork.NewFakeClockAt(start)
	e := eventAt(1, sec(60))
	h := newFakeHandler(clock, e)
	s := New(testConfig, clock, []*event.Event{e})

	// The handler sees a newer time than the scheduler was told about.
	moved := e.Clone()
	moved.SetScheduledTime(start.Add(sec(65)))
	h.set(moved)

	startLoop(t, s, h, clock)
	advanceTo(clock, sec(50))
	assert.Empty(t, h.snapshot())

	h.remove(e.ID)
	clock.Advance(sec(40))
	require.Eventually(t, func() bool { return len(s.Pending()) == 0 }, time.Second, time.Millisecond)
	assert.Empty(t, h.snapshot())
}

func TestScheduler_HandlerErrorsDoNotStopLoop(t *testing.T) {
	clock := clockwork.NewFakeClockAt(start)
	e := eventAt(1, sec(20))
	h := newFakeHandler(clock, e)
	h.err = errors.New("discord down")
	s := New(testConfig, clock, []*event.Event{e})

	startLoop(t, s, h, clock)
	advanceTo(clock, sec(10))
	clock.Advance(sec(40))
	require.Eventually(t, func() bool { return len(h.snapshot()) == 2 }, time.Second, time.Millisecond)
}

type goneHandler struct{ *fakeHandler }

func (goneHandler) PerformAction(context.Context, Action) error { return ErrHandlerGone }

func TestScheduler_ExitsWhenHandlerGone(t *testing.T) {
	clock := clockwork.NewFakeClockAt(start)
	e := eventAt(1, sec(20))
	s := New(testConfig, clock, []*event.Event{e})
	h := goneHandler{newFakeHandler(clock, e)}

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background(), h) }()
	clock.BlockUntil(1)
	clock.Advance(sec(10))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not exit")
	}
}

// laggingClock reports a wall time behind the fake clock that drives its timers.
type laggingClock struct {
	*clockwork.FakeClock
	lag atomic.Int64
}

func (c *laggingClock) Now() time.Time {
	return c.FakeClock.Now().Add(-time.Duration(c.lag.Load()))
}

func TestScheduler_RearmsWhenTimerFiresEarly(t *testing.T) {
	clock := clockwork.NewFakeClockAt(start)
	lagging := &laggingClock{FakeClock: clock}
	e := eventAt(1, sec(30))
	h := newFakeHandler(clock, e)
	s := New(testConfig, lagging, []*event.Event{e})

	startLoop(t, s, h, clock)

	// The alert timer fires while the wall clock still reads 19s.
	lagging.lag.Store(int64(time.Second))
	clock.Advance(sec(20))

	waitCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1), "timer was not re-armed after an early wake")
	assert.Empty(t, h.snapshot())

	lagging.lag.Store(0)
	clock.Advance(sec(5))
	require.Eventually(t, func() bool { return len(h.snapshot()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, []fired{{sec(25), ActionAlert, 1}}, h.snapshot())
}

func TestNew_DropsPastActions(t *testing.T) {
	clock := clockwork.NewFakeClockAt(start)
	s := New(testConfig, clock, []*event.Event{eventAt(1, sec(5)), eventAt(2, -sec(60))})

	pending := s.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, ActionCleanup, pending[0].Kind)
	assert.Equal(t, uint8(1), pending[0].EventID.Seq)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.normalized()
	assert.Equal(t, DefaultAlertLead, cfg.AlertLead)
	assert.Equal(t, DefaultCleanupGrace, cfg.CleanupGrace)
}

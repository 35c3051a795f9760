// Package scheduler fires alert and cleanup actions at times derived from
// each event's scheduled time.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/fireteam-lab/fireteam/internal/event"
	"github.com/fireteam-lab/fireteam/internal/metrics"
	"github.com/jonboulle/clockwork"
)

const (
	DefaultAlertLead    = 10 * time.Minute
	DefaultCleanupGrace = 30 * time.Minute
)

// ErrHandlerGone is returned by a Handler whose owner has shut down. The
// loop exits without error when it sees it.
var ErrHandlerGone = errors.New("action handler gone")

// Config sets the offsets of derived actions.
type Config struct {
	AlertLead    time.Duration
	CleanupGrace time.Duration
	// Name labels logs and metrics, usually the guild id.
	Name string
}

func (c Config) normalized() Config {
	if c.AlertLead <= 0 {
		c.AlertLead = DefaultAlertLead
	}
	if c.CleanupGrace <= 0 {
		c.CleanupGrace = DefaultCleanupGrace
	}
	return c
}

// Handler validates and performs due actions.
type Handler interface {
	// LookupScheduledTime returns the event's current scheduled time.
	LookupScheduledTime(id event.ID) (time.Time, bool)
	PerformAction(ctx context.Context, action Action) error
}

// Scheduler keeps the pending actions of one guild ordered by fire time.
type Scheduler struct {
	cfg    Config
	clock  clockwork.Clock
	logger *slog.Logger

	mu      sync.Mutex
	pending []Action
	timer   clockwork.Timer

	wake chan struct{}
}

// New derives actions for the initial events. Actions already due are dropped.
func New(cfg Config, clock clockwork.Clock, initial []*event.Event) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	s := &Scheduler{
		cfg:    cfg.normalized(),
		clock:  clock,
		logger: slog.Default().With("guild", cfg.Name),
		wake:   make(chan struct{}, 1),
	}
	now := clock.Now()
	for _, e := range initial {
		s.insertLocked(now, e)
	}
	return s
}

// Pending returns a copy of the pending actions in fire order.
func (s *Scheduler) Pending() []Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.pending)
}

// OnEventChanged updates the pending set for change and re-arms the timer.
// Safe to call from any goroutine while Run is active.
func (s *Scheduler) OnEventChanged(change *event.Change) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch change.Kind {
	case event.Edited, event.Deleted:
		s.removeLocked(change.Event.ID)
	case event.Alert:
		return
	}
	switch change.Kind {
	case event.Added, event.Edited:
		s.insertLocked(s.clock.Now(), change.Event)
	}
	s.rearmLocked()
	s.signal()
}

// EventChanged lets the scheduler observe an eventstore directly.
func (s *Scheduler) EventChanged(_ context.Context, change *event.Change) {
	s.OnEventChanged(change)
}

func (s *Scheduler) insertLocked(now time.Time, e *event.Event) {
	for _, a := range derive(e, s.cfg) {
		if !a.FiresAt.After(now) {
			continue
		}
		i, found := slices.BinarySearchFunc(s.pending, a, compareActions)
		if found {
			continue
		}
		s.pending = slices.Insert(s.pending, i, a)
	}
	metrics.SchedulerPending.WithLabelValues(s.cfg.Name).Set(float64(len(s.pending)))
}

func (s *Scheduler) removeLocked(id event.ID) {
	s.pending = slices.DeleteFunc(s.pending, func(a Action) bool { return a.EventID == id })
	metrics.SchedulerPending.WithLabelValues(s.cfg.Name).Set(float64(len(s.pending)))
}

// popDueLocked removes and returns every action with FiresAt <= now.
func (s *Scheduler) popDueLocked(now time.Time) []Action {
	n := 0
	for n < len(s.pending) && !s.pending[n].FiresAt.After(now) {
		n++
	}
	if n == 0 {
		return nil
	}
	due := slices.Clone(s.pending[:n])
	s.pending = slices.Delete(s.pending, 0, n)
	metrics.SchedulerPending.WithLabelValues(s.cfg.Name).Set(float64(len(s.pending)))
	return due
}

// rearmLocked replaces the timer with one for the earliest pending action.
func (s *Scheduler) rearmLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if len(s.pending) == 0 {
		return
	}
	d := s.pending[0].FiresAt.Sub(s.clock.Now())
	if d <= 0 {
		s.signal()
		return
	}
	s.timer = s.clock.NewTimer(d)
}

func (s *Scheduler) timerChan() <-chan time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer == nil {
		return nil
	}
	return s.timer.Chan()
}

func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run performs due actions until ctx is cancelled or the handler reports
// ErrHandlerGone. Handler errors are logged and do not stop the loop.
func (s *Scheduler) Run(ctx context.Context, handler Handler) error {
	s.logger.Info("[Scheduler] Starting", "pending", len(s.Pending()))

	defer func() {
		s.mu.Lock()
		if s.timer != nil {
			s.timer.Stop()
			s.timer = nil
		}
		s.mu.Unlock()
	}()

	for {
		s.mu.Lock()
		due := s.popDueLocked(s.clock.Now())
		s.mu.Unlock()

		if len(due) > 0 {
			if gone := s.perform(ctx, handler, due); gone {
				s.logger.Info("[Scheduler] Handler gone, stopping")
				return nil
			}
		}

		// A timer can fire while the wall clock still reads just before the
		// earliest action, so the timer is re-armed on every wake.
		s.mu.Lock()
		s.rearmLocked()
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			s.logger.Info("[Scheduler] Stopping (context cancelled)")
			return nil
		case <-s.timerChan():
		case <-s.wake:
		}
	}
}

func (s *Scheduler) perform(ctx context.Context, handler Handler, due []Action) (gone bool) {
	for _, a := range due {
		current, ok := handler.LookupScheduledTime(a.EventID)
		if !ok || !current.Equal(a.EventTime) {
			s.logger.Info("[Scheduler] Skipping stale action", "action", a.String())
			metrics.SchedulerActions.WithLabelValues(a.Kind.String(), "stale").Inc()
			continue
		}

		err := handler.PerformAction(ctx, a)
		switch {
		case errors.Is(err, ErrHandlerGone):
			return true
		case err != nil:
			s.logger.Error("[Scheduler] Action failed", "action", a.String(), "error", err)
			metrics.SchedulerActions.WithLabelValues(a.Kind.String(), "failed").Inc()
		default:
			s.logger.Info("[Scheduler] Action performed", "action", a.String())
			metrics.SchedulerActions.WithLabelValues(a.Kind.String(), "performed").Inc()
		}
	}
	return false
}

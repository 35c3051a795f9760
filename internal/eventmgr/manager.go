// Package eventmgr wires one guild's event store, scheduler and views
// together and exposes the user-facing LFG operations.
package eventmgr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/fireteam-lab/fireteam/internal/activity"
	"github.com/fireteam-lab/fireteam/internal/core/storage"
	"github.com/fireteam-lab/fireteam/internal/event"
	"github.com/fireteam-lab/fireteam/internal/eventstore"
	"github.com/fireteam-lab/fireteam/internal/notify"
	"github.com/fireteam-lab/fireteam/internal/scheduler"
	"github.com/fireteam-lab/fireteam/internal/views"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// ErrClosed is returned by operations on a closed manager.
var ErrClosed = errors.New("event manager closed")

// ChannelSpec is one event channel of the guild.
type ChannelSpec struct {
	ID    string
	Types activity.Filter
}

// Config configures one guild's manager.
type Config struct {
	GuildID            string
	Scheduler          scheduler.Config
	Channels           []ChannelSpec
	Views              views.ChannelConfig
	AllowDuplicateJoin bool
}

// Deps are the external collaborators of a manager.
type Deps struct {
	Backend  storage.Store
	Sinks    views.SinkFactory
	Notifier notify.Notifier
	Clock    clockwork.Clock
}

// Manager is safe for concurrent use.
type Manager struct {
	cfg      Config
	backend  storage.Store
	notifier notify.Notifier
	clock    clockwork.Clock
	logger   *slog.Logger

	store    *eventstore.Store
	sched    *scheduler.Scheduler
	channels []*views.Channel
	tracker  *views.Tracker

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	group     *errgroup.Group
	closed    atomic.Bool
}

// Open loads the guild's events from deps.Backend and builds a manager.
// Start must be called for timed actions and views to run.
func Open(ctx context.Context, cfg Config, deps Deps) (*Manager, error) {
	if deps.Backend == nil {
		panic("eventmgr: backend must not be nil")
	}
	store, err := eventstore.Load(ctx, deps.Backend)
	if err != nil {
		return nil, fmt.Errorf("open guild %s: %w", cfg.GuildID, err)
	}
	return New(cfg, deps, store), nil
}

// New builds a manager over an existing store.
func New(cfg Config, deps Deps, store *eventstore.Store) *Manager {
	if store == nil || deps.Backend == nil {
		panic("eventmgr: store and backend must not be nil")
	}
	if deps.Sinks == nil {
		panic("eventmgr: sink factory must not be nil")
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.LogNotifier{}
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if cfg.Scheduler.Name == "" {
		cfg.Scheduler.Name = cfg.GuildID
	}

	m := &Manager{
		cfg:      cfg,
		backend:  deps.Backend,
		notifier: deps.Notifier,
		clock:    deps.Clock,
		logger:   slog.Default().With("guild", cfg.GuildID),
		store:    store,
	}

	initial := store.Sorted()
	m.sched = scheduler.New(cfg.Scheduler, deps.Clock, initial)
	store.Subscribe(m.sched)

	for _, spec := range cfg.Channels {
		filter := func(e *event.Event) bool { return spec.Types.Admits(e.Activity) }
		ch := views.NewChannel(spec.ID, filter, deps.Sinks(spec.ID), initial, cfg.Views)
		m.channels = append(m.channels, ch)
		store.Subscribe(ch)
	}

	m.tracker = views.NewTracker(deps.Sinks, cfg.Views.QueueSize)
	store.Subscribe(m.tracker)

	return m
}

// GuildID is the guild this manager serves.
func (m *Manager) GuildID() string { return m.cfg.GuildID }

// Start launches the scheduler, channel and tracker loops. It is a no-op if
// already started.
func (m *Manager) Start(ctx context.Context) {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()
	if m.group != nil || m.closed.Load() {
		return
	}

	ctx, m.cancel = context.WithCancel(ctx)
	m.group, ctx = errgroup.WithContext(ctx)

	m.group.Go(func() error { return m.sched.Run(ctx, m) })
	for _, ch := range m.channels {
		m.group.Go(func() error { return ch.Run(ctx) })
	}
	m.group.Go(func() error { return m.tracker.Run(ctx) })

	m.logger.Info("[EventManager] Started", "events", m.store.Len(), "channels", len(m.channels))
}

// Close stops every loop and waits for them. Later operations fail with ErrClosed.
func (m *Manager) Close() error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}
	if m.group == nil {
		return nil
	}
	m.cancel()
	err := m.group.Wait()
	m.logger.Info("[EventManager] Stopped")
	return err
}

// Remove closes the manager and deletes the guild's stored events.
func (m *Manager) Remove(ctx context.Context) error {
	if err := m.Close(); err != nil {
		m.logger.Error("[EventManager] Error while stopping", "error", err)
	}
	if err := m.backend.Delete(ctx); err != nil {
		return fmt.Errorf("delete guild %s store: %w", m.cfg.GuildID, err)
	}
	return nil
}

// Resync forces every channel to reconcile with its sink.
func (m *Manager) Resync() {
	for _, ch := range m.channels {
		ch.Resync()
	}
}

// Pending exposes the scheduler's pending actions.
func (m *Manager) Pending() []scheduler.Action { return m.sched.Pending() }

// Package guild runs one event manager per guild.
package guild

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/fireteam-lab/fireteam/internal/core/storage"
	"github.com/fireteam-lab/fireteam/internal/eventmgr"
	"github.com/fireteam-lab/fireteam/internal/notify"
	"github.com/fireteam-lab/fireteam/internal/views"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
)

// ErrNotFound is returned for guilds the application does not serve.
var ErrNotFound = errors.New("guild not found")

// StoreFactory opens the persistent store of a guild.
type StoreFactory func(guildID string) (storage.Store, error)

// Options configure an Application. Template supplies the per-guild
// manager settings; GuildID and Channels are filled in per guild.
type Options struct {
	Template eventmgr.Config
	Layout   *Layout
	Stores   StoreFactory
	Sinks    views.SinkFactory
	Notifier notify.Notifier
	Clock    clockwork.Clock
	// Sweeper, when set, periodically resyncs every guild's channels.
	Sweeper *views.Sweeper
}

// Application owns the managers of every guild. Safe for concurrent use.
type Application struct {
	opts Options
	ctx  context.Context

	mu       sync.RWMutex
	managers map[string]*eventmgr.Manager
	backends map[string]storage.Store
	adding   singleflight.Group
}

// New builds an application. Managers are started under ctx.
func New(ctx context.Context, opts Options) *Application {
	if opts.Stores == nil || opts.Sinks == nil {
		panic("guild: store and sink factories must not be nil")
	}
	if opts.Layout == nil {
		opts.Layout = &Layout{}
	}
	return &Application{
		opts:     opts,
		ctx:      ctx,
		managers: map[string]*eventmgr.Manager{},
		backends: map[string]storage.Store{},
	}
}

// AddGuild loads and starts the guild's manager. Adding a guild that is
// already served returns the running manager.
func (a *Application) AddGuild(ctx context.Context, guildID string) (*eventmgr.Manager, error) {
	if m, err := a.Get(guildID); err == nil {
		return m, nil
	}

	v, err, _ := a.adding.Do(guildID, func() (any, error) {
		if m, err := a.Get(guildID); err == nil {
			return m, nil
		}

		backend, err := a.opts.Stores(guildID)
		if err != nil {
			return nil, fmt.Errorf("failed to open store for guild %s: %w", guildID, err)
		}

		cfg := a.opts.Template
		cfg.GuildID = guildID
		cfg.Channels = a.opts.Layout.Channels(guildID)
		cfg.Scheduler.Name = guildID

		m, err := eventmgr.Open(ctx, cfg, eventmgr.Deps{
			Backend:  backend,
			Sinks:    a.opts.Sinks,
			Notifier: a.opts.Notifier,
			Clock:    a.opts.Clock,
		})
		if err != nil {
			closeBackend(backend)
			return nil, err
		}
		m.Start(a.ctx)

		a.mu.Lock()
		a.managers[guildID] = m
		a.backends[guildID] = backend
		a.mu.Unlock()

		if a.opts.Sweeper != nil {
			a.opts.Sweeper.Register(guildID, m)
		}
		slog.Info("[Guilds] Guild added", "guild", guildID, "channels", len(cfg.Channels))
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*eventmgr.Manager), nil
}

// AddGuilds adds every guild, collecting failures.
func (a *Application) AddGuilds(ctx context.Context, guildIDs []string) error {
	var errs []error
	for _, id := range guildIDs {
		if _, err := a.AddGuild(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Get returns the guild's manager.
func (a *Application) Get(guildID string) (*eventmgr.Manager, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	m, ok := a.managers[guildID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, guildID)
	}
	return m, nil
}

// Guilds lists served guild ids in sorted order.
func (a *Application) Guilds() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	ids := make([]string, 0, len(a.managers))
	for id := range a.managers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// RemoveGuild stops the guild's manager and deletes its stored events.
func (a *Application) RemoveGuild(ctx context.Context, guildID string) error {
	a.mu.Lock()
	m, ok := a.managers[guildID]
	backend := a.backends[guildID]
	delete(a.managers, guildID)
	delete(a.backends, guildID)
	a.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, guildID)
	}

	if a.opts.Sweeper != nil {
		a.opts.Sweeper.Unregister(guildID)
	}
	err := m.Remove(ctx)
	closeBackend(backend)
	slog.Info("[Guilds] Guild removed", "guild", guildID)
	return err
}

// Close stops every manager and releases their stores.
func (a *Application) Close() error {
	a.mu.Lock()
	managers := a.managers
	backends := a.backends
	a.managers = map[string]*eventmgr.Manager{}
	a.backends = map[string]storage.Store{}
	a.mu.Unlock()

	var errs []error
	for id, m := range managers {
		if err := m.Close(); err != nil {
			errs = append(errs, fmt.Errorf("guild %s: %w", id, err))
		}
		closeBackend(backends[id])
	}
	return errors.Join(errs...)
}

func closeBackend(s storage.Store) {
	if c, ok := s.(io.Closer); ok {
		if err := c.Close(); err != nil {
			slog.Warn("[Guilds] Failed to close store", "error", err)
		}
	}
}

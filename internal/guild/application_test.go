package guild

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fireteam-lab/fireteam/internal/activity"
	"github.com/fireteam-lab/fireteam/internal/core/storage"
	"github.com/fireteam-lab/fireteam/internal/core/storage/filesystem"
	"github.com/fireteam-lab/fireteam/internal/core/storage/memory"
	"github.com/fireteam-lab/fireteam/internal/event"
	"github.com/fireteam-lab/fireteam/internal/eventmgr"
	"github.com/fireteam-lab/fireteam/internal/views"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC)

var eventMember = event.Member{ID: "42", Name: "guardian"}

type sinkSet struct {
	mu    sync.Mutex
	sinks map[string]*views.MemorySink
}

func (s *sinkSet) factory(channelID string) views.MessageSink {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sink, ok := s.sinks[channelID]; ok {
		return sink
	}
	sink := views.NewMemorySink()
	s.sinks[channelID] = sink
	return sink
}

func (s *sinkSet) get(channelID string) *views.MemorySink {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sinks[channelID]
}

func newTestApp(t *testing.T, stores StoreFactory) (*Application, *sinkSet) {
	t.Helper()
	layout, err := ParseLayout([]byte(testLayout))
	require.NoError(t, err)

	sinks := &sinkSet{sinks: map[string]*views.MemorySink{}}
	app := New(context.Background(), Options{
		Layout: layout,
		Stores: stores,
		Sinks:  sinks.factory,
		Clock:  clockwork.NewFakeClockAt(testNow),
	})
	t.Cleanup(func() { _ = app.Close() })
	return app, sinks
}

func createEvent(t *testing.T, m *eventmgr.Manager, kind activity.Kind) {
	t.Helper()
	_, err := m.CreateEvent(context.Background(), eventmgr.CreateRequest{
		Creator:       eventMember,
		Activity:      kind,
		ScheduledTime: testNow.Add(2 * time.Hour),
	})
	require.NoError(t, err)
}

func TestApplication_AddGuildUsesLayout(t *testing.T) {
	app, sinks := newTestApp(t, MemoryStores())

	m, err := app.AddGuild(context.Background(), "100")
	require.NoError(t, err)
	assert.Equal(t, "100", m.GuildID())

	createEvent(t, m, activity.VaultOfGlass)
	require.Eventually(t, func() bool {
		return sinks.get("raids") != nil && len(sinks.get("raids").Views()) == 1
	}, time.Second, time.Millisecond)
	assert.Empty(t, sinks.get("pvp").Views())
	assert.Nil(t, sinks.get("lfg"))

	again, err := app.AddGuild(context.Background(), "100")
	require.NoError(t, err)
	assert.Same(t, m, again)
}

func TestApplication_ConcurrentAddOpensOnce(t *testing.T) {
	var mu sync.Mutex
	opened := 0
	app, _ := newTestApp(t, func(string) (storage.Store, error) {
		mu.Lock()
		opened++
		mu.Unlock()
		return memory.New(), nil
	})

	var wg sync.WaitGroup
	managers := make([]*eventmgr.Manager, 8)
	for i := range managers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := app.AddGuild(context.Background(), "200")
			assert.NoError(t, err)
			managers[i] = m
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, opened)
	for _, m := range managers {
		assert.Same(t, managers[0], m)
	}
}

func TestApplication_AddGuildsCollectsErrors(t *testing.T) {
	broken := errors.New("no disk")
	app, _ := newTestApp(t, func(id string) (storage.Store, error) {
		if id == "bad" {
			return nil, broken
		}
		return memory.New(), nil
	})

	err := app.AddGuilds(context.Background(), []string{"b", "bad", "a"})
	require.ErrorIs(t, err, broken)
	assert.Equal(t, []string{"a", "b"}, app.Guilds())

	_, err = app.Get("bad")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestApplication_RemoveGuildDeletesStore(t *testing.T) {
	backend := memory.New()
	app, _ := newTestApp(t, func(string) (storage.Store, error) { return backend, nil })

	m, err := app.AddGuild(context.Background(), "100")
	require.NoError(t, err)
	createEvent(t, m, activity.Gambit)

	require.NoError(t, app.RemoveGuild(context.Background(), "100"))
	snapshot, err := backend.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snapshot)
	assert.Empty(t, app.Guilds())

	_, err = m.CreateEvent(context.Background(), eventmgr.CreateRequest{Creator: eventMember, Activity: activity.Gambit, ScheduledTime: testNow})
	require.ErrorIs(t, err, eventmgr.ErrClosed)

	require.ErrorIs(t, app.RemoveGuild(context.Background(), "100"), ErrNotFound)
}

func TestApplication_FilesystemStoresReopen(t *testing.T) {
	root := t.TempDir()
	app, _ := newTestApp(t, FilesystemStores(root))

	m, err := app.AddGuild(context.Background(), "300")
	require.NoError(t, err)
	createEvent(t, m, activity.LastWish)

	_, err = filesystem.Open(root + "/300")
	require.ErrorIs(t, err, filesystem.ErrLocked)

	require.NoError(t, app.Close())

	reopened, _ := newTestApp(t, FilesystemStores(root))
	m, err = reopened.AddGuild(context.Background(), "300")
	require.NoError(t, err)
	assert.Len(t, m.List(nil), 1)
}

func TestApplication_SweeperRegistration(t *testing.T) {
	sweeper, err := views.NewSweeper("@every 1h")
	require.NoError(t, err)

	layout, err := ParseLayout([]byte(testLayout))
	require.NoError(t, err)
	sinks := &sinkSet{sinks: map[string]*views.MemorySink{}}
	app := New(context.Background(), Options{
		Layout:  layout,
		Stores:  MemoryStores(),
		Sinks:   sinks.factory,
		Clock:   clockwork.NewFakeClockAt(testNow),
		Sweeper: sweeper,
	})
	defer app.Close()

	_, err = app.AddGuild(context.Background(), "100")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return sinks.get("raids") != nil }, time.Second, time.Millisecond)

	raids := sinks.get("raids")
	require.Eventually(t, func() bool { return raids.Calls() > 0 }, time.Second, time.Millisecond)
	before := raids.Calls()
	sweeper.Sweep()
	require.Eventually(t, func() bool { return raids.Calls() > before }, time.Second, time.Millisecond)

	require.NoError(t, app.RemoveGuild(context.Background(), "100"))
}

// Package eventstore holds the authoritative event collection of one guild.
//
// All mutations go through Modify, which serializes writers, persists the
// full snapshot once per committed change, and then hands the change to the
// registered observers in commit order.
package eventstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/fireteam-lab/fireteam/internal/activity"
	"github.com/fireteam-lab/fireteam/internal/core/storage"
	"github.com/fireteam-lab/fireteam/internal/event"
	"github.com/fireteam-lab/fireteam/internal/metrics"
)

// ErrPersistence matches any error caused by a failed snapshot save.
var ErrPersistence = errors.New("failed to persist events")

// PersistenceError reports a save failure. The mutation it belongs to has
// already been applied in memory and is not rolled back.
type PersistenceError struct {
	Change *event.Change
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%v after %s: %v", ErrPersistence, e.Change, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

// Observer receives every committed change. EventChanged runs while the
// store's notify lock is held and must not call Modify.
type Observer interface {
	EventChanged(ctx context.Context, change *event.Change)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, change *event.Change)

func (f ObserverFunc) EventChanged(ctx context.Context, change *event.Change) { f(ctx, change) }

// Store is safe for concurrent use.
type Store struct {
	backend storage.Store
	logger  *slog.Logger

	mu        sync.RWMutex
	events    map[event.ID]*event.Event
	cursor    map[activity.Kind]uint8
	committed uint64

	// Changes are delivered one at a time in commit order; delivered is the
	// number of commits whose fan-out has finished.
	notifyMu   sync.Mutex
	notifyCond *sync.Cond
	delivered  uint64
	observers  []Observer
}

// New wraps an already loaded snapshot.
func New(backend storage.Store, initial storage.Snapshot) *Store {
	if backend == nil {
		panic("eventstore: backend must not be nil")
	}
	events := make(map[event.ID]*event.Event, len(initial))
	for id, e := range initial {
		events[id] = e
	}
	s := &Store{
		backend: backend,
		logger:  slog.Default(),
		events:  events,
		cursor:  make(map[activity.Kind]uint8),
	}
	s.notifyCond = sync.NewCond(&s.notifyMu)
	return s
}

// Load reads the backend's snapshot and wraps it.
func Load(ctx context.Context, backend storage.Store) (*Store, error) {
	snapshot, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	return New(backend, snapshot), nil
}

// Subscribe registers an observer for changes committed after this call.
func (s *Store) Subscribe(o Observer) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.observers = append(s.observers, o)
}

// Get returns the current snapshot of one event.
func (s *Store) Get(id event.ID) (*event.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	return e, ok
}

// Snapshot copies the collection.
func (s *Store) Snapshot() storage.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Sorted returns all events in time order.
func (s *Store) Sorted() []*event.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedEvents(s.events)
}

// Len is the number of stored events.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// AllocateNextID returns the first free sequence for kind at or after the
// kind's cursor, wrapping past 255 to 1, and advances the cursor past it.
// The returned id is not reserved: until an event is stored under it, the
// next call may return it again.
func (s *Store) AllocateNextID(kind activity.Kind) (event.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allocateLocked(kind, nil)
}

func (s *Store) allocateLocked(kind activity.Kind, pending map[event.ID]*event.Event) (event.ID, error) {
	taken := func(seq uint8) bool {
		id := event.NewID(kind, seq)
		if e, ok := pending[id]; ok {
			return e != nil
		}
		_, ok := s.events[id]
		return ok
	}
	seq, ok := event.FindFreeSeq(s.cursor[kind], taken)
	if !ok {
		return event.ID{}, fmt.Errorf("%w %s", event.ErrIDSpaceExhausted, kind)
	}
	s.cursor[kind] = event.NextSeq(seq)
	return event.NewID(kind, seq), nil
}

// Modify runs fn with exclusive access. Writes made through the Tx are
// applied only if fn returns a nil error. A non-nil change is persisted
// (one Save of the full collection) and then delivered to observers after
// the write lock is released. If Save fails the change stays applied, is
// still delivered, and the returned error is a *PersistenceError.
func (s *Store) Modify(ctx context.Context, fn func(tx *Tx) (*event.Change, error)) (*event.Change, error) {
	s.mu.Lock()

	tx := &Tx{store: s, writes: make(map[event.ID]*event.Event)}
	change, err := fn(tx)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	for id, e := range tx.writes {
		if e == nil {
			delete(s.events, id)
		} else {
			s.events[id] = e
		}
	}
	if change == nil {
		s.mu.Unlock()
		return nil, nil
	}

	saveErr := s.backend.Save(ctx, s.snapshotLocked())
	metrics.StoreSaves.WithLabelValues(metrics.Result(saveErr)).Inc()
	metrics.EventChanges.WithLabelValues(change.Kind.String()).Inc()

	seq := s.committed
	s.committed++
	s.mu.Unlock()

	s.deliver(context.WithoutCancel(ctx), seq, change)

	if saveErr != nil {
		s.logger.Error("[EventStore] Failed to persist snapshot, continuing in memory",
			"change", change.String(),
			"error", saveErr,
		)
		return change, &PersistenceError{Change: change, Err: saveErr}
	}
	return change, nil
}

// deliver waits for the fan-out of every earlier commit, then notifies the
// observers. Readers and later writers are not blocked while it waits.
func (s *Store) deliver(ctx context.Context, seq uint64, change *event.Change) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	for s.delivered != seq {
		s.notifyCond.Wait()
	}
	defer func() {
		s.delivered++
		s.notifyCond.Broadcast()
	}()
	for _, o := range s.observers {
		o.EventChanged(ctx, change)
	}
}

func (s *Store) snapshotLocked() storage.Snapshot {
	out := make(storage.Snapshot, len(s.events))
	for id, e := range s.events {
		out[id] = e
	}
	return out
}

func sortedEvents(m map[event.ID]*event.Event) []*event.Event {
	out := make([]*event.Event, 0, len(m))
	for _, e := range m {
		out = append(out, e)
	}
	slices.SortFunc(out, event.Compare)
	return out
}

// Tx is the mutable view handed to Modify callbacks. It is only valid for
// the duration of the callback.
type Tx struct {
	store  *Store
	writes map[event.ID]*event.Event
}

// Get sees writes made earlier in the same Tx.
func (tx *Tx) Get(id event.ID) (*event.Event, bool) {
	if e, ok := tx.writes[id]; ok {
		return e, e != nil
	}
	e, ok := tx.store.events[id]
	return e, ok
}

// Put stores e under e.ID, replacing any previous snapshot. e must not be
// modified afterwards.
func (tx *Tx) Put(e *event.Event) {
	tx.writes[e.ID] = e
}

// Delete removes id and returns the removed snapshot.
func (tx *Tx) Delete(id event.ID) (*event.Event, bool) {
	e, ok := tx.Get(id)
	if !ok {
		return nil, false
	}
	tx.writes[id] = nil
	return e, true
}

// Events lists the collection as it would be after commit, in time order.
func (tx *Tx) Events() []*event.Event {
	merged := make(map[event.ID]*event.Event, len(tx.store.events))
	for id, e := range tx.store.events {
		merged[id] = e
	}
	for id, e := range tx.writes {
		if e == nil {
			delete(merged, id)
		} else {
			merged[id] = e
		}
	}
	return sortedEvents(merged)
}

// NextID allocates like Store.AllocateNextID, accounting for writes in this Tx.
func (tx *Tx) NextID(kind activity.Kind) (event.ID, error) {
	return tx.store.allocateLocked(kind, tx.writes)
}

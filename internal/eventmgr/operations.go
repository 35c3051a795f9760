package eventmgr

import (
	"context"
	"fmt"
	"time"

	"github.com/fireteam-lab/fireteam/internal/activity"
	"github.com/fireteam-lab/fireteam/internal/event"
	"github.com/fireteam-lab/fireteam/internal/eventstore"
	"github.com/fireteam-lab/fireteam/internal/views"
)

// CreateRequest describes a new event.
type CreateRequest struct {
	Creator       event.Member
	Activity      activity.Kind
	ScheduledTime time.Time
	Description   string
	// GroupSize overrides the activity's default when positive.
	GroupSize int
	Recurring bool
}

// The mutating operations below return the committed snapshot. When the
// snapshot could not be persisted the change still took effect and the
// error matches eventstore.ErrPersistence.

// CreateEvent allocates an id and adds the event with its creator confirmed.
func (m *Manager) CreateEvent(ctx context.Context, req CreateRequest) (*event.Event, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	if !req.Activity.Valid() {
		return nil, fmt.Errorf("%w: %d", activity.ErrUnknown, req.Activity)
	}

	change, err := m.store.Modify(ctx, func(tx *eventstore.Tx) (*event.Change, error) {
		id, err := tx.NextID(req.Activity)
		if err != nil {
			return nil, err
		}
		e := event.New(id, req.Creator, req.ScheduledTime, req.Description)
		if req.GroupSize > 0 {
			e.GroupSize = req.GroupSize
		}
		e.Recurring = req.Recurring
		tx.Put(e)
		return event.NewAdded(e), nil
	})
	if change == nil {
		return nil, err
	}
	m.logger.Info("[EventManager] Event created", "event_id", change.Event.ID.String(), "creator", req.Creator.ID)
	return change.Event, err
}

// Join adds member to the roster for kind.
func (m *Manager) Join(ctx context.Context, id event.ID, member event.Member, kind event.JoinKind) (*event.Event, error) {
	return m.EditField(ctx, id, func(e *event.Event) error {
		return e.Join(member, kind, m.cfg.AllowDuplicateJoin)
	})
}

// Leave removes memberID from every roster.
func (m *Manager) Leave(ctx context.Context, id event.ID, memberID string) (*event.Event, error) {
	return m.EditField(ctx, id, func(e *event.Event) error {
		return e.Leave(memberID)
	})
}

// EditField applies mutate to a copy of the event and commits the copy as
// an edit. If mutate fails nothing is committed.
func (m *Manager) EditField(ctx context.Context, id event.ID, mutate func(e *event.Event) error) (*event.Event, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	change, err := m.store.Modify(ctx, func(tx *eventstore.Tx) (*event.Change, error) {
		current, ok := tx.Get(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", event.ErrNotFound, id)
		}
		next := current.Clone()
		if err := mutate(next); err != nil {
			return nil, err
		}
		tx.Put(next)
		return event.NewEdited(next), nil
	})
	if change == nil {
		return nil, err
	}
	return change.Event, err
}

// SetScheduledTime moves the event. Its alert state is reset and its
// actions are rescheduled.
func (m *Manager) SetScheduledTime(ctx context.Context, id event.ID, t time.Time) (*event.Event, error) {
	return m.EditField(ctx, id, func(e *event.Event) error {
		e.SetScheduledTime(t)
		return nil
	})
}

func (m *Manager) SetDescription(ctx context.Context, id event.ID, description string) (*event.Event, error) {
	return m.EditField(ctx, id, func(e *event.Event) error {
		e.Description = description
		return nil
	})
}

func (m *Manager) SetGroupSize(ctx context.Context, id event.ID, size int) (*event.Event, error) {
	return m.EditField(ctx, id, func(e *event.Event) error {
		return e.SetGroupSize(size)
	})
}

func (m *Manager) SetRecurring(ctx context.Context, id event.ID, recurring bool) (*event.Event, error) {
	return m.EditField(ctx, id, func(e *event.Event) error {
		e.Recurring = recurring
		return nil
	})
}

// DeleteEvent removes the event and returns its last snapshot.
func (m *Manager) DeleteEvent(ctx context.Context, id event.ID) (*event.Event, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	change, err := m.store.Modify(ctx, deleteFn(id))
	if change == nil {
		return nil, err
	}
	m.logger.Info("[EventManager] Event deleted", "event_id", id.String())
	return change.Event, err
}

func deleteFn(id event.ID) func(tx *eventstore.Tx) (*event.Change, error) {
	return func(tx *eventstore.Tx) (*event.Change, error) {
		old, ok := tx.Delete(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", event.ErrNotFound, id)
		}
		return event.NewDeleted(old), nil
	}
}

// Get returns the current snapshot of id.
func (m *Manager) Get(id event.ID) (*event.Event, error) {
	e, ok := m.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", event.ErrNotFound, id)
	}
	return e, nil
}

// List returns the events admitted by filter in time order.
func (m *Manager) List(filter activity.Filter) []*event.Event {
	all := m.store.Sorted()
	out := all[:0]
	for _, e := range all {
		if filter.Admits(e.Activity) {
			out = append(out, e)
		}
	}
	return out
}

// TrackMessage keeps msg rendering id until the event is deleted.
func (m *Manager) TrackMessage(ctx context.Context, id event.ID, msg views.TrackedMessage) error {
	current := func() (*event.Event, error) { return m.Get(id) }
	if err := m.tracker.Track(ctx, id, msg, current); err != nil {
		return fmt.Errorf("track message %s for %s: %w", msg.Handle, id, err)
	}
	return nil
}

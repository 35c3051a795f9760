package eventmgr

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fireteam-lab/fireteam/internal/event"
	"github.com/fireteam-lab/fireteam/internal/eventstore"
	"github.com/fireteam-lab/fireteam/internal/notify"
	"github.com/fireteam-lab/fireteam/internal/scheduler"
)

var _ scheduler.Handler = (*Manager)(nil)

// LookupScheduledTime implements scheduler.Handler.
func (m *Manager) LookupScheduledTime(id event.ID) (time.Time, bool) {
	e, ok := m.store.Get(id)
	if !ok {
		return time.Time{}, false
	}
	return e.ScheduledTime, true
}

// PerformAction implements scheduler.Handler.
func (m *Manager) PerformAction(ctx context.Context, action scheduler.Action) error {
	if m.closed.Load() {
		return scheduler.ErrHandlerGone
	}
	switch action.Kind {
	case scheduler.ActionAlert:
		return m.Alert(ctx, action.EventID)
	case scheduler.ActionCleanup:
		return m.Cleanup(ctx, action.EventID)
	default:
		return fmt.Errorf("unknown action kind %s", action.Kind)
	}
}

// Alert freezes the event's full groups into its alert message and sends
// that message to every member of a full group. Notification failures are
// logged and do not fail the alert.
func (m *Manager) Alert(ctx context.Context, id event.ID) error {
	var members []event.Member
	change, err := m.store.Modify(ctx, func(tx *eventstore.Tx) (*event.Change, error) {
		current, ok := tx.Get(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", event.ErrNotFound, id)
		}
		next := current.Clone()
		members = next.TriggerAlert()
		tx.Put(next)
		return event.NewAlert(next), nil
	})
	if change == nil {
		return err
	}

	m.logger.Info("[EventManager] Alert protocol", "event_id", id.String(), "members", len(members))
	msg := *change.Event.AlertMessage
	for _, member := range members {
		n := notify.Notification{
			GuildID: m.cfg.GuildID,
			EventID: id.String(),
			Member:  member,
			Message: msg,
		}
		if nerr := m.notifier.Notify(ctx, n); nerr != nil {
			m.logger.Error("[EventManager] Failed to notify member",
				"event_id", id.String(),
				"member", member.ID,
				"error", nerr,
			)
		}
	}
	return err
}

// Cleanup removes a finished event. A recurring event is recreated under a
// fresh id at its next weekly occurrence after now, with empty rosters.
func (m *Manager) Cleanup(ctx context.Context, id event.ID) error {
	change, err := m.store.Modify(ctx, deleteFn(id))
	if change == nil {
		return err
	}
	old := change.Event
	m.logger.Info("[EventManager] Event cleaned up", "event_id", id.String(), "recurring", old.Recurring)
	if !old.Recurring {
		return err
	}

	next, rerr := event.NextWeeklyOccurrence(old.ScheduledTime, m.clock.Now())
	if rerr != nil {
		return errors.Join(err, rerr)
	}

	added, aerr := m.store.Modify(ctx, func(tx *eventstore.Tx) (*event.Change, error) {
		newID, err := tx.NextID(old.Activity)
		if err != nil {
			return nil, err
		}
		e := event.New(newID, old.Creator, next, old.Description)
		e.Confirmed = []event.Member{}
		e.GroupSize = old.GroupSize
		e.Recurring = true
		tx.Put(e)
		return event.NewAdded(e), nil
	})
	if added != nil {
		m.logger.Info("[EventManager] Recurring event recreated",
			"from", id.String(),
			"event_id", added.Event.ID.String(),
			"scheduled_time", next,
		)
	}
	return errors.Join(err, aerr)
}

package scheduler

import (
	"fmt"
	"time"

	"github.com/fireteam-lab/fireteam/internal/event"
)

// ActionKind is what to do when an action fires.
type ActionKind uint8

const (
	// ActionAlert runs the alert protocol shortly before the event.
	ActionAlert ActionKind = iota
	// ActionCleanup removes a finished event and recreates recurring ones.
	ActionCleanup
)

func (k ActionKind) String() string {
	switch k {
	case ActionAlert:
		return "alert"
	case ActionCleanup:
		return "cleanup"
	default:
		return fmt.Sprintf("ActionKind(%d)", k)
	}
}

// Action is one pending timed action. EventTime records the event's
// scheduled time when the action was derived; an action whose EventTime no
// longer matches the event is stale.
type Action struct {
	FiresAt   time.Time
	EventID   event.ID
	Kind      ActionKind
	EventTime time.Time
}

func (a Action) String() string {
	return fmt.Sprintf("%s %s @ %s", a.Kind, a.EventID, a.FiresAt.Format(time.RFC3339))
}

// compareActions orders by fire time, then event id, then kind.
func compareActions(a, b Action) int {
	if c := a.FiresAt.Compare(b.FiresAt); c != 0 {
		return c
	}
	if c := a.EventID.Compare(b.EventID); c != 0 {
		return c
	}
	return int(a.Kind) - int(b.Kind)
}

// derive returns the alert and cleanup actions of e.
func derive(e *event.Event, cfg Config) []Action {
	return []Action{
		{FiresAt: e.ScheduledTime.Add(-cfg.AlertLead), EventID: e.ID, Kind: ActionAlert, EventTime: e.ScheduledTime},
		{FiresAt: e.ScheduledTime.Add(cfg.CleanupGrace), EventID: e.ID, Kind: ActionCleanup, EventTime: e.ScheduledTime},
	}
}

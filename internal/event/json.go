package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fireteam-lab/fireteam/internal/activity"
)

// zonedTime keeps the IANA zone name next to the instant so that events
// reload in the zone they were scheduled in.
type zonedTime struct {
	Time time.Time `json:"time"`
	Zone string    `json:"zone"`
}

func newZonedTime(t time.Time) zonedTime {
	return zonedTime{Time: t, Zone: t.Location().String()}
}

func (z zonedTime) value() (time.Time, error) {
	if z.Zone == "" {
		return z.Time, nil
	}
	loc, err := time.LoadLocation(z.Zone)
	if err != nil {
		return time.Time{}, fmt.Errorf("load zone %q: %w", z.Zone, err)
	}
	return z.Time.In(loc), nil
}

type eventJSON struct {
	ID            ID            `json:"id"`
	Activity      activity.Kind `json:"activity"`
	ScheduledTime zonedTime     `json:"scheduled_time"`
	Description   string        `json:"description"`
	GroupSize     int           `json:"group_size"`
	Recurring     bool          `json:"recurring"`
	Creator       Member        `json:"creator"`
	Confirmed     []Member      `json:"confirmed"`
	Alternates    []Member      `json:"alternates"`
	Maybe         []Member      `json:"maybe"`
	AlertMessage  *string       `json:"alert_message,omitempty"`
}

func (e *Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(eventJSON{
		ID:            e.ID,
		Activity:      e.Activity,
		ScheduledTime: newZonedTime(e.ScheduledTime),
		Description:   e.Description,
		GroupSize:     e.GroupSize,
		Recurring:     e.Recurring,
		Creator:       e.Creator,
		Confirmed:     nonNil(e.Confirmed),
		Alternates:    nonNil(e.Alternates),
		Maybe:         nonNil(e.Maybe),
		AlertMessage:  e.AlertMessage,
	})
}

func (e *Event) UnmarshalJSON(b []byte) error {
	var raw eventJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	scheduled, err := raw.ScheduledTime.value()
	if err != nil {
		return err
	}
	if raw.GroupSize < 1 {
		return ErrInvalidGroupSize
	}
	*e = Event{
		ID:            raw.ID,
		Activity:      raw.Activity,
		ScheduledTime: scheduled,
		Description:   raw.Description,
		GroupSize:     raw.GroupSize,
		Recurring:     raw.Recurring,
		Creator:       raw.Creator,
		Confirmed:     nonNil(raw.Confirmed),
		Alternates:    nonNil(raw.Alternates),
		Maybe:         nonNil(raw.Maybe),
		AlertMessage:  raw.AlertMessage,
	}
	return nil
}

func nonNil(m []Member) []Member {
	if m == nil {
		return []Member{}
	}
	return m
}

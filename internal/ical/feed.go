// Package ical exports a guild's events as an iCalendar feed.
package ical

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/fireteam-lab/fireteam/internal/event"
)

const productID = "-//fireteam//LFG events//EN"

// DefaultDuration is the length given to events, which carry no end time.
const DefaultDuration = 2 * time.Hour

// Feed renders events into a calendar.
type Feed struct {
	GuildID  string
	Duration time.Duration
}

// UID is the stable calendar uid of an event. Recreated recurring events get
// a new id and so a new uid.
func (f Feed) UID(id event.ID) string {
	return fmt.Sprintf("%s-%s@fireteam", f.GuildID, id)
}

// Build returns the calendar of events, stamped with now.
func (f Feed) Build(events []*event.Event, now time.Time) *ics.Calendar {
	duration := f.Duration
	if duration <= 0 {
		duration = DefaultDuration
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	cal.SetName("LFG events " + f.GuildID)

	for _, e := range events {
		ve := cal.AddEvent(f.UID(e.ID))
		ve.SetDtStampTime(now.UTC())
		ve.SetStartAt(e.ScheduledTime.UTC())
		ve.SetEndAt(e.ScheduledTime.Add(duration).UTC())
		ve.SetSummary(fmt.Sprintf("%s (%s)", e.Activity, e.ID))
		ve.SetDescription(description(e))
		ve.SetProperty(ics.ComponentPropertyCategories, e.Activity.Type().String())
		if e.Recurring {
			ve.AddRrule("FREQ=WEEKLY")
		}
	}
	return cal
}

// Serialize is Build rendered as text.
func (f Feed) Serialize(events []*event.Event, now time.Time) string {
	return f.Build(events, now).Serialize()
}

func description(e *event.Event) string {
	var b strings.Builder
	if e.Description != "" {
		b.WriteString(e.Description)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Created by %s. %d/%d confirmed", e.Creator.Name, len(e.Confirmed), e.GroupSize)
	if n := len(e.Alternates); n > 0 {
		fmt.Fprintf(&b, ", %d alternates", n)
	}
	return b.String()
}

package event

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// NextWeeklyOccurrence returns the first weekly repeat of from that is
// strictly after both from and now. Weeks are counted on the wall clock of
// from's zone, so the local start time survives DST changes.
func NextWeeklyOccurrence(from, now time.Time) (time.Time, error) {
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:     rrule.WEEKLY,
		Interval: 1,
		Dtstart:  from,
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("build weekly rule: %w", err)
	}

	after := from
	if now.After(after) {
		after = now
	}
	next := rule.After(after, false)
	if next.IsZero() {
		return time.Time{}, fmt.Errorf("no weekly occurrence after %s", after)
	}
	return next.In(from.Location()), nil
}

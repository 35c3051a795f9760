package event

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/fireteam-lab/fireteam/internal/activity"
)

// Member is a participant snapshot taken when they join.
type Member struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Mention renders the chat mention for the member.
func (m Member) Mention() string { return "<@" + m.ID + ">" }

// JoinKind selects the roster a member joins.
type JoinKind uint8

const (
	JoinConfirmed JoinKind = iota
	JoinAlternate
	JoinMaybe
)

func (k JoinKind) String() string {
	switch k {
	case JoinConfirmed:
		return "join"
	case JoinAlternate:
		return "alt"
	case JoinMaybe:
		return "maybe"
	default:
		return fmt.Sprintf("JoinKind(%d)", k)
	}
}

// ParseJoinKind accepts "join"/"confirmed", "alt"/"alternate" and "maybe".
func ParseJoinKind(s string) (JoinKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "join", "confirmed", "":
		return JoinConfirmed, nil
	case "alt", "alternate":
		return JoinAlternate, nil
	case "maybe":
		return JoinMaybe, nil
	default:
		return 0, fmt.Errorf("unknown join kind %q", s)
	}
}

// Event is the aggregate root of the LFG domain. Stored events are never
// mutated in place: callers Clone, modify the copy, and replace the slot.
type Event struct {
	ID            ID
	Activity      activity.Kind
	ScheduledTime time.Time
	Description   string
	GroupSize     int
	Recurring     bool
	Creator       Member
	Confirmed     []Member
	Alternates    []Member
	Maybe         []Member

	// AlertMessage is non-nil once the alert protocol ran. It is reset when
	// ScheduledTime changes.
	AlertMessage *string
}

// New builds a fresh event with the creator confirmed.
func New(id ID, creator Member, scheduled time.Time, description string) *Event {
	return &Event{
		ID:            id,
		Activity:      id.Activity,
		ScheduledTime: scheduled,
		Description:   description,
		GroupSize:     id.Activity.DefaultGroupSize(),
		Creator:       creator,
		Confirmed:     []Member{creator},
		Alternates:    []Member{},
		Maybe:         []Member{},
	}
}

// Clone returns a deep copy.
func (e *Event) Clone() *Event {
	c := *e
	c.Confirmed = slices.Clone(e.Confirmed)
	c.Alternates = slices.Clone(e.Alternates)
	c.Maybe = slices.Clone(e.Maybe)
	if e.AlertMessage != nil {
		msg := *e.AlertMessage
		c.AlertMessage = &msg
	}
	return &c
}

// SetScheduledTime moves the event and forgets any alert that was sent for the old time.
func (e *Event) SetScheduledTime(t time.Time) {
	e.ScheduledTime = t
	e.AlertMessage = nil
}

// SetGroupSize changes the party size.
func (e *Event) SetGroupSize(n int) error {
	if n < 1 {
		return ErrInvalidGroupSize
	}
	e.GroupSize = n
	return nil
}

// Alerted reports whether the alert protocol has run for the current time.
func (e *Event) Alerted() bool { return e.AlertMessage != nil }

// Less orders events by scheduled time, then id.
func Less(a, b *Event) bool { return Compare(a, b) < 0 }

// Compare is the three-way form of Less.
func Compare(a, b *Event) int {
	if c := a.ScheduledTime.Compare(b.ScheduledTime); c != 0 {
		return c
	}
	return a.ID.Compare(b.ID)
}

func (e *Event) roster(kind JoinKind) *[]Member {
	switch kind {
	case JoinAlternate:
		return &e.Alternates
	case JoinMaybe:
		return &e.Maybe
	default:
		return &e.Confirmed
	}
}

// Contains reports whether memberID is on any roster.
func (e *Event) Contains(memberID string) bool {
	for _, kind := range []JoinKind{JoinConfirmed, JoinAlternate, JoinMaybe} {
		if slices.ContainsFunc(*e.roster(kind), func(m Member) bool { return m.ID == memberID }) {
			return true
		}
	}
	return false
}

// Join appends member to the roster for kind. Unless allowDuplicate is set the
// member must not already be on any roster; moving between rosters takes a
// Leave first.
func (e *Event) Join(member Member, kind JoinKind, allowDuplicate bool) error {
	if !allowDuplicate && e.Contains(member.ID) {
		return ErrAlreadyInEvent
	}
	list := e.roster(kind)
	*list = append(*list, member)
	return nil
}

// Leave removes memberID from every roster.
func (e *Event) Leave(memberID string) error {
	removed := false
	for _, kind := range []JoinKind{JoinConfirmed, JoinAlternate, JoinMaybe} {
		list := e.roster(kind)
		before := len(*list)
		*list = slices.DeleteFunc(*list, func(m Member) bool { return m.ID == memberID })
		if len(*list) != before {
			removed = true
		}
	}
	if !removed {
		return ErrNotInEvent
	}
	return nil
}

// GroupMember is a roster entry placed into a group.
type GroupMember struct {
	Member
	Alternate bool
}

// ConfirmedGroups chunks confirmed members followed by alternates into groups
// of GroupSize. A trailing partial group is kept only if it starts with a
// confirmed member.
func (e *Event) ConfirmedGroups() [][]GroupMember {
	size := max(e.GroupSize, 1)
	combined := make([]GroupMember, 0, len(e.Confirmed)+len(e.Alternates))
	for _, m := range e.Confirmed {
		combined = append(combined, GroupMember{Member: m})
	}
	for _, m := range e.Alternates {
		combined = append(combined, GroupMember{Member: m, Alternate: true})
	}

	var groups [][]GroupMember
	for chunk := range slices.Chunk(combined, size) {
		if len(chunk) != size && chunk[0].Alternate {
			break
		}
		groups = append(groups, chunk)
	}
	return groups
}

// ExtraAlternates returns the alternates not needed to fill the last partial group.
func (e *Event) ExtraAlternates() []Member {
	size := max(e.GroupSize, 1)
	partial := (len(e.Confirmed) + len(e.Alternates)) % size
	skip := len(e.Alternates)
	if len(e.Alternates) >= partial {
		skip = len(e.Alternates) - partial
	}
	return e.Alternates[skip:]
}

// TriggerAlert freezes the alert message from the current full groups and
// returns the members to notify. The message is empty when no group is full.
func (e *Event) TriggerAlert() []Member {
	var lines []string
	var members []Member
	for _, group := range e.ConfirmedGroups() {
		if len(group) != e.GroupSize {
			continue
		}
		mentions := make([]string, 0, len(group))
		for _, gm := range group {
			mentions = append(mentions, gm.Mention())
			members = append(members, gm.Member)
		}
		lines = append(lines, fmt.Sprintf("Group %d: %s", len(lines)+1, strings.Join(mentions, ", ")))
	}

	msg := ""
	if len(lines) > 0 {
		msg = fmt.Sprintf("Alert Protocol initiated for LFG **%s** (%s)\n%s", e.ID, e.Activity, strings.Join(lines, "\n"))
	}
	e.AlertMessage = &msg
	return members
}

package v1

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fireteam-lab/fireteam/internal/activity"
	"github.com/fireteam-lab/fireteam/internal/event"
)

// Member identifies a chat user.
type Member struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (m Member) validate() error {
	if m.ID == "" {
		return fmt.Errorf("member.id is required")
	}
	return nil
}

// Domain converts the DTO to the domain member.
func (m Member) Domain() event.Member { return event.Member{ID: m.ID, Name: m.Name} }

// CreateEventRequest is the body of POST /events.
type CreateEventRequest struct {
	Creator Member `json:"creator"`

	// Activity is an id prefix ("vog") or a display name ("Vault of Glass").
	Activity string `json:"activity"`

	// ScheduledTime keeps the offset the client sent it with.
	ScheduledTime time.Time `json:"scheduled_time"`

	Description string `json:"description,omitempty"`

	// GroupSize overrides the activity default when positive.
	GroupSize int `json:"group_size,omitempty"`

	Recurring bool `json:"recurring,omitempty"`
}

// Validate checks the request and resolves its activity.
func (r *CreateEventRequest) Validate() (activity.Kind, error) {
	if err := r.Creator.validate(); err != nil {
		return 0, err
	}
	if r.Activity == "" {
		return 0, fmt.Errorf("activity is required")
	}
	kind, err := activity.Parse(r.Activity)
	if err != nil {
		return 0, err
	}
	if r.ScheduledTime.IsZero() {
		return 0, fmt.Errorf("scheduled_time is required")
	}
	if r.GroupSize < 0 {
		return 0, event.ErrInvalidGroupSize
	}
	return kind, nil
}

// JoinRequest is the body of POST /events/:event_id/join.
type JoinRequest struct {
	Member Member `json:"member"`
	// Kind is "join" (default), "alt" or "maybe".
	Kind string `json:"kind,omitempty"`
}

func (r *JoinRequest) Validate() (event.JoinKind, error) {
	if err := r.Member.validate(); err != nil {
		return 0, err
	}
	return event.ParseJoinKind(r.Kind)
}

// LeaveRequest is the body of POST /events/:event_id/leave.
type LeaveRequest struct {
	MemberID string `json:"member_id"`
}

func (r *LeaveRequest) Validate() error {
	if r.MemberID == "" {
		return fmt.Errorf("member_id is required")
	}
	return nil
}

// Editable fields of PATCH /events/:event_id.
const (
	FieldTime        = "time"
	FieldDescription = "description"
	FieldGroupSize   = "group_size"
	FieldRecurring   = "recurring"
)

// EditRequest changes one field of an event. Value is parsed according to
// Field: RFC 3339 for time, an integer for group_size and a boolean for
// recurring.
type EditRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// Edit is a parsed EditRequest. Only the member matching Field is set.
type Edit struct {
	Field       string
	Time        time.Time
	Description string
	GroupSize   int
	Recurring   bool
}

func (r *EditRequest) Parse() (Edit, error) {
	edit := Edit{Field: strings.ToLower(strings.TrimSpace(r.Field))}
	var err error
	switch edit.Field {
	case FieldTime:
		edit.Time, err = time.Parse(time.RFC3339, r.Value)
	case FieldDescription:
		edit.Description = r.Value
	case FieldGroupSize:
		edit.GroupSize, err = strconv.Atoi(r.Value)
		if err == nil && edit.GroupSize < 1 {
			err = event.ErrInvalidGroupSize
		}
	case FieldRecurring:
		edit.Recurring, err = strconv.ParseBool(r.Value)
	default:
		return Edit{}, fmt.Errorf("unknown field %q", r.Field)
	}
	if err != nil {
		return Edit{}, fmt.Errorf("invalid %s value: %w", edit.Field, err)
	}
	return edit, nil
}

// TrackRequest registers a standalone message that mirrors one event.
type TrackRequest struct {
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
}

func (r *TrackRequest) Validate() error {
	if r.ChannelID == "" || r.MessageID == "" {
		return fmt.Errorf("channel_id and message_id are required")
	}
	return nil
}

// EventResponse is the wire form of an event.
type EventResponse struct {
	ID            string    `json:"id"`
	Activity      string    `json:"activity"`
	ActivityType  string    `json:"activity_type"`
	ScheduledTime time.Time `json:"scheduled_time"`
	Description   string    `json:"description"`
	GroupSize     int       `json:"group_size"`
	Recurring     bool      `json:"recurring"`
	Creator       Member    `json:"creator"`
	Confirmed     []Member  `json:"confirmed"`
	Alternates    []Member  `json:"alternates"`
	Maybe         []Member  `json:"maybe"`
	AlertMessage  *string   `json:"alert_message,omitempty"`
}

func NewEventResponse(e *event.Event) EventResponse {
	return EventResponse{
		ID:            e.ID.String(),
		Activity:      e.Activity.String(),
		ActivityType:  e.Activity.Type().String(),
		ScheduledTime: e.ScheduledTime,
		Description:   e.Description,
		GroupSize:     e.GroupSize,
		Recurring:     e.Recurring,
		Creator:       fromDomain(e.Creator),
		Confirmed:     fromDomainList(e.Confirmed),
		Alternates:    fromDomainList(e.Alternates),
		Maybe:         fromDomainList(e.Maybe),
		AlertMessage:  e.AlertMessage,
	}
}

func fromDomain(m event.Member) Member { return Member{ID: m.ID, Name: m.Name} }

func fromDomainList(members []event.Member) []Member {
	out := make([]Member, 0, len(members))
	for _, m := range members {
		out = append(out, fromDomain(m))
	}
	return out
}

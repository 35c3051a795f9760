package v1

import (
	"fmt"
	"strings"

	"github.com/fireteam-lab/fireteam/internal/event"
)

// Interaction types.
const (
	InteractionPing      = "ping"
	InteractionComponent = "component"
)

// Component actions carried in custom ids.
const (
	ActionJoin  = "join"
	ActionAlt   = "alt"
	ActionMaybe = "maybe"
	ActionLeave = "leave"
)

// Interaction is a button press or a liveness ping relayed from the chat gateway.
type Interaction struct {
	Type     string `json:"type"`
	CustomID string `json:"custom_id,omitempty"`
	Member   Member `json:"member"`
}

// ComponentAction is a parsed component custom id such as "join:vog42".
type ComponentAction struct {
	Action  string
	EventID event.ID
}

// JoinKind maps the action to a roster. Leave has none.
func (a ComponentAction) JoinKind() (event.JoinKind, bool) {
	switch a.Action {
	case ActionJoin:
		return event.JoinConfirmed, true
	case ActionAlt:
		return event.JoinAlternate, true
	case ActionMaybe:
		return event.JoinMaybe, true
	default:
		return 0, false
	}
}

// ParseComponent validates a component interaction and parses its custom id.
func (i *Interaction) ParseComponent() (ComponentAction, error) {
	if err := i.Member.validate(); err != nil {
		return ComponentAction{}, err
	}
	action, rawID, ok := strings.Cut(i.CustomID, ":")
	if !ok {
		return ComponentAction{}, fmt.Errorf("malformed custom_id %q", i.CustomID)
	}
	switch action {
	case ActionJoin, ActionAlt, ActionMaybe, ActionLeave:
	default:
		return ComponentAction{}, fmt.Errorf("unknown component action %q", action)
	}
	id, err := event.ParseID(rawID)
	if err != nil {
		return ComponentAction{}, err
	}
	return ComponentAction{Action: action, EventID: id}, nil
}

// InteractionResponse acknowledges an interaction. Event is set when the
// interaction changed one.
type InteractionResponse struct {
	Type    string         `json:"type"`
	Message string         `json:"message,omitempty"`
	Event   *EventResponse `json:"event,omitempty"`
}

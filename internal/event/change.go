package event

import "fmt"

// ChangeKind tags what happened to an event.
type ChangeKind uint8

const (
	Added ChangeKind = iota
	Edited
	Deleted
	Alert
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Edited:
		return "edited"
	case Deleted:
		return "deleted"
	case Alert:
		return "alert"
	default:
		return fmt.Sprintf("ChangeKind(%d)", k)
	}
}

// Change carries the post-mutation snapshot, or the pre-removal snapshot for Deleted.
// Receivers must treat Event as read-only.
type Change struct {
	Kind  ChangeKind
	Event *Event
}

func NewAdded(e *Event) *Change   { return &Change{Kind: Added, Event: e} }
func NewEdited(e *Event) *Change  { return &Change{Kind: Edited, Event: e} }
func NewDeleted(e *Event) *Change { return &Change{Kind: Deleted, Event: e} }
func NewAlert(e *Event) *Change   { return &Change{Kind: Alert, Event: e} }

func (c *Change) String() string {
	return fmt.Sprintf("%s %s", c.Kind, c.Event.ID)
}

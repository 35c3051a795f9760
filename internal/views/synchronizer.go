package views

import (
	"fmt"
	"slices"

	"github.com/fireteam-lab/fireteam/internal/event"
)

// Filter decides whether an event belongs to a view.
type Filter func(e *event.Event) bool

// AcceptAll is a Filter that admits every event.
func AcceptAll(*event.Event) bool { return true }

// OpKind tags an Op.
type OpKind uint8

const (
	OpInsertAtEnd OpKind = iota
	OpUpdateAt
	OpDeleteAt
)

func (k OpKind) String() string {
	switch k {
	case OpInsertAtEnd:
		return "insert"
	case OpUpdateAt:
		return "update"
	case OpDeleteAt:
		return "delete"
	default:
		return fmt.Sprintf("OpKind(%d)", k)
	}
}

// Op is one change to the external ordered list. Event is nil for deletes;
// Index is unused for inserts.
type Op struct {
	Kind  OpKind
	Event *event.Event
	Index int
}

func InsertAtEnd(e *event.Event) Op       { return Op{Kind: OpInsertAtEnd, Event: e} }
func UpdateAt(e *event.Event, idx int) Op { return Op{Kind: OpUpdateAt, Event: e, Index: idx} }
func DeleteAt(idx int) Op                 { return Op{Kind: OpDeleteAt, Index: idx} }

func (o Op) String() string {
	switch o.Kind {
	case OpInsertAtEnd:
		return fmt.Sprintf("insert %s", o.Event.ID)
	case OpUpdateAt:
		return fmt.Sprintf("update %d=%s", o.Index, o.Event.ID)
	default:
		return fmt.Sprintf("delete %d", o.Index)
	}
}

// Synchronizer keeps the filtered, sorted list of events shown in one view
// and translates changes into index operations. It is not safe for
// concurrent use.
type Synchronizer struct {
	filter Filter
	events []*event.Event
}

// NewSynchronizer starts from the events of initial that pass filter.
func NewSynchronizer(filter Filter, initial []*event.Event) *Synchronizer {
	if filter == nil {
		filter = AcceptAll
	}
	s := &Synchronizer{filter: filter}
	for _, e := range initial {
		if filter(e) {
			s.events = append(s.events, e)
		}
	}
	slices.SortFunc(s.events, event.Compare)
	return s
}

// Events returns the current list. Callers must not modify it.
func (s *Synchronizer) Events() []*event.Event { return s.events }

// Len is the number of events in the view.
func (s *Synchronizer) Len() int { return len(s.events) }

// Apply updates the list for change and returns the operations that bring a
// list mirroring the previous state in line with the new one.
func (s *Synchronizer) Apply(change *event.Change) []Op {
	oldIdx, newIdx := -1, -1

	switch change.Kind {
	case event.Edited, event.Deleted, event.Alert:
		oldIdx = slices.IndexFunc(s.events, func(e *event.Event) bool { return e.ID == change.Event.ID })
		if oldIdx >= 0 {
			s.events = slices.Delete(s.events, oldIdx, oldIdx+1)
		}
	}

	switch change.Kind {
	case event.Added, event.Edited, event.Alert:
		if s.filter(change.Event) {
			newIdx, _ = slices.BinarySearchFunc(s.events, change.Event, event.Compare)
			s.events = slices.Insert(s.events, newIdx, change.Event)
		}
	}

	switch {
	case oldIdx < 0 && newIdx < 0:
		return nil
	case oldIdx < 0:
		last := len(s.events) - 1
		ops := make([]Op, 0, last-newIdx+1)
		for i := newIdx; i < last; i++ {
			ops = append(ops, UpdateAt(s.events[i], i))
		}
		return append(ops, InsertAtEnd(s.events[last]))
	case newIdx < 0:
		return []Op{DeleteAt(oldIdx)}
	default:
		lo, hi := min(oldIdx, newIdx), max(oldIdx, newIdx)
		ops := make([]Op, 0, hi-lo+1)
		for i := lo; i <= hi; i++ {
			ops = append(ops, UpdateAt(s.events[i], i))
		}
		return ops
	}
}

// Reconcile returns the operations that turn a list of existing entries of
// unknown content into the current list: overlapping slots are updated,
// surplus slots deleted from the end, and missing slots appended.
func (s *Synchronizer) Reconcile(existing int) []Op {
	var ops []Op
	overlap := min(existing, len(s.events))
	for i := 0; i < overlap; i++ {
		ops = append(ops, UpdateAt(s.events[i], i))
	}
	for i := existing - 1; i >= len(s.events); i-- {
		ops = append(ops, DeleteAt(i))
	}
	for i := existing; i < len(s.events); i++ {
		ops = append(ops, InsertAtEnd(s.events[i]))
	}
	return ops
}

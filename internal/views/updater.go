package views

import (
	"context"
	"fmt"
	"slices"

	"github.com/fireteam-lab/fireteam/internal/metrics"
)

// Updater mirrors a Synchronizer's list onto a MessageSink. It owns the
// index to handle mapping and caches what each slot last displayed so
// unchanged updates are skipped.
type Updater struct {
	sink     MessageSink
	handles  []Handle
	rendered []*RenderedView
}

func NewUpdater(sink MessageSink) *Updater {
	if sink == nil {
		panic("views: sink must not be nil")
	}
	return &Updater{sink: sink}
}

// Handles returns the current mapping.
func (u *Updater) Handles() []Handle { return slices.Clone(u.handles) }

// Reset discards local state, adopts the sink's existing messages and
// rewrites them to match sync.
func (u *Updater) Reset(ctx context.Context, sync *Synchronizer) error {
	u.handles = nil
	u.rendered = nil

	existing, err := u.sink.ListExisting(ctx)
	if err != nil {
		metrics.ViewOperations.WithLabelValues("list", "error").Inc()
		return fmt.Errorf("list existing messages: %w", err)
	}
	u.handles = slices.Clone(existing)
	u.rendered = make([]*RenderedView, len(existing))

	for _, op := range sync.Reconcile(len(existing)) {
		if err := u.Apply(ctx, op); err != nil {
			return err
		}
	}
	return nil
}

// Apply performs one operation against the sink. On error the caller must
// Reset before applying further operations.
func (u *Updater) Apply(ctx context.Context, op Op) error {
	switch op.Kind {
	case OpInsertAtEnd:
		view := Render(op.Event)
		handle, err := u.sink.Create(ctx, view)
		metrics.ViewOperations.WithLabelValues("create", metrics.Result(err)).Inc()
		if err != nil {
			return fmt.Errorf("create message for %s: %w", op.Event.ID, err)
		}
		u.handles = append(u.handles, handle)
		u.rendered = append(u.rendered, &view)

	case OpUpdateAt:
		if op.Index < 0 || op.Index >= len(u.handles) {
			return fmt.Errorf("%w: update %d of %d", ErrDesync, op.Index, len(u.handles))
		}
		view := Render(op.Event)
		if prev := u.rendered[op.Index]; prev != nil && prev.Equal(view) {
			metrics.ViewOperations.WithLabelValues("update", "skipped").Inc()
			return nil
		}
		err := u.sink.Update(ctx, u.handles[op.Index], view)
		metrics.ViewOperations.WithLabelValues("update", metrics.Result(err)).Inc()
		if err != nil {
			return fmt.Errorf("update message %d for %s: %w", op.Index, op.Event.ID, err)
		}
		u.rendered[op.Index] = &view

	case OpDeleteAt:
		if op.Index < 0 || op.Index >= len(u.handles) {
			return fmt.Errorf("%w: delete %d of %d", ErrDesync, op.Index, len(u.handles))
		}
		err := u.sink.Delete(ctx, u.handles[op.Index])
		metrics.ViewOperations.WithLabelValues("delete", metrics.Result(err)).Inc()
		if err != nil {
			return fmt.Errorf("delete message %d: %w", op.Index, err)
		}
		u.handles = slices.Delete(u.handles, op.Index, op.Index+1)
		u.rendered = slices.Delete(u.rendered, op.Index, op.Index+1)
	}
	return nil
}

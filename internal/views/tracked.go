package views

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/fireteam-lab/fireteam/internal/event"
)

// TrackedMessage is a standalone message that mirrors a single event, such
// as the reply to a "show" command.
type TrackedMessage struct {
	ChannelID string `json:"channel_id"`
	Handle    Handle `json:"message_id"`
}

// Tracker keeps tracked messages current: edits and alerts rewrite them and
// deletion removes them. Work is queued and done by Run.
type Tracker struct {
	sinks  SinkFactory
	logger *slog.Logger

	mu       sync.Mutex
	messages map[event.ID][]TrackedMessage

	// renderMu orders the first render of a message against queued refreshes.
	renderMu sync.Mutex

	queue   chan *event.Change
	stopped chan struct{}
}

func NewTracker(sinks SinkFactory, queueSize int) *Tracker {
	if sinks == nil {
		panic("views: sink factory must not be nil")
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Tracker{
		sinks:    sinks,
		logger:   slog.Default(),
		messages: map[event.ID][]TrackedMessage{},
		queue:    make(chan *event.Change, queueSize),
		stopped:  make(chan struct{}),
	}
}

// Track starts mirroring event id into msg and renders it once. The message
// is registered before current is read, so a change committed in between is
// still delivered to it. On error the registration is undone.
func (t *Tracker) Track(ctx context.Context, id event.ID, msg TrackedMessage, current func() (*event.Event, error)) error {
	added := t.register(id, msg)

	t.renderMu.Lock()
	defer t.renderMu.Unlock()
	e, err := current()
	if err == nil {
		err = t.sinks(msg.ChannelID).Update(ctx, msg.Handle, Render(e))
	}
	if err != nil && added {
		t.unregister(id, msg)
	}
	return err
}

func (t *Tracker) register(id event.ID, msg TrackedMessage) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if slices.Contains(t.messages[id], msg) {
		return false
	}
	t.messages[id] = append(t.messages[id], msg)
	return true
}

func (t *Tracker) unregister(id event.ID, msg TrackedMessage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	msgs := slices.DeleteFunc(t.messages[id], func(m TrackedMessage) bool { return m == msg })
	if len(msgs) == 0 {
		delete(t.messages, id)
		return
	}
	t.messages[id] = msgs
}

// Tracked lists the messages mirroring id.
func (t *Tracker) Tracked(id event.ID) []TrackedMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.messages[id])
}

// EventChanged queues changes of tracked events, blocking while the queue
// is full.
func (t *Tracker) EventChanged(ctx context.Context, change *event.Change) {
	if change.Kind == event.Added {
		return
	}
	t.mu.Lock()
	tracked := len(t.messages[change.Event.ID]) > 0
	t.mu.Unlock()
	if !tracked {
		return
	}
	select {
	case t.queue <- change:
	case <-ctx.Done():
	case <-t.stopped:
	}
}

// Run applies queued changes until ctx ends. Sink failures are logged.
func (t *Tracker) Run(ctx context.Context) error {
	defer close(t.stopped)
	for {
		select {
		case <-ctx.Done():
			return nil
		case change := <-t.queue:
			t.apply(ctx, change)
		}
	}
}

func (t *Tracker) apply(ctx context.Context, change *event.Change) {
	t.mu.Lock()
	msgs := slices.Clone(t.messages[change.Event.ID])
	if change.Kind == event.Deleted {
		delete(t.messages, change.Event.ID)
	}
	t.mu.Unlock()

	t.renderMu.Lock()
	defer t.renderMu.Unlock()
	for _, msg := range msgs {
		sink := t.sinks(msg.ChannelID)
		var err error
		if change.Kind == event.Deleted {
			err = sink.Delete(ctx, msg.Handle)
		} else {
			err = sink.Update(ctx, msg.Handle, Render(change.Event))
		}
		if err != nil {
			t.logger.Error("[Views] Failed to refresh tracked message",
				"event_id", change.Event.ID.String(),
				"channel", msg.ChannelID,
				"message", string(msg.Handle),
				"error", err,
			)
		}
	}
}

package views

import (
	"context"
	"errors"
)

// Handle identifies one external message. Its meaning belongs to the sink.
type Handle string

// MessageSink manages the messages of one chat channel.
type MessageSink interface {
	Create(ctx context.Context, view RenderedView) (Handle, error)
	Update(ctx context.Context, handle Handle, view RenderedView) error
	Delete(ctx context.Context, handle Handle) error
	// ListExisting returns this bot's messages in the channel, oldest first.
	ListExisting(ctx context.Context) ([]Handle, error)
}

// SinkFactory returns the sink of a channel.
type SinkFactory func(channelID string) MessageSink

// ErrDesync is returned when an operation refers to an index the updater does not hold.
var ErrDesync = errors.New("view index out of range")

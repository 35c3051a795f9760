package discord

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"github.com/fireteam-lab/fireteam/internal/views"
)

const (
	pathMessages = "/channels/{channel}/messages"
	pathMessage  = "/channels/{channel}/messages/{message}"

	listLimit = "100"
)

// ChannelSink is a views.MessageSink over one text channel.
type ChannelSink struct {
	client    *Client
	channelID string
}

var _ views.MessageSink = (*ChannelSink)(nil)

// Channel returns the sink of channelID.
func (c *Client) Channel(channelID string) *ChannelSink {
	return &ChannelSink{client: c, channelID: channelID}
}

// Sinks adapts the client to views.SinkFactory.
func (c *Client) Sinks() views.SinkFactory {
	return func(channelID string) views.MessageSink { return c.Channel(channelID) }
}

func (s *ChannelSink) Create(ctx context.Context, view views.RenderedView) (views.Handle, error) {
	var out message
	err := s.client.do(ctx, http.MethodPost, pathMessages, map[string]string{"channel": s.channelID}, toPayload(view), &out)
	if err != nil {
		return "", err
	}
	return views.Handle(out.ID), nil
}

func (s *ChannelSink) Update(ctx context.Context, handle views.Handle, view views.RenderedView) error {
	params := map[string]string{"channel": s.channelID, "message": string(handle)}
	return s.client.do(ctx, http.MethodPatch, pathMessage, params, toPayload(view), nil)
}

// Delete removes a message. A message that is already gone counts as deleted.
func (s *ChannelSink) Delete(ctx context.Context, handle views.Handle) error {
	params := map[string]string{"channel": s.channelID, "message": string(handle)}
	err := s.client.do(ctx, http.MethodDelete, pathMessage, params, nil, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return nil
	}
	return err
}

// ListExisting returns the bot's messages among the latest hundred, oldest first.
func (s *ChannelSink) ListExisting(ctx context.Context) ([]views.Handle, error) {
	var out []message
	req := s.client.http.R().
		SetContext(ctx).
		SetPathParam("channel", s.channelID).
		SetQueryParam("limit", listLimit).
		SetResult(&out)

	resp, err := req.Get(pathMessages)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, &APIError{Method: http.MethodGet, Path: pathMessages, Status: resp.StatusCode(), Body: resp.String()}
	}

	var handles []views.Handle
	for _, m := range out {
		if s.client.botID == "" || m.Author.ID == s.client.botID {
			handles = append(handles, views.Handle(m.ID))
		}
	}
	slices.Reverse(handles)
	return handles, nil
}

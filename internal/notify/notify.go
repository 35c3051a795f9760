// Package notify delivers alert notifications to members. Producers publish
// onto a watermill topic and a Dispatcher hands each message to the
// configured delivery Notifier.
package notify

import (
	"context"
	"log/slog"

	"github.com/fireteam-lab/fireteam/internal/event"
)

// DefaultTopic carries alert notifications.
const DefaultTopic = "fireteam.notifications"

// Notification is a direct message to one member.
type Notification struct {
	GuildID string       `json:"guild_id"`
	EventID string       `json:"event_id"`
	Member  event.Member `json:"member"`
	Message string       `json:"message"`
}

// Notifier delivers or forwards a notification.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the log. It is the delivery target
// when no chat platform is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n Notification) error {
	slog.Info("[Notify] Direct message",
		"guild_id", n.GuildID,
		"event_id", n.EventID,
		"member", n.Member.ID,
		"message", n.Message,
	)
	return nil
}

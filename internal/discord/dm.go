package discord

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/fireteam-lab/fireteam/internal/notify"
)

const pathDMChannels = "/users/@me/channels"

// DMNotifier delivers notifications as direct messages.
type DMNotifier struct {
	client *Client

	mu       sync.Mutex
	channels map[string]string
}

var _ notify.Notifier = (*DMNotifier)(nil)

func NewDMNotifier(client *Client) *DMNotifier {
	if client == nil {
		panic("discord: client must not be nil")
	}
	return &DMNotifier{client: client, channels: map[string]string{}}
}

func (d *DMNotifier) Notify(ctx context.Context, n notify.Notification) error {
	if n.Message == "" {
		return nil
	}
	channelID, err := d.dmChannel(ctx, n.Member.ID)
	if err != nil {
		return err
	}
	body := map[string]string{"content": n.Message}
	if err := d.client.do(ctx, http.MethodPost, pathMessages, map[string]string{"channel": channelID}, body, nil); err != nil {
		return fmt.Errorf("send dm to %s: %w", n.Member.ID, err)
	}
	return nil
}

func (d *DMNotifier) dmChannel(ctx context.Context, userID string) (string, error) {
	d.mu.Lock()
	id, ok := d.channels[userID]
	d.mu.Unlock()
	if ok {
		return id, nil
	}

	var out struct {
		ID string `json:"id"`
	}
	body := map[string]string{"recipient_id": userID}
	if err := d.client.do(ctx, http.MethodPost, pathDMChannels, nil, body, &out); err != nil {
		return "", fmt.Errorf("open dm channel with %s: %w", userID, err)
	}

	d.mu.Lock()
	d.channels[userID] = out.ID
	d.mu.Unlock()
	return out.ID, nil
}

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/fireteam-lab/fireteam/internal/metrics"
)

// RetryConfig bounds redelivery attempts of a failed notification.
type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Dispatcher consumes the notification topic and delivers each message to
// a target Notifier. Failed deliveries are retried and then dropped.
type Dispatcher struct {
	router *message.Router
	target Notifier
}

func NewDispatcher(sub message.Subscriber, topic string, target Notifier, retry RetryConfig, logger watermill.LoggerAdapter) (*Dispatcher, error) {
	if sub == nil || target == nil {
		panic("notify: subscriber and target must not be nil")
	}
	if topic == "" {
		topic = DefaultTopic
	}

	router, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		return nil, fmt.Errorf("create router: %w", err)
	}

	d := &Dispatcher{router: router, target: target}
	router.AddMiddleware(d.dropFailed)
	if retry.MaxRetries > 0 {
		router.AddMiddleware(middleware.Retry{
			MaxRetries:      retry.MaxRetries,
			InitialInterval: retry.InitialInterval,
			MaxInterval:     retry.MaxInterval,
			Multiplier:      2,
			Logger:          logger,
		}.Middleware)
	}
	router.AddNoPublisherHandler("notify-dispatch", topic, sub, d.handle)
	return d, nil
}

func (d *Dispatcher) handle(msg *message.Message) error {
	var n Notification
	if err := json.Unmarshal(msg.Payload, &n); err != nil {
		slog.Error("[Notify] Discarding malformed notification", "message_uuid", msg.UUID, "error", err)
		metrics.Notifications.WithLabelValues("malformed").Inc()
		return nil
	}

	err := d.target.Notify(msg.Context(), n)
	metrics.Notifications.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		return fmt.Errorf("deliver to %s: %w", n.Member.ID, err)
	}
	return nil
}

// dropFailed acks messages whose delivery failed for good so they are not
// redelivered forever.
func (d *Dispatcher) dropFailed(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		produced, err := h(msg)
		if err != nil {
			slog.Error("[Notify] Dropping notification", "message_uuid", msg.UUID, "error", err)
		}
		return produced, nil
	}
}

// Run consumes until ctx ends.
func (d *Dispatcher) Run(ctx context.Context) error { return d.router.Run(ctx) }

// Running is closed once the dispatcher is subscribed.
func (d *Dispatcher) Running() chan struct{} { return d.router.Running() }

func (d *Dispatcher) Close() error { return d.router.Close() }

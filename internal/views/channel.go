package views

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fireteam-lab/fireteam/internal/event"
	"github.com/fireteam-lab/fireteam/internal/metrics"
)

const (
	DefaultQueueSize    = 10
	DefaultRetryInitial = 5 * time.Second
	DefaultRetryMax     = time.Minute
)

// ChannelConfig tunes a Channel.
type ChannelConfig struct {
	QueueSize    int
	RetryInitial time.Duration
	RetryMax     time.Duration
}

func (c ChannelConfig) normalized() ChannelConfig {
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.RetryInitial <= 0 {
		c.RetryInitial = DefaultRetryInitial
	}
	if c.RetryMax < c.RetryInitial {
		c.RetryMax = max(DefaultRetryMax, c.RetryInitial)
	}
	return c
}

// Channel keeps one chat channel's messages in sync with the events its
// filter admits. Changes are queued and applied in arrival order by Run.
type Channel struct {
	id     string
	cfg    ChannelConfig
	logger *slog.Logger

	sync    *Synchronizer
	updater *Updater

	queue   chan *event.Change
	resync  chan struct{}
	stopped chan struct{}
	full    atomic.Bool
}

// NewChannel builds a channel view over initial. Run must be started for
// queued changes to be applied.
func NewChannel(id string, filter Filter, sink MessageSink, initial []*event.Event, cfg ChannelConfig) *Channel {
	cfg = cfg.normalized()
	return &Channel{
		id:      id,
		cfg:     cfg,
		logger:  slog.Default().With("channel", id),
		sync:    NewSynchronizer(filter, initial),
		updater: NewUpdater(sink),
		queue:   make(chan *event.Change, cfg.QueueSize),
		resync:  make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
}

// ID is the chat channel id.
func (c *Channel) ID() string { return c.id }

// EventChanged queues change. When the queue is full it logs once per
// backlog episode and blocks until there is room, ctx ends, or Run exits.
func (c *Channel) EventChanged(ctx context.Context, change *event.Change) {
	select {
	case c.queue <- change:
		c.full.Store(false)
		return
	default:
	}

	metrics.ViewBackpressure.Inc()
	if c.full.CompareAndSwap(false, true) {
		c.logger.Warn("[Views] Channel queue full, blocking producer", "queue_size", c.cfg.QueueSize, "change", change.String())
	}

	select {
	case c.queue <- change:
	case <-ctx.Done():
		c.logger.Error("[Views] Dropped change, producer cancelled", "change", change.String(), "error", ctx.Err())
	case <-c.stopped:
		c.logger.Warn("[Views] Dropped change, channel stopped", "change", change.String())
	}
}

// Resync asks Run to rebuild the channel from the sink's current state.
func (c *Channel) Resync() {
	select {
	case c.resync <- struct{}{}:
	default:
	}
}

// Run reconciles the channel and then applies queued changes until ctx ends.
// A failed sink call triggers a full reconcile, retried with backoff.
func (c *Channel) Run(ctx context.Context) error {
	defer close(c.stopped)

	c.logger.Info("[Views] Starting channel", "events", c.sync.Len())
	if err := c.reconcile(ctx, "startup"); err != nil {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("[Views] Stopping channel")
			return nil

		case <-c.resync:
			if err := c.reconcile(ctx, "resync"); err != nil {
				return nil
			}

		case change := <-c.queue:
			for _, op := range c.sync.Apply(change) {
				if err := c.updater.Apply(ctx, op); err != nil {
					c.logger.Error("[Views] Operation failed, resynchronizing", "op", op.String(), "error", err)
					if err := c.reconcile(ctx, "desync"); err != nil {
						return nil
					}
					break
				}
			}
		}
	}
}

// reconcile retries Reset until it succeeds. It only fails when ctx ends.
func (c *Channel) reconcile(ctx context.Context, reason string) error {
	metrics.ViewReconciles.WithLabelValues(reason).Inc()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.RetryInitial
	b.MaxInterval = c.cfg.RetryMax
	b.MaxElapsedTime = 0
	b.Reset()

	op := func() error { return c.updater.Reset(ctx, c.sync) }
	notify := func(err error, wait time.Duration) {
		c.logger.Error("[Views] Reconcile failed", "reason", reason, "retry_in", wait, "error", err)
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify); err != nil {
		return err
	}
	c.logger.Info("[Views] Channel reconciled", "reason", reason, "messages", len(c.updater.handles))
	return nil
}

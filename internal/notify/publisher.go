package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Publisher is a Notifier that queues notifications on a topic.
type Publisher struct {
	pub   message.Publisher
	topic string
}

var _ Notifier = (*Publisher)(nil)

func NewPublisher(pub message.Publisher, topic string) *Publisher {
	if pub == nil {
		panic("notify: publisher must not be nil")
	}
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{pub: pub, topic: topic}
}

func (p *Publisher) Notify(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("guild_id", n.GuildID)
	msg.Metadata.Set("event_id", n.EventID)

	if err := p.pub.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("publish notification to %s: %w", p.topic, err)
	}
	return nil
}

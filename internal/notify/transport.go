package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

const (
	TransportGoChannel = "gochannel"
	TransportRedis     = "redis"
)

// TransportConfig selects where notifications are queued.
type TransportConfig struct {
	Kind          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	ConsumerGroup string
}

// Transport is a publisher/subscriber pair for the notification topic.
type Transport struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber

	closers []func() error
}

// NewTransport builds an in-process or redis stream transport.
func NewTransport(ctx context.Context, cfg TransportConfig, logger watermill.LoggerAdapter) (*Transport, error) {
	switch cfg.Kind {
	case "", TransportGoChannel:
		pubsub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, logger)
		return &Transport{
			Publisher:  pubsub,
			Subscriber: pubsub,
			closers:    []func() error{pubsub.Close},
		}, nil

	case TransportRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connect to redis %s: %w", cfg.RedisAddr, err)
		}

		pub, err := redisstream.NewPublisher(redisstream.PublisherConfig{Client: client}, logger)
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("create redis publisher: %w", err)
		}
		group := cfg.ConsumerGroup
		if group == "" {
			group = "fireteam"
		}
		sub, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        client,
			ConsumerGroup: group,
		}, logger)
		if err != nil {
			_ = pub.Close()
			_ = client.Close()
			return nil, fmt.Errorf("create redis subscriber: %w", err)
		}
		return &Transport{
			Publisher:  pub,
			Subscriber: sub,
			closers:    []func() error{pub.Close, sub.Close, client.Close},
		}, nil

	default:
		return nil, fmt.Errorf("unknown notify transport %q", cfg.Kind)
	}
}

func (t *Transport) Close() error {
	var errs []error
	for _, c := range t.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

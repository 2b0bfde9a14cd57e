package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"teamline.app/pulse/internal/event"
)

// Publisher pushes envelopes into the fan-out transport. The transport is
// pure: many publishers, many subscribers, nothing persisted beyond the
// in-flight message.
type Publisher interface {
	Publish(ctx context.Context, env event.Envelope) error
	Close() error
}

type redisPublisher struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

func NewRedisPublisher(client *redis.Client, prefix string, logger *slog.Logger) Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisPublisher{
		client: client,
		prefix: prefix,
		logger: logger,
	}
}

func (p *redisPublisher) Publish(ctx context.Context, env event.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encoding envelope: %w", err)
	}

	channel := ChannelFor(p.prefix, env.Type)
	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publishing to relay: %w", err)
	}

	p.logger.DebugContext(ctx, "published envelope", "channel", channel, "event_type", env.Type)
	return nil
}

func (p *redisPublisher) Close() error {
	return p.client.Close()
}

package outbox

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Waker nudges the dispatcher after a commit. Strictly a latency
// optimization: the dispatcher also polls, so a lost wake delays delivery
// but never loses it.
type Waker interface {
	Wake(ctx context.Context)
}

type redisWaker struct {
	client  *redis.Client
	channel string
}

func NewRedisWaker(client *redis.Client, channel string) Waker {
	return &redisWaker{client: client, channel: channel}
}

func (w *redisWaker) Wake(ctx context.Context) {
	if err := w.client.Publish(ctx, w.channel, "1").Err(); err != nil {
		slog.WarnContext(ctx, "outbox wake publish failed", "error", err, "channel", w.channel)
	}
}

// NopWaker is used where no Redis connection is available (tests, CLIs).
type NopWaker struct{}

func (NopWaker) Wake(context.Context) {}

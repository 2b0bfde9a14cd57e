package relay

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"teamline.app/pulse/internal/event"
)

// Subscriber receives the full event catalog for one gateway process and
// hands decoded envelopes to a Go channel, keeping the routing logic
// testable without a live transport.
type Subscriber struct {
	client *redis.Client
	prefix string
	out    chan event.Envelope
}

func NewRedisSubscriber(client *redis.Client, prefix string, buffer int) *Subscriber {
	return &Subscriber{
		client: client,
		prefix: prefix,
		out:    make(chan event.Envelope, buffer),
	}
}

// Envelopes is the handoff channel consumed by the gateway's routing loop.
// It is closed when Run returns.
func (s *Subscriber) Envelopes() <-chan event.Envelope {
	return s.out
}

// Run subscribes to every catalog channel and pumps envelopes until the
// context is canceled. Malformed messages are dropped with a log line;
// the authoritative state is always recoverable over the read path.
func (s *Subscriber) Run(ctx context.Context) error {
	defer close(s.out)

	sub := s.client.Subscribe(ctx, Channels(s.prefix)...)
	defer sub.Close() //nolint:errcheck

	slog.InfoContext(ctx, "relay subscription open", "channels", Channels(s.prefix))

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}

			var env event.Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				slog.ErrorContext(ctx, "dropping malformed relay message",
					"error", err,
					"channel", msg.Channel)
				continue
			}

			select {
			case s.out <- env:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

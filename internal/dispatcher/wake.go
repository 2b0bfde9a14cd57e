package dispatcher

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// ListenWake subscribes to the writer's wake channel and forwards coalesced
// ticks. The returned channel is buffered at one entry: a burst of commits
// collapses into a single drain pass.
func ListenWake(ctx context.Context, client *redis.Client, channel string) <-chan struct{} {
	wake := make(chan struct{}, 1)

	go func() {
		defer close(wake)

		sub := client.Subscribe(ctx, channel)
		defer sub.Close() //nolint:errcheck

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case wake <- struct{}{}:
				default:
				}
			}
		}
	}()

	return wake
}

// Package outbox couples business mutations to durable event records.
// Append runs on stores bound to the caller's transaction: if the mutation
// commits the event exists, if it rolls back the event never happened.
package outbox

import (
	"context"
	"fmt"

	"teamline.app/pulse/common/id"
	"teamline.app/pulse/internal/event"
	"teamline.app/pulse/internal/model"
	"teamline.app/pulse/internal/store"
)

// Append writes one event to the outbox and returns the entry's ID.
// The store must belong to the same transaction as the business mutation.
func Append(ctx context.Context, ob store.OutboxStore, p event.Payload) (int64, error) {
	env, err := event.New(p)
	if err != nil {
		return 0, err
	}

	entry := &model.OutboxEntry{
		ID:        id.New(),
		EventType: string(env.Type),
		Payload:   env.Payload,
	}
	if err := ob.Append(ctx, entry); err != nil {
		return 0, fmt.Errorf("appending %s: %w", env.Type, err)
	}
	return entry.ID, nil
}

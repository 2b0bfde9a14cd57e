// Package dispatcher turns committed outbox rows into relay publications.
// One logical instance drains at a time; crash recovery is a replay from
// the last durable offset, so downstream consumers must tolerate
// duplicates but never see reordering.
package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"teamline.app/pulse/common/logger"
	"teamline.app/pulse/internal/event"
	"teamline.app/pulse/internal/model"
	"teamline.app/pulse/internal/relay"
	"teamline.app/pulse/internal/store"
)

type Config struct {
	CursorName   string
	PollInterval time.Duration
	BatchSize    int32
}

type Dispatcher struct {
	outbox    store.OutboxStore
	cursor    store.CursorStore
	publisher relay.Publisher
	wake      <-chan struct{}
	cfg       Config

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(outbox store.OutboxStore, cursor store.CursorStore, publisher relay.Publisher, wake <-chan struct{}, cfg Config) *Dispatcher {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Dispatcher{
		outbox:    outbox,
		cursor:    cursor,
		publisher: publisher,
		wake:      wake,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Run alternates between idle waiting and draining. The wake channel only
// shortens the wait; the poll ticker alone is sufficient for correctness.
func (d *Dispatcher) Run(ctx context.Context) error {
	defer close(d.stoppedCh)

	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "pulse.dispatcher"})
	slog.InfoContext(ctx, "dispatcher started", "cursor", d.cfg.CursorName, "poll_interval", d.cfg.PollInterval)

	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := d.Drain(ctx); err != nil {
			slog.ErrorContext(ctx, "drain failed, will retry", "error", err)
			// No special-case timeout path: the next wake or poll tick
			// resumes from the last advanced offset.
			time.Sleep(time.Second)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.stopCh:
			slog.InfoContext(ctx, "dispatcher stopping")
			return nil
		case <-d.wake:
		case <-ticker.C:
		}
	}
}

func (d *Dispatcher) Stop() {
	close(d.stopCh)
	<-d.stoppedCh
}

// Drain publishes every outbox row past the durable offset, in commit
// order, advancing the offset only after each publish is acknowledged.
func (d *Dispatcher) Drain(ctx context.Context) error {
	cur, err := d.cursor.Get(ctx, d.cfg.CursorName)
	if err != nil {
		return fmt.Errorf("loading cursor: %w", err)
	}

	seq := cur.LastSeq
	for {
		entries, err := d.outbox.ListAfter(ctx, seq, d.cfg.BatchSize)
		if err != nil {
			return fmt.Errorf("listing outbox entries: %w", err)
		}
		if len(entries) == 0 {
			return nil
		}

		for i := range entries {
			if err := d.publishEntry(ctx, &entries[i]); err != nil {
				return err
			}
			seq = entries[i].Seq
		}
	}
}

func (d *Dispatcher) publishEntry(ctx context.Context, entry *model.OutboxEntry) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		OutboxID:  logger.Ptr(entry.ID),
		EventType: logger.Ptr(entry.EventType),
	})

	env := event.Envelope{
		Type:    event.Type(entry.EventType),
		Payload: entry.Payload,
	}
	if err := d.publisher.Publish(ctx, env); err != nil {
		return fmt.Errorf("publishing outbox entry %d: %w", entry.ID, err)
	}

	// A crash between publish and advance redelivers this row on restart;
	// consumers dedupe on the payload's event id.
	if err := d.cursor.Advance(ctx, d.cfg.CursorName, entry.Seq); err != nil {
		return fmt.Errorf("advancing cursor past %d: %w", entry.Seq, err)
	}

	slog.DebugContext(ctx, "dispatched outbox entry", "seq", entry.Seq)
	return nil
}

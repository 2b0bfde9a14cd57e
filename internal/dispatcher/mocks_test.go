package dispatcher_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"teamline.app/pulse/internal/event"
	"teamline.app/pulse/internal/model"
)

type mockOutbox struct {
	mu      sync.Mutex
	entries []model.OutboxEntry
}

func (m *mockOutbox) Append(ctx context.Context, entry *model.OutboxEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.Seq = int64(len(m.entries) + 1)
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockOutbox) ListAfter(ctx context.Context, seq int64, limit int32) ([]model.OutboxEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.OutboxEntry
	for _, e := range m.entries {
		if e.Seq > seq && int32(len(out)) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

type mockCursor struct {
	mu              sync.Mutex
	seq             int64
	failNextAdvance bool
}

func (m *mockCursor) Get(ctx context.Context, name string) (*model.DispatcherCursor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &model.DispatcherCursor{Name: name, LastSeq: m.seq}, nil
}

func (m *mockCursor) Advance(ctx context.Context, name string, seq int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNextAdvance {
		m.failNextAdvance = false
		return errors.New("cursor store unavailable")
	}
	if seq > m.seq {
		m.seq = seq
	}
	return nil
}

func (m *mockCursor) lastSeq() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seq
}

type mockPublisher struct {
	mu        sync.Mutex
	published []event.Envelope
	failOn    func(env event.Envelope) error
}

func (m *mockPublisher) Publish(ctx context.Context, env event.Envelope) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != nil {
		if err := m.failOn(env); err != nil {
			return err
		}
	}
	m.published = append(m.published, env)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func (m *mockPublisher) publishedTypes() []event.Type {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]event.Type, len(m.published))
	for i, env := range m.published {
		types[i] = env.Type
	}
	return types
}

func (m *mockPublisher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.published)
}

func (m *mockPublisher) setFailOn(fn func(env event.Envelope) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOn = fn
}

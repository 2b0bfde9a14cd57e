package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// Fields flow through context enrichment, enabling zero-touch logging where business
// context (stream_id, event_id, etc.) is automatically included in all log statements.
type LogFields struct {
	WorkspaceID  *int64  // Workspace the operation is scoped to
	StreamID     *int64  // Stream (channel/thread/DM) being written or routed
	EventID      *int64  // Stream event ID
	OutboxID     *int64  // Outbox entry ID
	UserID       *int64  // Acting or target user
	ConnectionID *string // Gateway connection ID
	EventType    *string // Envelope event type (e.g. "stream_event.created")
	Component    string  // Component name (e.g. "pulse.dispatcher")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
// Context timeouts and cancellation are preserved.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, next LogFields) LogFields {
	result := existing

	if next.WorkspaceID != nil {
		result.WorkspaceID = next.WorkspaceID
	}
	if next.StreamID != nil {
		result.StreamID = next.StreamID
	}
	if next.EventID != nil {
		result.EventID = next.EventID
	}
	if next.OutboxID != nil {
		result.OutboxID = next.OutboxID
	}
	if next.UserID != nil {
		result.UserID = next.UserID
	}
	if next.ConnectionID != nil {
		result.ConnectionID = next.ConnectionID
	}
	if next.EventType != nil {
		result.EventType = next.EventType
	}
	if next.Component != "" {
		result.Component = next.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{StreamID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

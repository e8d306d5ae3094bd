// Package observe provides event-based observability hooks for cbkit
// operations: structured logging, Prometheus metrics, and OpenTelemetry
// request tracing. Level values align with OpenTelemetry SeverityNumbers so
// events translate to OTel collectors without mapping tables.
package observe

import (
	"context"
	"log/slog"
	"time"
)

// Level represents event severity aligned with OTel SeverityNumber ranges.
type Level int

const (
	LevelVerbose Level = 5  // OTel DEBUG (5-8)
	LevelInfo    Level = 9  // OTel INFO (9-12)
	LevelWarning Level = 13 // OTel WARN (13-16)
	LevelError   Level = 17 // OTel ERROR (17-20)
)

// SlogLevel maps this level to the corresponding slog.Level for log emission.
func (l Level) SlogLevel() slog.Level {
	switch {
	case l <= 8:
		return slog.LevelDebug
	case l <= 12:
		return slog.LevelInfo
	case l <= 16:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// EventType identifies the kind of event.
type EventType string

const (
	// EventOp is emitted once per completed SDK operation.
	EventOp EventType = "cbkit.op"
	// EventRetry is emitted before a retry sleep.
	EventRetry EventType = "cbkit.retry"
	// EventSlowOp is emitted when an operation exceeds its slow threshold.
	EventSlowOp EventType = "cbkit.op.slow"
	// EventConnect is emitted once per cluster connect attempt.
	EventConnect EventType = "cbkit.connect"
)

// Event is an observability event describing one SDK call or retry.
type Event struct {
	Type      EventType
	Level     Level
	Timestamp time.Time

	// Op is the operation name ("get", "upsert", "query", ...).
	Op string
	// Key is the document key, empty for query-level operations.
	Key string
	// Duration is the wall time of the call, zero for retry events.
	Duration time.Duration
	// ErrClass is the classified error name, empty on success.
	ErrClass string

	Data map[string]any
}

// Observer receives operation events for logging, tracing, or metrics.
type Observer interface {
	OnEvent(ctx context.Context, event Event)
}

package state

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// DefaultHistoryLimit is the number of completed transitions kept for introspection.
const DefaultHistoryLimit = 32

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger. Defaults to the bus logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithTransitionTimeout bounds how long each phase waits for completion callbacks.
// Zero (the default) disables the timeout. A handler that panics before calling done counts as
// pending, so without a timeout its phase never completes.
func WithTransitionTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks Hooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithTracerProvider sets the OpenTelemetry provider used for transition spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) {
		e.tracerProvider = tp
	}
}

// WithHistoryLimit sets how many completed transitions History retains.
func WithHistoryLimit(n int) Option {
	return func(e *Engine) {
		e.historyLimit = n
	}
}

// WithClock overrides the time source used for request timestamps and durations.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

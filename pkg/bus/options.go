package bus

import (
	"log/slog"

	"github.com/aretw0/conduit/pkg/registry"
)

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the structured logger used for warnings and handler faults.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) {
		b.logger = logger
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks Hooks) Option {
	return func(b *Bus) {
		b.hooks = hooks
	}
}

// WithRegistry injects the handler registry, mainly so callers can share or inspect it.
func WithRegistry(r *registry.Registry) Option {
	return func(b *Bus) {
		b.registry = r
	}
}

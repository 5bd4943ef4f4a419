package conduit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/conduit/internal/logging"
	"github.com/aretw0/conduit/pkg/bus"
	"github.com/aretw0/conduit/pkg/domain"
	"github.com/aretw0/conduit/pkg/observability"
	"github.com/aretw0/conduit/pkg/state"
	"github.com/aretw0/conduit/pkg/system"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

// Runtime wires a bus, a state engine, metrics and the subsystem manager together.
// Construct one per process and pass it (or its Bus) to the components that need it.
type Runtime struct {
	Bus     *bus.Bus
	Engine  *state.Engine
	Systems *system.Manager
	Metrics *observability.Metrics

	registry *prometheus.Registry
	logger   *slog.Logger
}

type settings struct {
	logger         *slog.Logger
	initial        domain.GameState
	timeout        time.Duration
	registry       *prometheus.Registry
	tracerProvider trace.TracerProvider
	components     []system.Component
}

// Option defines a functional option for configuring the Runtime.
type Option func(*settings)

// WithLogger sets the structured logger shared by the bus and engine.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithInitialState sets the state the engine starts in (default: Boot).
func WithInitialState(st domain.GameState) Option {
	return func(s *settings) {
		s.initial = st
	}
}

// WithTransitionTimeout bounds each transition phase. Zero disables the timeout.
func WithTransitionTimeout(d time.Duration) Option {
	return func(s *settings) {
		s.timeout = d
	}
}

// WithPrometheusRegistry registers the runtime's collectors on reg instead of a private registry.
func WithPrometheusRegistry(reg *prometheus.Registry) Option {
	return func(s *settings) {
		s.registry = reg
	}
}

// WithTracerProvider sets the OpenTelemetry provider for transition spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *settings) {
		s.tracerProvider = tp
	}
}

// WithComponents registers subsystems started by Start.
func WithComponents(cs ...system.Component) Option {
	return func(s *settings) {
		s.components = append(s.components, cs...)
	}
}

// New builds a runtime. Components are registered but not started.
func New(opts ...Option) (*Runtime, error) {
	s := &settings{initial: domain.StateBoot}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	if s.initial.IsZero() {
		return nil, fmt.Errorf("initial state: %w", domain.ErrInvalidState)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}

	metrics := observability.NewMetrics(s.registry)
	b := bus.New(
		bus.WithLogger(s.logger.With("component", "bus")),
		bus.WithHooks(metrics.BusHooks()),
	)

	engineOpts := []state.Option{
		state.WithLogger(s.logger.With("component", "state")),
		state.WithHooks(metrics.StateHooks()),
		state.WithTransitionTimeout(s.timeout),
	}
	if s.tracerProvider != nil {
		engineOpts = append(engineOpts, state.WithTracerProvider(s.tracerProvider))
	}

	rt := &Runtime{
		Bus:      b,
		Engine:   state.New(b, s.initial, engineOpts...),
		Systems:  system.NewManager(b),
		Metrics:  metrics,
		registry: s.registry,
		logger:   s.logger,
	}
	for _, c := range s.components {
		if err := rt.Systems.Register(c); err != nil {
			return nil, err
		}
	}
	return rt, nil
}

// Start starts every registered component in registration order.
func (r *Runtime) Start(ctx context.Context) error {
	if err := r.Systems.StartAll(ctx); err != nil {
		return fmt.Errorf("failed to start systems: %w", err)
	}
	r.logger.Info("runtime started", "systems", len(r.Systems.Names()), "state", r.Engine.Current())
	return nil
}

// Stop stops components in reverse order.
func (r *Runtime) Stop(ctx context.Context) error {
	return r.Systems.StopAll(ctx)
}

// ChangeState forwards to the engine.
func (r *Runtime) ChangeState(to domain.GameState) (*state.Transition, error) {
	return r.Engine.ChangeState(to)
}

// Gatherer exposes the Prometheus registry holding the runtime's metrics.
func (r *Runtime) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Logger returns the runtime logger.
func (r *Runtime) Logger() *slog.Logger {
	return r.logger
}

package observability

import (
	"github.com/aretw0/conduit/pkg/bus"
	"github.com/aretw0/conduit/pkg/domain"
	"github.com/aretw0/conduit/pkg/registry"
	"github.com/aretw0/conduit/pkg/state"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "conduit"

// Metrics holds the collectors fed by bus and engine hooks.
type Metrics struct {
	Published     *prometheus.CounterVec
	Deliveries    *prometheus.CounterVec
	Faults        *prometheus.CounterVec
	Subscriptions *prometheus.GaugeVec
	Registrations *prometheus.CounterVec
	Transitions   *prometheus.CounterVec
	Duration      *prometheus.HistogramVec
	Stuck         *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Total number of Publish calls per event key.",
		}, []string{"key"}),
		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handler_deliveries_total",
			Help:      "Total number of handler invocations scheduled by Publish.",
		}, []string{"key"}),
		Faults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handler_faults_total",
			Help:      "Total number of handlers that panicked during dispatch.",
		}, []string{"key", "handler"}),
		Subscriptions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscriptions",
			Help:      "Current number of handlers registered per event key.",
		}, []string{"key"}),
		Registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Subscribe and Unsubscribe calls by outcome.",
		}, []string{"key", "outcome"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Completed state transitions.",
		}, []string{"from", "to"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transition_duration_seconds",
			Help:      "Time from the start of the exit phase to commit.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 9),
		}, []string{"to"}),
		Stuck: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stuck_phases_total",
			Help:      "Phases force-completed by the transition timeout.",
		}, []string{"phase"}),
	}
	reg.MustRegister(
		m.Published, m.Deliveries, m.Faults, m.Subscriptions, m.Registrations,
		m.Transitions, m.Duration, m.Stuck,
	)
	return m
}

// BusHooks returns bus hooks that record into m.
func (m *Metrics) BusHooks() bus.Hooks {
	return bus.Hooks{
		OnSubscribe: func(key domain.Key, _ string, outcome registry.Outcome) {
			m.Registrations.WithLabelValues(string(key), outcome.String()).Inc()
			if outcome == registry.Added {
				m.Subscriptions.WithLabelValues(string(key)).Inc()
			}
		},
		OnUnsubscribe: func(key domain.Key, _ string, outcome registry.Outcome) {
			m.Registrations.WithLabelValues(string(key), outcome.String()).Inc()
			if outcome == registry.Removed {
				m.Subscriptions.WithLabelValues(string(key)).Dec()
			}
		},
		OnPublish: func(key domain.Key, handlers int) {
			m.Published.WithLabelValues(string(key)).Inc()
			m.Deliveries.WithLabelValues(string(key)).Add(float64(handlers))
		},
		OnFault: func(fault *domain.HandlerFault) {
			m.Faults.WithLabelValues(string(fault.Key), fault.Handler).Inc()
		},
	}
}

// StateHooks returns engine hooks that record into m.
func (m *Metrics) StateHooks() state.Hooks {
	return state.Hooks{
		OnStuck: func(err *state.StuckTransitionError) {
			m.Stuck.WithLabelValues(string(err.Phase)).Inc()
		},
		OnTransitionComplete: func(rec state.Record) {
			m.Transitions.WithLabelValues(string(rec.Request.From), string(rec.Request.To)).Inc()
			m.Duration.WithLabelValues(string(rec.Request.To)).Observe(rec.Duration().Seconds())
		},
	}
}

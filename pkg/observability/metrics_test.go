package observability

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/conduit/pkg/bus"
	"github.com/aretw0/conduit/pkg/domain"
	"github.com/aretw0/conduit/pkg/state"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Bus(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	b := bus.New(bus.WithHooks(m.BusHooks()))

	a := bus.NewListener("a", func(string) {})
	boom := bus.NewListener("boom", func(string) { panic("x") })
	_, _ = bus.Subscribe(b, "UI.Action", a)
	_, _ = bus.Subscribe(b, "UI.Action", a)
	_, _ = bus.Subscribe(b, "UI.Action", boom)

	bus.Publish(b, "UI.Action", "click")
	bus.Publish(b, "UI.Action", "click")
	bus.Unsubscribe(b, "UI.Action", boom)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Published.WithLabelValues("UI.Action")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.Deliveries.WithLabelValues("UI.Action")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Faults.WithLabelValues("UI.Action", "boom")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Subscriptions.WithLabelValues("UI.Action")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Registrations.WithLabelValues("UI.Action", "already_present")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Registrations.WithLabelValues("UI.Action", "removed")))
}

func TestMetrics_State(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	b := bus.New(bus.WithHooks(m.BusHooks()))
	e := state.New(b, domain.StateBoot,
		state.WithHooks(m.StateHooks()),
		state.WithTransitionTimeout(20*time.Millisecond),
	)

	_, err := state.OnExit(b, "stuck", func(domain.GameState, func()) {})
	require.NoError(t, err)

	tr, err := e.ChangeState(domain.StateLogin)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, tr.Wait(ctx))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transitions.WithLabelValues("Boot", "Login")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Stuck.WithLabelValues("exit")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Duration))
}

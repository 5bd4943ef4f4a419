package conduit_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/conduit"
	"github.com/aretw0/conduit/pkg/bus"
	"github.com/aretw0/conduit/pkg/domain"
	"github.com/aretw0/conduit/pkg/state"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loginSystem listens for UI actions and drives the login flow.
type loginSystem struct {
	rt       *conduit.Runtime
	clicks   *bus.Listener[string]
	enter    *bus.Listener[domain.Phase]
	stopped  bool
	received []string
}

func (s *loginSystem) Name() string { return "login" }

func (s *loginSystem) Start(ctx context.Context, b *bus.Bus) error {
	s.clicks = bus.NewListener("login.clicks", func(action string) {
		s.received = append(s.received, action)
		if action == "ClickLogin" {
			_, _ = s.rt.ChangeState(domain.StateLobby)
		}
	})
	if _, err := bus.Subscribe(b, "UI.Action", s.clicks); err != nil {
		return err
	}
	var err error
	s.enter, err = state.OnEnter(b, "login.enter", state.Only(func(_ domain.GameState, done func()) {
		s.received = append(s.received, "entered-login")
		done()
	}, domain.StateLogin))
	return err
}

func (s *loginSystem) Stop(ctx context.Context) error {
	bus.Unsubscribe(s.rt.Bus, "UI.Action", s.clicks)
	bus.Unsubscribe(s.rt.Bus, domain.KeyStateEnter, s.enter)
	s.stopped = true
	return nil
}

func TestRuntime_EndToEnd(t *testing.T) {
	login := &loginSystem{}
	rt, err := conduit.New(
		conduit.WithTransitionTimeout(time.Second),
		conduit.WithComponents(login),
	)
	require.NoError(t, err)
	login.rt = rt

	ctx := context.Background()
	require.NoError(t, rt.Start(ctx))

	tr, err := rt.ChangeState(domain.StateLogin)
	require.NoError(t, err)
	require.NoError(t, tr.Wait(ctx))

	bus.Publish(rt.Bus, "UI.Action", "ClickLogin")
	assert.Equal(t, domain.StateLobby, rt.Engine.Current())
	assert.Equal(t, []string{"entered-login", "ClickLogin"}, login.received)

	require.NoError(t, rt.Stop(ctx))
	assert.True(t, login.stopped)
	assert.Empty(t, rt.Bus.Registry().Keys())

	assert.Equal(t, 2.0, testutil.ToFloat64(rt.Metrics.Transitions.WithLabelValues("Login", "Lobby"))+
		testutil.ToFloat64(rt.Metrics.Transitions.WithLabelValues("Boot", "Login")))

	families, err := rt.Gatherer().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestRuntime_Options(t *testing.T) {
	rt, err := conduit.New(conduit.WithInitialState(domain.StateRoom))
	require.NoError(t, err)
	assert.Equal(t, domain.StateRoom, rt.Engine.Current())

	_, err = conduit.New(conduit.WithInitialState(""))
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	login := &loginSystem{}
	_, err = conduit.New(conduit.WithComponents(login, login))
	assert.Error(t, err)
}

package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/conduit/pkg/bus"
	"github.com/aretw0/conduit/pkg/domain"
	"github.com/aretw0/conduit/pkg/state"
)

// Subsystem is a simulated system.Component driven by a SystemSpec.
type Subsystem struct {
	spec   SystemSpec
	logger *slog.Logger

	mu    sync.Mutex
	bus   *bus.Bus
	exit  *bus.Listener[domain.Phase]
	enter *bus.Listener[domain.Phase]
	seen  []string
}

func NewSubsystem(spec SystemSpec, logger *slog.Logger) *Subsystem {
	return &Subsystem{spec: spec, logger: logger.With("system", spec.Name)}
}

func (s *Subsystem) Name() string { return s.spec.Name }

// Start subscribes the subsystem's exit and enter handlers.
func (s *Subsystem) Start(ctx context.Context, b *bus.Bus) error {
	exit, err := state.OnExit(b, s.spec.Name, s.handler(state.PhaseExit, s.spec.ExitDelay))
	if err != nil {
		return err
	}
	enter, err := state.OnEnter(b, s.spec.Name, s.handler(state.PhaseEnter, s.spec.EnterDelay))
	if err != nil {
		bus.Unsubscribe(b, domain.KeyStateExit, exit)
		return err
	}

	s.mu.Lock()
	s.bus, s.exit, s.enter = b, exit, enter
	s.mu.Unlock()
	return nil
}

// Stop unsubscribes both handlers.
func (s *Subsystem) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bus == nil {
		return nil
	}
	bus.Unsubscribe(s.bus, domain.KeyStateExit, s.exit)
	bus.Unsubscribe(s.bus, domain.KeyStateEnter, s.enter)
	s.bus = nil
	return nil
}

// Seen returns "phase:state" for every phase the subsystem handled, in order.
func (s *Subsystem) Seen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.seen...)
}

func (s *Subsystem) handler(phase state.Phase, delay time.Duration) state.PhaseFunc {
	fn := func(st domain.GameState, done func()) {
		s.mu.Lock()
		s.seen = append(s.seen, fmt.Sprintf("%s:%s", phase, st))
		s.mu.Unlock()

		switch {
		case s.spec.Fault && phase == state.PhaseEnter:
			panic(fmt.Sprintf("%s failed to enter %s", s.spec.Name, st))
		case s.spec.Stuck:
			s.logger.Debug("simulating stuck handler", "phase", phase, "state", st)
		case delay > 0:
			time.AfterFunc(delay, done)
		default:
			done()
		}
	}

	if len(s.spec.States) == 0 {
		return fn
	}
	return state.Only(fn, s.spec.States...)
}

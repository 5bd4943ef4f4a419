package state

import (
	"slices"

	"github.com/aretw0/conduit/pkg/bus"
	"github.com/aretw0/conduit/pkg/domain"
)

// PhaseFunc handles one phase of a transition. done must be called exactly once.
type PhaseFunc func(s domain.GameState, done func())

// Only returns a PhaseFunc that runs fn for the listed states and completes immediately otherwise.
func Only(fn PhaseFunc, states ...domain.GameState) PhaseFunc {
	return func(s domain.GameState, done func()) {
		if !slices.Contains(states, s) {
			done()
			return
		}
		fn(s, done)
	}
}

// Listener adapts fn to a bus listener for domain.KeyStateExit or domain.KeyStateEnter.
func Listener(name string, fn PhaseFunc) *bus.Listener[domain.Phase] {
	return bus.NewListener(name, func(p domain.Phase) {
		fn(p.State, p.Done)
	})
}

// OnEnter subscribes fn to domain.KeyStateEnter and returns the listener for later Unsubscribe.
func OnEnter(b *bus.Bus, name string, fn PhaseFunc) (*bus.Listener[domain.Phase], error) {
	l := Listener(name, fn)
	if _, err := bus.Subscribe(b, domain.KeyStateEnter, l); err != nil {
		return nil, err
	}
	return l, nil
}

// OnExit subscribes fn to domain.KeyStateExit and returns the listener for later Unsubscribe.
func OnExit(b *bus.Bus, name string, fn PhaseFunc) (*bus.Listener[domain.Phase], error) {
	l := Listener(name, fn)
	if _, err := bus.Subscribe(b, domain.KeyStateExit, l); err != nil {
		return nil, err
	}
	return l, nil
}

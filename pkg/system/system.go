// Package system manages the lifecycle of independently developed game subsystems.
//
// Each subsystem is a Component that wires itself to the bus in Start and tears its
// subscriptions down in Stop. Subsystems never hold references to one another.
package system

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aretw0/conduit/pkg/bus"
)

// ErrDuplicateComponent is returned when two components share a name.
var ErrDuplicateComponent = errors.New("component already registered")

// ErrUnknownComponent is returned by Get for a name that was never registered.
var ErrUnknownComponent = errors.New("component not found")

// Component is a subsystem that communicates only through the bus.
type Component interface {
	Name() string
	Start(ctx context.Context, b *bus.Bus) error
	Stop(ctx context.Context) error
}

// Manager maps names to components and drives their lifecycle in registration order.
type Manager struct {
	bus *bus.Bus

	mu         sync.RWMutex
	order      []string
	components map[string]Component
	started    []string
}

// NewManager creates a manager whose components start against b.
func NewManager(b *bus.Bus) *Manager {
	return &Manager{
		bus:        b,
		components: make(map[string]Component),
	}
}

// Register adds a component. Names must be unique.
func (m *Manager) Register(c Component) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	name := c.Name()
	if _, ok := m.components[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateComponent, name)
	}
	m.components[name] = c
	m.order = append(m.order, name)
	return nil
}

// Get looks a component up by name.
func (m *Manager) Get(name string) (Component, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.components[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownComponent, name)
	}
	return c, nil
}

// Names returns component names in registration order.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.order...)
}

// StartAll starts every component in registration order.
// If one fails, the components already started are stopped in reverse order.
func (m *Manager) StartAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, name := range m.order {
		if err := m.components[name].Start(ctx, m.bus); err != nil {
			startErr := fmt.Errorf("start %s: %w", name, err)
			return errors.Join(startErr, m.stopLocked(ctx))
		}
		m.started = append(m.started, name)
	}
	return nil
}

// StopAll stops started components in reverse order, joining any errors.
func (m *Manager) StopAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopLocked(ctx)
}

func (m *Manager) stopLocked(ctx context.Context) error {
	var errs []error
	for i := len(m.started) - 1; i >= 0; i-- {
		name := m.started[i]
		if err := m.components[name].Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", name, err))
		}
	}
	m.started = nil
	return errors.Join(errs...)
}

package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/conduit/pkg/domain"
	"go.opentelemetry.io/otel/trace"
)

// Phase names one half of a transition.
type Phase string

const (
	PhaseExit  Phase = "exit"
	PhaseEnter Phase = "enter"
)

// Key returns the event key published for the phase.
func (p Phase) Key() domain.Key {
	if p == PhaseExit {
		return domain.KeyStateExit
	}
	return domain.KeyStateEnter
}

type step int

const (
	stepQueued step = iota
	stepExit
	stepExitWait
	stepEnter
	stepEnterWait
	stepCommit
	stepDone
)

// StuckTransitionError reports a phase that was force-completed by the transition timeout.
type StuckTransitionError struct {
	Request domain.TransitionRequest
	Phase   Phase
	Pending []string
	Timeout time.Duration
}

func (e *StuckTransitionError) Error() string {
	return fmt.Sprintf("transition %s -> %s: %s phase timed out after %s waiting for [%s]",
		e.Request.From, e.Request.To, e.Phase, e.Timeout, strings.Join(e.Pending, ", "))
}

func (e *StuckTransitionError) Is(target error) bool {
	return target == domain.ErrStuckTransition
}

// Record summarises a completed transition.
type Record struct {
	Request     domain.TransitionRequest `json:"request"`
	StartedAt   time.Time                `json:"started_at"`
	CompletedAt time.Time                `json:"completed_at"`
	Stuck       []string                 `json:"stuck,omitempty"`
}

// Duration is the time from start of the exit phase to commit.
func (r Record) Duration() time.Duration {
	return r.CompletedAt.Sub(r.StartedAt)
}

// Transition is the handle returned by ChangeState. It can be awaited.
type Transition struct {
	req  domain.TransitionRequest
	done chan struct{}

	// guarded by the engine mutex
	step      step
	startedAt time.Time
	span      trace.Span

	mu    sync.Mutex
	stuck []*StuckTransitionError
}

func newTransition(req domain.TransitionRequest) *Transition {
	return &Transition{
		req:  req,
		done: make(chan struct{}),
	}
}

// Request returns the transition request.
func (t *Transition) Request() domain.TransitionRequest {
	return t.req
}

// Done is closed once the new state is current.
func (t *Transition) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the transition completes or ctx ends.
func (t *Transition) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err reports the phases that were forced by the timeout, or nil.
func (t *Transition) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	errs := make([]error, 0, len(t.stuck))
	for _, s := range t.stuck {
		errs = append(errs, s)
	}
	return errors.Join(errs...)
}

// Stuck returns the names of handlers that did not call back before the timeout, across both phases.
func (t *Transition) Stuck() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var names []string
	for _, s := range t.stuck {
		names = append(names, s.Pending...)
	}
	return names
}

func (t *Transition) addStuck(err *StuckTransitionError) {
	t.mu.Lock()
	t.stuck = append(t.stuck, err)
	t.mu.Unlock()
}

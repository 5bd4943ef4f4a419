package state

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/conduit/pkg/bus"
	"github.com/aretw0/conduit/pkg/domain"
	"github.com/aretw0/conduit/pkg/registry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/aretw0/conduit/pkg/state"

// Engine owns the current game state and sequences transitions over a bus.
type Engine struct {
	bus            *bus.Bus
	logger         *slog.Logger
	hooks          Hooks
	timeout        time.Duration
	tracerProvider trace.TracerProvider
	tracer         trace.Tracer
	historyLimit   int
	now            func() time.Time

	mu      sync.Mutex
	current domain.GameState
	active  *Transition
	queue   []*Transition
	history []Record
	driving bool
}

// New creates an engine whose current state is initial.
func New(b *bus.Bus, initial domain.GameState, opts ...Option) *Engine {
	e := &Engine{
		bus:          b,
		current:      initial,
		historyLimit: DefaultHistoryLimit,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = b.Logger()
	}
	if e.tracerProvider == nil {
		e.tracerProvider = otel.GetTracerProvider()
	}
	e.tracer = e.tracerProvider.Tracer(tracerName)
	return e
}

// Current returns the committed state. It changes only after both phases complete.
func (e *Engine) Current() domain.GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// Active returns the running transition request, if any.
func (e *Engine) Active() (domain.TransitionRequest, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return domain.TransitionRequest{}, false
	}
	return e.active.req, true
}

// Pending returns the number of queued transitions not yet started.
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

// History returns the most recent completed transitions, oldest first.
func (e *Engine) History() []Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Record, len(e.history))
	copy(out, e.history)
	return out
}

// ChangeState requests a transition to `to`.
//
// The request is validated against the state the engine will be in once every queued transition
// has run; asking for that same state fails with *domain.NoOpTransitionError and changes nothing.
// Otherwise the transition is queued and started if the engine is idle. ChangeState never waits
// for handlers; use the returned Transition to observe completion.
func (e *Engine) ChangeState(to domain.GameState) (*Transition, error) {
	e.mu.Lock()
	from := e.projectedLocked()
	req, err := domain.NewTransitionRequest(from, to, e.now())
	if err != nil {
		e.mu.Unlock()
		e.logger.Warn("transition rejected", "from", from, "to", to, "err", err)
		return nil, err
	}
	t := newTransition(req)
	e.queue = append(e.queue, t)
	queued := e.active != nil || len(e.queue) > 1
	e.mu.Unlock()

	if queued {
		e.logger.Debug("transition queued", "transition", req.ID, "from", req.From, "to", req.To)
	}
	e.drive()
	return t, nil
}

func (e *Engine) projectedLocked() domain.GameState {
	if n := len(e.queue); n > 0 {
		return e.queue[n-1].req.To
	}
	if e.active != nil {
		return e.active.req.To
	}
	return e.current
}

// drive runs queued work until the active transition is waiting on callbacks or the queue is empty.
// Only one goroutine drives at a time; callers arriving while another drives just return, and the
// driving loop picks up their changes. This keeps synchronous callbacks from recursing.
func (e *Engine) drive() {
	e.mu.Lock()
	if e.driving {
		e.mu.Unlock()
		return
	}
	e.driving = true
	for {
		run := e.nextLocked()
		if run == nil {
			e.driving = false
			e.mu.Unlock()
			return
		}
		e.mu.Unlock()
		run()
		e.mu.Lock()
	}
}

func (e *Engine) nextLocked() func() {
	t := e.active
	if t == nil {
		if len(e.queue) == 0 {
			return nil
		}
		t = e.queue[0]
		e.queue[0] = nil
		e.queue = e.queue[1:]
		e.active = t
		t.step = stepExit
		t.startedAt = e.now()
		return func() { e.begin(t) }
	}

	switch t.step {
	case stepExit:
		t.step = stepExitWait
		return func() { e.runPhase(t, PhaseExit, t.req.From) }
	case stepEnter:
		t.step = stepEnterWait
		return func() { e.runPhase(t, PhaseEnter, t.req.To) }
	case stepCommit:
		t.step = stepDone
		e.current = t.req.To
		e.active = nil
		rec := Record{
			Request:     t.req,
			StartedAt:   t.startedAt,
			CompletedAt: e.now(),
			Stuck:       t.Stuck(),
		}
		e.history = append(e.history, rec)
		if over := len(e.history) - e.historyLimit; e.historyLimit > 0 && over > 0 {
			e.history = append(e.history[:0:0], e.history[over:]...)
		}
		return func() { e.finish(t, rec) }
	default:
		// waiting on completion callbacks
		return nil
	}
}

func (e *Engine) begin(t *Transition) {
	_, t.span = e.tracer.Start(context.Background(), "state.transition",
		trace.WithAttributes(
			attribute.String("conduit.transition.id", t.req.ID),
			attribute.String("conduit.transition.from", string(t.req.From)),
			attribute.String("conduit.transition.to", string(t.req.To)),
		))

	e.logger.Info("transition started", "transition", t.req.ID, "from", t.req.From, "to", t.req.To)
	if e.hooks.OnTransitionStart != nil {
		e.hooks.OnTransitionStart(t.req)
	}
}

func (e *Engine) runPhase(t *Transition, phase Phase, s domain.GameState) {
	b := newBarrier(phase, e.logger, func(handlers int, stuck []string) {
		e.phaseDone(t, phase, handlers, stuck)
	})
	if e.timeout > 0 {
		b.arm(e.timeout)
	}

	bus.PublishFunc(e.bus, phase.Key(), func(entry registry.Entry) domain.Phase {
		return domain.Phase{State: s, Done: b.join(entry)}
	})
	b.seal()
}

func (e *Engine) phaseDone(t *Transition, phase Phase, handlers int, stuck []string) {
	if len(stuck) > 0 {
		err := &StuckTransitionError{Request: t.req, Phase: phase, Pending: stuck, Timeout: e.timeout}
		t.addStuck(err)
		e.logger.Error("stuck transition force-advanced",
			"transition", t.req.ID, "phase", phase, "pending", stuck, "timeout", e.timeout, "err", err)
		if t.span != nil {
			t.span.AddEvent("phase.timeout", trace.WithAttributes(
				attribute.String("conduit.phase", string(phase)),
				attribute.StringSlice("conduit.pending", stuck),
			))
		}
		if e.hooks.OnStuck != nil {
			e.hooks.OnStuck(err)
		}
	}

	e.logger.Debug("phase complete", "transition", t.req.ID, "phase", phase, "handlers", handlers)
	if t.span != nil {
		t.span.AddEvent("phase.complete", trace.WithAttributes(
			attribute.String("conduit.phase", string(phase)),
			attribute.Int("conduit.handlers", handlers),
		))
	}
	if e.hooks.OnPhaseComplete != nil {
		e.hooks.OnPhaseComplete(t.req, phase, handlers)
	}

	e.mu.Lock()
	switch {
	case phase == PhaseExit && t.step == stepExitWait:
		t.step = stepEnter
	case phase == PhaseEnter && t.step == stepEnterWait:
		t.step = stepCommit
	}
	e.mu.Unlock()

	e.drive()
}

func (e *Engine) finish(t *Transition, rec Record) {
	if t.span != nil {
		if len(rec.Stuck) > 0 {
			t.span.SetStatus(codes.Error, "phase timed out")
		}
		t.span.End()
	}
	e.logger.Info("transition complete",
		"transition", t.req.ID, "from", t.req.From, "to", t.req.To, "duration", rec.Duration())
	if e.hooks.OnTransitionComplete != nil {
		e.hooks.OnTransitionComplete(rec)
	}
	close(t.done)
}

package state

import (
	"github.com/aretw0/conduit/pkg/domain"
)

// Hooks are optional callbacks for engine observability.
// They run on the goroutine that advanced the transition.
type Hooks struct {
	OnTransitionStart    func(req domain.TransitionRequest)
	OnPhaseComplete      func(req domain.TransitionRequest, phase Phase, handlers int)
	OnStuck              func(err *StuckTransitionError)
	OnTransitionComplete func(rec Record)
}

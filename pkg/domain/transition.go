package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransitionRequest is one requested move between game states.
type TransitionRequest struct {
	ID          string    `json:"id"`
	From        GameState `json:"from"`
	To          GameState `json:"to"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewTransitionRequest builds a request, rejecting from == to with ErrNoOpTransition.
func NewTransitionRequest(from, to GameState, at time.Time) (TransitionRequest, error) {
	if to.IsZero() {
		return TransitionRequest{}, ErrInvalidState
	}
	if from == to {
		return TransitionRequest{}, &NoOpTransitionError{State: to}
	}
	return TransitionRequest{
		ID:          uuid.NewString(),
		From:        from,
		To:          to,
		RequestedAt: at,
	}, nil
}

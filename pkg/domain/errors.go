package domain

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrInvalidKey is returned when an event key is empty.
var ErrInvalidKey = errors.New("invalid event key")

// ErrInvalidState is returned when a game state is empty.
var ErrInvalidState = errors.New("invalid game state")

// ErrNilHandler is returned when a nil handler is subscribed.
var ErrNilHandler = errors.New("handler cannot be nil")

// ErrSignatureMismatch matches any *SignatureMismatchError via errors.Is.
var ErrSignatureMismatch = errors.New("signature mismatch")

// ErrNoOpTransition matches any *NoOpTransitionError via errors.Is.
var ErrNoOpTransition = errors.New("no-op transition")

// ErrHandlerFault matches any *HandlerFault via errors.Is.
var ErrHandlerFault = errors.New("handler fault")

// ErrStuckTransition is reported when a phase barrier is force-completed by timeout.
var ErrStuckTransition = errors.New("stuck transition")

// SignatureMismatchError reports a subscribe or publish whose payload type
// differs from the contract already bound to the key.
type SignatureMismatchError struct {
	Key      Key
	Expected reflect.Type
	Got      reflect.Type
}

func (e *SignatureMismatchError) Error() string {
	return fmt.Sprintf("event %q: handler signature %v does not match registered %v", e.Key, e.Got, e.Expected)
}

func (e *SignatureMismatchError) Is(target error) bool {
	return target == ErrSignatureMismatch
}

// NoOpTransitionError reports a ChangeState to the state that is already current.
type NoOpTransitionError struct {
	State GameState
}

func (e *NoOpTransitionError) Error() string {
	return fmt.Sprintf("already in state %q", e.State)
}

func (e *NoOpTransitionError) Is(target error) bool {
	return target == ErrNoOpTransition
}

// HandlerFault wraps a panic raised by a handler during dispatch.
type HandlerFault struct {
	Key     Key
	Handler string
	Value   any
	Stack   string
}

func (e *HandlerFault) Error() string {
	return fmt.Sprintf("handler %q on %q panicked: %v", e.Handler, e.Key, e.Value)
}

func (e *HandlerFault) Is(target error) bool {
	return target == ErrHandlerFault
}

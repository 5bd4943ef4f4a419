package bus

// Listener is a named handler with a stable identity.
// The same *Listener can be subscribed to many keys; subscribing it twice to one key is a no-op.
type Listener[T any] struct {
	name string
	fn   func(T)
}

// NewListener wraps fn. The name identifies the handler in logs and diagnostics.
func NewListener[T any](name string, fn func(T)) *Listener[T] {
	return &Listener[T]{name: name, fn: fn}
}

// Name returns the handler's diagnostic name.
func (l *Listener[T]) Name() string {
	return l.name
}

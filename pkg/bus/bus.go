package bus

import (
	"io"
	"log/slog"
	"reflect"
	"runtime/debug"

	"github.com/aretw0/conduit/pkg/domain"
	"github.com/aretw0/conduit/pkg/registry"
)

// Bus is the dispatch surface over a handler registry.
// A Bus is safe for concurrent use; construct one per process (or per test) and pass it explicitly.
type Bus struct {
	registry *registry.Registry
	logger   *slog.Logger
	hooks    Hooks
}

// New creates a bus with an empty registry.
func New(opts ...Option) *Bus {
	b := &Bus{}
	for _, opt := range opts {
		opt(b)
	}
	if b.registry == nil {
		b.registry = registry.New()
	}
	if b.logger == nil {
		b.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return b
}

// Registry exposes the underlying registry for introspection.
func (b *Bus) Registry() *registry.Registry {
	return b.registry
}

// Logger returns the bus logger so collaborators can log with the same sink.
func (b *Bus) Logger() *slog.Logger {
	return b.logger
}

// Subscribe registers l for key with payload type T.
// Subscribing the same listener twice returns registry.AlreadyPresent and logs a warning.
// A payload type that conflicts with the key's existing contract returns *domain.SignatureMismatchError.
func Subscribe[T any](b *Bus, key domain.Key, l *Listener[T]) (registry.Outcome, error) {
	if l == nil || l.fn == nil {
		return registry.NotFound, domain.ErrNilHandler
	}

	outcome, err := b.registry.Register(key, reflect.TypeFor[T](), l, l.name)
	if err != nil {
		b.logger.Error("subscribe rejected", "key", key, "handler", l.name, "err", err)
		return outcome, err
	}
	if outcome == registry.AlreadyPresent {
		b.logger.Warn("duplicate subscription ignored", "key", key, "handler", l.name, "outcome", outcome)
	} else {
		b.logger.Debug("subscribed", "key", key, "handler", l.name, "outcome", outcome)
	}
	if b.hooks.OnSubscribe != nil {
		b.hooks.OnSubscribe(key, l.name, outcome)
	}
	return outcome, nil
}

// Unsubscribe removes l from key.
// Removing a listener that was never subscribed returns registry.NotFound and logs a warning.
func Unsubscribe[T any](b *Bus, key domain.Key, l *Listener[T]) registry.Outcome {
	if l == nil {
		return registry.NotFound
	}

	outcome := b.registry.Deregister(key, reflect.TypeFor[T](), l)
	if outcome == registry.NotFound {
		b.logger.Warn("unsubscribe of unknown handler", "key", key, "handler", l.name, "outcome", outcome)
	} else {
		b.logger.Debug("unsubscribed", "key", key, "handler", l.name, "outcome", outcome)
	}
	if b.hooks.OnUnsubscribe != nil {
		b.hooks.OnUnsubscribe(key, l.name, outcome)
	}
	return outcome
}

// Publish delivers payload to every handler registered for key when the call starts.
// It never returns an error; misuse and handler faults are logged.
func Publish[T any](b *Bus, key domain.Key, payload T) {
	PublishFunc(b, key, func(registry.Entry) T { return payload })
}

// PublishFunc is Publish with a payload built per handler.
// build is called once per snapshotted entry, just before that entry's handler runs.
// It returns the number of handlers in the snapshot.
func PublishFunc[T any](b *Bus, key domain.Key, build func(registry.Entry) T) int {
	snapshot := b.registry.Snapshot(key)
	if b.hooks.OnPublish != nil {
		b.hooks.OnPublish(key, len(snapshot))
	}
	if len(snapshot) == 0 {
		return 0
	}

	sig := reflect.TypeFor[T]()
	if snapshot[0].Signature != sig {
		err := &domain.SignatureMismatchError{Key: key, Expected: snapshot[0].Signature, Got: sig}
		b.logger.Error("publish rejected", "key", key, "err", err)
		return 0
	}

	for _, entry := range snapshot {
		l, ok := entry.Handler.(*Listener[T])
		if !ok {
			b.logger.Error("publish skipped handler with foreign signature", "key", key, "handler", entry.Name)
			continue
		}
		invoke(b, key, l, build(entry))
	}
	return len(snapshot)
}

// invoke runs one handler, converting a panic into a logged HandlerFault.
func invoke[T any](b *Bus, key domain.Key, l *Listener[T], payload T) {
	defer func() {
		if r := recover(); r != nil {
			fault := &domain.HandlerFault{
				Key:     key,
				Handler: l.name,
				Value:   r,
				Stack:   string(debug.Stack()),
			}
			b.logger.Error("handler fault", "key", key, "handler", fault.Handler, "err", fault)
			if b.hooks.OnFault != nil {
				b.hooks.OnFault(fault)
			}
		}
	}()
	l.fn(payload)
}

package registry

import (
	"reflect"
	"slices"
	"sort"
	"sync"

	"github.com/aretw0/conduit/pkg/domain"
)

// Outcome reports what a Register or Deregister call did.
type Outcome int

const (
	// Added means a new entry was stored.
	Added Outcome = iota
	// AlreadyPresent means the (handler, signature) pair was already registered for the key.
	AlreadyPresent
	// Removed means the entry was found and deleted.
	Removed
	// NotFound means there was nothing to remove.
	NotFound
)

func (o Outcome) String() string {
	switch o {
	case Added:
		return "added"
	case AlreadyPresent:
		return "already_present"
	case Removed:
		return "removed"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Entry is one registered handler.
// Handler must be a comparable value (typically a pointer); it is the handler's identity.
type Entry struct {
	Key       domain.Key
	Signature reflect.Type
	Handler   any
	Name      string
	Order     uint64
}

type slot struct {
	signature reflect.Type
	entries   []Entry
}

// Registry stores, per event key, the ordered set of registered handlers.
// All methods are safe for concurrent use.
type Registry struct {
	mu    sync.Mutex
	slots map[domain.Key]*slot
	seq   uint64
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		slots: make(map[domain.Key]*slot),
	}
}

// Register adds handler under key.
// The first registration binds sig as the key's payload contract; a later registration with a
// different signature fails with *domain.SignatureMismatchError and leaves the registry unchanged.
func (r *Registry) Register(key domain.Key, sig reflect.Type, handler any, name string) (Outcome, error) {
	if err := key.Validate(); err != nil {
		return NotFound, err
	}
	if handler == nil {
		return NotFound, domain.ErrNilHandler
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.slots[key]
	if !ok {
		s = &slot{signature: sig}
		r.slots[key] = s
	}
	if s.signature != sig {
		return NotFound, &domain.SignatureMismatchError{Key: key, Expected: s.signature, Got: sig}
	}
	for _, e := range s.entries {
		if e.Handler == handler {
			return AlreadyPresent, nil
		}
	}

	r.seq++
	s.entries = append(s.entries, Entry{
		Key:       key,
		Signature: sig,
		Handler:   handler,
		Name:      name,
		Order:     r.seq,
	})
	return Added, nil
}

// Deregister removes handler from key.
// When the last entry for a key is removed the key itself is dropped, releasing its signature.
func (r *Registry) Deregister(key domain.Key, sig reflect.Type, handler any) Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.slots[key]
	if !ok || s.signature != sig {
		return NotFound
	}
	for i, e := range s.entries {
		if e.Handler != handler {
			continue
		}
		s.entries = slices.Delete(s.entries, i, i+1)
		if len(s.entries) == 0 {
			delete(r.slots, key)
		}
		return Removed
	}
	return NotFound
}

// Snapshot returns a copy of the entries for key in registration order.
// Later mutations of the registry do not affect the returned slice.
func (r *Registry) Snapshot(key domain.Key) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.slots[key]
	if !ok {
		return nil
	}
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Signature returns the payload contract bound to key, if any handler is registered.
func (r *Registry) Signature(key domain.Key) (reflect.Type, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.slots[key]
	if !ok {
		return nil, false
	}
	return s.signature, true
}

// Len returns the number of handlers registered for key.
func (r *Registry) Len(key domain.Key) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.slots[key]; ok {
		return len(s.entries)
	}
	return 0
}

// Keys returns every key with at least one handler, sorted.
func (r *Registry) Keys() []domain.Key {
	r.mu.Lock()
	keys := make([]domain.Key, 0, len(r.slots))
	for k := range r.slots {
		keys = append(keys, k)
	}
	r.mu.Unlock()

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Summary describes the handlers registered under one key.
type Summary struct {
	Key       domain.Key `json:"key"`
	Signature string     `json:"signature"`
	Handlers  []string   `json:"handlers"`
}

// Describe summarises every key in Keys order, listing handler names in dispatch order.
func (r *Registry) Describe() []Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Summary, 0, len(r.slots))
	for key, s := range r.slots {
		sum := Summary{Key: key, Signature: s.signature.String(), Handlers: make([]string, 0, len(s.entries))}
		for _, e := range s.entries {
			sum.Handlers = append(sum.Handlers, e.Name)
		}
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

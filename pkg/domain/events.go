package domain

import "strings"

// Key names a publishable event category.
// Keys match by exact string; there is no hierarchy or wildcard matching.
type Key string

const (
	// KeyStateExit is published with a Phase before the current state is left.
	KeyStateExit Key = "State.Exit"
	// KeyStateEnter is published with a Phase before the new state becomes current.
	KeyStateEnter Key = "State.Enter"
)

// Domain returns the part of the key before the first dot.
func (k Key) Domain() string {
	d, _, _ := strings.Cut(string(k), ".")
	return d
}

// Action returns the part of the key after the first dot, or "" if there is none.
func (k Key) Action() string {
	_, a, _ := strings.Cut(string(k), ".")
	return a
}

// Validate rejects keys that cannot name an event.
func (k Key) Validate() error {
	if strings.TrimSpace(string(k)) == "" {
		return ErrInvalidKey
	}
	return nil
}

func (k Key) String() string {
	return string(k)
}

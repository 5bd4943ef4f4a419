package state

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/conduit/pkg/registry"
)

// barrier counts completion callbacks for one phase.
// It completes once it is sealed (the snapshot size is known) and every joined handler has
// called back, or when force is called. complete runs exactly once.
type barrier struct {
	phase  Phase
	logger *slog.Logger

	mu       sync.Mutex
	pending  map[uint64]string
	order    []uint64
	joined   int
	sealed   bool
	finished bool
	timer    *time.Timer

	complete func(handlers int, stuck []string)
}

func newBarrier(phase Phase, logger *slog.Logger, complete func(handlers int, stuck []string)) *barrier {
	return &barrier{
		phase:    phase,
		logger:   logger,
		pending:  make(map[uint64]string),
		complete: complete,
	}
}

// arm starts the timeout. Expiry force-completes the barrier.
func (b *barrier) arm(timeout time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.finished {
		return
	}
	b.timer = time.AfterFunc(timeout, b.force)
}

// join registers one snapshotted handler and returns its completion callback.
func (b *barrier) join(entry registry.Entry) func() {
	b.mu.Lock()
	id := entry.Order
	if !b.finished {
		b.pending[id] = entry.Name
		b.order = append(b.order, id)
		b.joined++
	}
	b.mu.Unlock()

	var called atomic.Bool
	return func() {
		if called.Swap(true) {
			b.logger.Warn("completion callback called more than once", "phase", b.phase, "handler", entry.Name)
			return
		}
		b.done(id, entry.Name)
	}
}

func (b *barrier) done(id uint64, name string) {
	b.mu.Lock()
	if b.finished {
		b.mu.Unlock()
		b.logger.Debug("late completion ignored", "phase", b.phase, "handler", name)
		return
	}
	delete(b.pending, id)
	ready := b.sealed && len(b.pending) == 0
	if ready {
		b.finishLocked()
	}
	joined := b.joined
	b.mu.Unlock()

	if ready {
		b.complete(joined, nil)
	}
}

// seal marks the end of dispatch; no more handlers will join.
func (b *barrier) seal() {
	b.mu.Lock()
	if b.finished {
		b.mu.Unlock()
		return
	}
	b.sealed = true
	ready := len(b.pending) == 0
	if ready {
		b.finishLocked()
	}
	joined := b.joined
	b.mu.Unlock()

	if ready {
		b.complete(joined, nil)
	}
}

// force completes the barrier regardless of pending handlers, reporting them as stuck.
func (b *barrier) force() {
	b.mu.Lock()
	if b.finished {
		b.mu.Unlock()
		return
	}
	stuck := make([]string, 0, len(b.pending))
	for _, id := range b.order {
		if name, ok := b.pending[id]; ok {
			stuck = append(stuck, name)
		}
	}
	b.finishLocked()
	joined := b.joined
	b.mu.Unlock()

	b.complete(joined, stuck)
}

func (b *barrier) finishLocked() {
	b.finished = true
	if b.timer != nil {
		b.timer.Stop()
	}
}

package bus

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"

	"github.com/aretw0/conduit/pkg/domain"
	"github.com/aretw0/conduit/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const uiAction domain.Key = "UI.Action"

// recorder is a concurrency-safe call log shared by fake handlers.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func newTestBus(t *testing.T, opts ...Option) (*Bus, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return New(append([]Option{WithLogger(logger)}, opts...)...), &buf
}

func recording(rec *recorder, name string) *Listener[string] {
	return NewListener(name, func(s string) { rec.add(name + "(" + s + ")") })
}

func TestPublish_RegistrationOrder(t *testing.T) {
	b, _ := newTestBus(t)
	rec := &recorder{}

	for _, name := range []string{"A", "B", "C"} {
		_, err := Subscribe(b, uiAction, recording(rec, name))
		require.NoError(t, err)
	}

	Publish(b, uiAction, "ClickLogin")
	assert.Equal(t, []string{"A(ClickLogin)", "B(ClickLogin)", "C(ClickLogin)"}, rec.all())
}

func TestPublish_SnapshotFixedDuringDispatch(t *testing.T) {
	b, _ := newTestBus(t)
	rec := &recorder{}

	bl := recording(rec, "B")
	late := recording(rec, "late")
	a := NewListener("A", func(s string) {
		rec.add("A(" + s + ")")
		// Churn B and add a newcomer while the dispatch is in flight.
		Unsubscribe(b, uiAction, bl)
		_, _ = Subscribe(b, uiAction, bl)
		_, _ = Subscribe(b, uiAction, late)
	})

	_, _ = Subscribe(b, uiAction, a)
	_, _ = Subscribe(b, uiAction, bl)
	_, _ = Subscribe(b, uiAction, recording(rec, "C"))

	Publish(b, uiAction, "ClickLogin")
	assert.Equal(t, []string{"A(ClickLogin)", "B(ClickLogin)", "C(ClickLogin)"}, rec.all())

	// The next publish sees the mutated registry: A, C, B, late.
	rec.calls = nil
	Publish(b, uiAction, "x")
	assert.Equal(t, []string{"A(x)", "C(x)", "B(x)", "late(x)"}, rec.all())
}

func TestPublish_NoSubscribers(t *testing.T) {
	b, buf := newTestBus(t)

	assert.NotPanics(t, func() { Publish(b, "Nobody.Listening", 42) })
	assert.Equal(t, 0, PublishFunc(b, "Nobody.Listening", func(registry.Entry) int { return 1 }))
	assert.Empty(t, buf.String())
	assert.Empty(t, b.Registry().Keys())
}

func TestPublish_FaultIsolation(t *testing.T) {
	const n = 5
	for k := 0; k < n; k++ {
		b, buf := newTestBus(t)
		rec := &recorder{}
		var faults []*domain.HandlerFault
		b.hooks.OnFault = func(f *domain.HandlerFault) { faults = append(faults, f) }

		for i := 0; i < n; i++ {
			name := string(rune('a' + i))
			if i == k {
				_, _ = Subscribe(b, uiAction, NewListener(name, func(string) { panic("boom") }))
				continue
			}
			_, _ = Subscribe(b, uiAction, recording(rec, name))
		}

		require.NotPanics(t, func() { Publish(b, uiAction, "go") })
		assert.Len(t, rec.all(), n-1, "position %d", k)
		require.Len(t, faults, 1)
		assert.Equal(t, string(rune('a'+k)), faults[0].Handler)
		assert.Equal(t, uiAction, faults[0].Key)
		assert.ErrorIs(t, faults[0], domain.ErrHandlerFault)
		assert.NotEmpty(t, faults[0].Stack)
		assert.Contains(t, buf.String(), "handler fault")
	}
}

func TestSubscribe_Duplicate(t *testing.T) {
	b, buf := newTestBus(t)
	rec := &recorder{}
	l := recording(rec, "A")

	out, err := Subscribe(b, uiAction, l)
	require.NoError(t, err)
	assert.Equal(t, registry.Added, out)

	out, err = Subscribe(b, uiAction, l)
	require.NoError(t, err)
	assert.Equal(t, registry.AlreadyPresent, out)
	assert.Contains(t, buf.String(), "duplicate subscription ignored")

	Publish(b, uiAction, "once")
	assert.Equal(t, []string{"A(once)"}, rec.all())
}

func TestSubscribe_SignatureMismatch(t *testing.T) {
	b, _ := newTestBus(t)
	rec := &recorder{}

	_, err := Subscribe(b, uiAction, recording(rec, "A"))
	require.NoError(t, err)

	_, err = Subscribe(b, uiAction, NewListener("counter", func(int) {}))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSignatureMismatch)
	assert.Equal(t, 1, b.Registry().Len(uiAction))

	Publish(b, uiAction, "still works")
	assert.Equal(t, []string{"A(still works)"}, rec.all())
}

func TestSubscribe_StructPayload(t *testing.T) {
	type settings struct {
		Volume int
		Done   func()
	}
	b, _ := newTestBus(t)

	var got int
	var doneCalls int
	_, err := Subscribe(b, "Settings.Changed", NewListener("audio", func(s settings) {
		got = s.Volume
		s.Done()
	}))
	require.NoError(t, err)

	Publish(b, "Settings.Changed", settings{Volume: 7, Done: func() { doneCalls++ }})
	assert.Equal(t, 7, got)
	assert.Equal(t, 1, doneCalls)
}

func TestSubscribe_NilListener(t *testing.T) {
	b, _ := newTestBus(t)

	_, err := Subscribe[string](b, uiAction, nil)
	assert.ErrorIs(t, err, domain.ErrNilHandler)

	_, err = Subscribe(b, uiAction, NewListener[string]("nil-fn", nil))
	assert.ErrorIs(t, err, domain.ErrNilHandler)
}

func TestPublish_WrongPayloadType(t *testing.T) {
	b, buf := newTestBus(t)
	rec := &recorder{}
	_, _ = Subscribe(b, uiAction, recording(rec, "A"))

	Publish(b, uiAction, 99)
	assert.Empty(t, rec.all())
	assert.Contains(t, buf.String(), "publish rejected")
}

func TestUnsubscribe(t *testing.T) {
	b, buf := newTestBus(t)
	rec := &recorder{}
	l := recording(rec, "A")

	assert.Equal(t, registry.NotFound, Unsubscribe(b, uiAction, l))
	assert.Contains(t, buf.String(), "unsubscribe of unknown handler")

	_, _ = Subscribe(b, uiAction, l)
	assert.Equal(t, registry.Removed, Unsubscribe(b, uiAction, l))
	assert.Empty(t, b.Registry().Keys())

	Publish(b, uiAction, "gone")
	assert.Empty(t, rec.all())
}

func TestPublishFunc_PerEntryPayload(t *testing.T) {
	b, _ := newTestBus(t)
	rec := &recorder{}
	_, _ = Subscribe(b, uiAction, recording(rec, "A"))
	_, _ = Subscribe(b, uiAction, recording(rec, "B"))

	n := PublishFunc(b, uiAction, func(e registry.Entry) string { return "for-" + e.Name })
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"A(for-A)", "B(for-B)"}, rec.all())
}

func TestHooks(t *testing.T) {
	var subs, unsubs []registry.Outcome
	var published []int
	b, _ := newTestBus(t, WithHooks(Hooks{
		OnSubscribe:   func(_ domain.Key, _ string, o registry.Outcome) { subs = append(subs, o) },
		OnUnsubscribe: func(_ domain.Key, _ string, o registry.Outcome) { unsubs = append(unsubs, o) },
		OnPublish:     func(_ domain.Key, n int) { published = append(published, n) },
	}))
	l := NewListener("A", func(string) {})

	_, _ = Subscribe(b, uiAction, l)
	_, _ = Subscribe(b, uiAction, l)
	Publish(b, uiAction, "x")
	Unsubscribe(b, uiAction, l)
	Unsubscribe(b, uiAction, l)
	Publish(b, uiAction, "y")

	assert.Equal(t, []registry.Outcome{registry.Added, registry.AlreadyPresent}, subs)
	assert.Equal(t, []registry.Outcome{registry.Removed, registry.NotFound}, unsubs)
	assert.Equal(t, []int{1, 0}, published)
}

func TestPublish_Concurrent(t *testing.T) {
	b, _ := newTestBus(t)
	var mu sync.Mutex
	count := 0
	_, _ = Subscribe(b, uiAction, NewListener("counter", func(string) {
		mu.Lock()
		count++
		mu.Unlock()
	}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			Publish(b, uiAction, "tick")
		}()
		go func() {
			defer wg.Done()
			l := NewListener("churn", func(string) {})
			_, _ = Subscribe(b, uiAction, l)
			Unsubscribe(b, uiAction, l)
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, count)
}

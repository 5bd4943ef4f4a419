package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/conduit/pkg/domain"
	"github.com/aretw0/conduit/pkg/state"
)

// Event is one phase notification pushed to SSE clients.
type Event struct {
	Key   domain.Key       `json:"key"`
	State domain.GameState `json:"state"`
}

// StreamManager fans events out to connected SSE clients.
type StreamManager struct {
	logger *slog.Logger

	mu          sync.RWMutex
	subscribers map[chan string]struct{}
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		logger:      logger,
		subscribers: make(map[chan string]struct{}),
	}
}

// Subscribe registers a client channel. The returned func unregisters and closes it.
func (sm *StreamManager) Subscribe() (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	sm.subscribers[ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if _, ok := sm.subscribers[ch]; ok {
			delete(sm.subscribers, ch)
			close(ch)
		}
	}
}

// Len returns the number of connected clients.
func (sm *StreamManager) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers)
}

// Broadcast sends msg to every client without blocking.
func (sm *StreamManager) Broadcast(msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers {
		select {
		case ch <- msg:
		default:
			// slow client
			sm.logger.Warn("SSE: client buffer full, dropping message")
		}
	}
}

// forward returns a phase handler that broadcasts the phase and completes immediately.
func (s *Server) forward(key domain.Key) state.PhaseFunc {
	return func(st domain.GameState, done func()) {
		defer done()
		data, err := json.Marshal(Event{Key: key, State: st})
		if err != nil {
			s.logger.Error("SSE: encode failed", "err", err)
			return
		}
		s.Streams.Broadcast(string(data))
	}
}

// SubscribeEvents handles the GET /events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe()
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

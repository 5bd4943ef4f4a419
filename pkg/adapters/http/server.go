package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/conduit"
	"github.com/aretw0/conduit/pkg/bus"
	"github.com/aretw0/conduit/pkg/domain"
	"github.com/aretw0/conduit/pkg/registry"
	"github.com/aretw0/conduit/pkg/state"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Engine is the part of the state engine the debug API drives.
type Engine interface {
	Current() domain.GameState
	Active() (domain.TransitionRequest, bool)
	Pending() int
	History() []state.Record
	ChangeState(to domain.GameState) (*state.Transition, error)
}

// Server serves the debug API for one runtime.
type Server struct {
	Engine   Engine
	Registry *registry.Registry
	Gatherer prometheus.Gatherer
	Streams  *StreamManager

	bus    *bus.Bus
	logger *slog.Logger
	exit   *bus.Listener[domain.Phase]
	enter  *bus.Listener[domain.Phase]
}

// New creates a server for rt and subscribes its event stream to both transition phases.
// Call Close to remove those subscriptions.
func New(rt *conduit.Runtime) (*Server, error) {
	s := &Server{
		Engine:   rt.Engine,
		Registry: rt.Bus.Registry(),
		Gatherer: rt.Gatherer(),
		Streams:  NewStreamManager(rt.Logger()),
		bus:      rt.Bus,
		logger:   rt.Logger().With("component", "http"),
	}

	var err error
	if s.exit, err = state.OnExit(rt.Bus, "http.events", s.forward(domain.KeyStateExit)); err != nil {
		return nil, fmt.Errorf("subscribe exit stream: %w", err)
	}
	if s.enter, err = state.OnEnter(rt.Bus, "http.events", s.forward(domain.KeyStateEnter)); err != nil {
		bus.Unsubscribe(rt.Bus, domain.KeyStateExit, s.exit)
		return nil, fmt.Errorf("subscribe enter stream: %w", err)
	}
	return s, nil
}

// Close unsubscribes the event stream.
func (s *Server) Close() {
	bus.Unsubscribe(s.bus, domain.KeyStateExit, s.exit)
	bus.Unsubscribe(s.bus, domain.KeyStateEnter, s.enter)
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/state", s.GetState)
	r.Post("/state", s.PostState)
	r.Get("/subscriptions", s.GetSubscriptions)
	r.Get("/events", s.SubscribeEvents)
	r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StateResponse is the body of GET /state.
type StateResponse struct {
	Current domain.GameState          `json:"current"`
	Active  *domain.TransitionRequest `json:"active,omitempty"`
	Pending int                       `json:"pending"`
	History []state.Record            `json:"history"`
}

// ChangeRequest is the body of POST /state.
type ChangeRequest struct {
	To   domain.GameState `json:"to"`
	Wait bool             `json:"wait,omitempty"`
}

// ChangeResponse is returned by POST /state.
type ChangeResponse struct {
	Transition domain.TransitionRequest `json:"transition"`
	Completed  bool                     `json:"completed"`
	Stuck      []string                 `json:"stuck,omitempty"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "conduit-http",
		"version": strings.TrimSpace(conduit.Version),
	})
}

// GetState handles the GET /state request.
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	resp := StateResponse{
		Current: s.Engine.Current(),
		Pending: s.Engine.Pending(),
		History: s.Engine.History(),
	}
	if req, ok := s.Engine.Active(); ok {
		resp.Active = &req
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// PostState handles the POST /state request.
// With wait set, the response is sent once the transition commits or the request is cancelled.
func (s *Server) PostState(w http.ResponseWriter, r *http.Request) {
	var body ChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("PostState: invalid request body", "err", err)
		return
	}

	t, err := s.Engine.ChangeState(body.To)
	switch {
	case errors.Is(err, domain.ErrNoOpTransition):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, domain.ErrInvalidState):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		http.Error(w, fmt.Sprintf("ChangeState error: %v", err), http.StatusInternalServerError)
		s.logger.Error("PostState: change failed", "err", err)
		return
	}

	resp := ChangeResponse{Transition: t.Request()}
	if !body.Wait {
		s.writeJSON(w, http.StatusAccepted, resp)
		return
	}

	if err := t.Wait(r.Context()); err != nil {
		http.Error(w, "transition still running", http.StatusGatewayTimeout)
		return
	}
	resp.Completed = true
	resp.Stuck = t.Stuck()
	s.writeJSON(w, http.StatusOK, resp)
}

// GetSubscriptions handles the GET /subscriptions request.
func (s *Server) GetSubscriptions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Registry.Describe())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

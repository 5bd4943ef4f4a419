package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/conduit"
	"github.com/aretw0/conduit/pkg/domain"
	"github.com/aretw0/conduit/pkg/registry"
	"github.com/aretw0/conduit/pkg/state"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"
)

const stateURI = "conduit://state"

// StateView is the result of current_state and the body of the conduit://state resource.
type StateView struct {
	Current domain.GameState          `json:"current" jsonschema_description:"The committed game state"`
	Active  *domain.TransitionRequest `json:"active,omitempty" jsonschema_description:"The transition currently running, if any"`
	Pending int                       `json:"pending" jsonschema_description:"Queued transitions not yet started"`
	History []state.Record            `json:"history" jsonschema_description:"Recently completed transitions, oldest first"`
}

// ChangeResult is the result of change_state.
type ChangeResult struct {
	Transition domain.TransitionRequest `json:"transition" jsonschema_description:"The accepted request"`
	Completed  bool                     `json:"completed" jsonschema_description:"True once the new state is current"`
	Stuck      []string                 `json:"stuck,omitempty" jsonschema_description:"Handlers that missed the transition timeout"`
}

// Engine defines the part of the state engine exposed as MCP tools.
type Engine interface {
	Current() domain.GameState
	Active() (domain.TransitionRequest, bool)
	Pending() int
	History() []state.Record
	ChangeState(to domain.GameState) (*state.Transition, error)
}

// Server wraps a runtime and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	registry  *registry.Registry
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(rt *conduit.Runtime) *Server {
	s := &Server{
		engine:    rt.Engine,
		registry:  rt.Bus.Registry(),
		logger:    rt.Logger().With("component", "mcp"),
		mcpServer: server.NewMCPServer("conduit-mcp", strings.TrimSpace(conduit.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL("http://"+addr))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))
	httpServer := &http.Server{Addr: addr, Handler: mux}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: current_state
	s.mcpServer.AddTool(mcp.NewTool("current_state",
		mcp.WithDescription("Get the committed game state, the running transition and recent history."),
		mcp.WithOutputSchema[StateView](),
	), mcp.NewStructuredToolHandler(s.handleCurrentState))

	// TOOL: change_state
	s.mcpServer.AddTool(mcp.NewTool("change_state",
		mcp.WithDescription("Request a transition to another game state. Subsystems receive exit then enter."),
		mcp.WithString("state", mcp.Required(), mcp.Description("Target state, e.g. Login or Lobby")),
		mcp.WithBoolean("wait", mcp.Description("Block until the transition commits")),
		mcp.WithOutputSchema[ChangeResult](),
	), mcp.NewStructuredToolHandler(s.handleChangeState))

	// TOOL: list_subscriptions
	s.mcpServer.AddTool(mcp.NewTool("list_subscriptions",
		mcp.WithDescription("List every event key with its handlers in dispatch order."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, err := json.Marshal(s.registry.Describe())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) view() StateView {
	v := StateView{
		Current: s.engine.Current(),
		Pending: s.engine.Pending(),
		History: s.engine.History(),
	}
	if req, ok := s.engine.Active(); ok {
		v.Active = &req
	}
	return v
}

func (s *Server) handleCurrentState(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StateView, error) {
	return s.view(), nil
}

func (s *Server) handleChangeState(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ChangeResult, error) {
	target, _ := args["state"].(string)
	wait, _ := args["wait"].(bool)

	t, err := s.engine.ChangeState(domain.GameState(target))
	if err != nil {
		s.logger.Warn("MCP change_state rejected", "state", target, "err", err)
		return ChangeResult{}, fmt.Errorf("change_state failed: %w", err)
	}

	res := ChangeResult{Transition: t.Request()}
	if !wait {
		return res, nil
	}
	if err := t.Wait(ctx); err != nil {
		return res, fmt.Errorf("waiting for %s: %w", target, err)
	}
	res.Completed = true
	res.Stuck = t.Stuck()
	return res, nil
}

func (s *Server) registerResources() {
	// EXPOSE: conduit://state
	s.mcpServer.AddResource(mcp.NewResource(stateURI, "Current Game State",
		mcp.WithMIMEType("application/json"),
	), s.readState)
}

func (s *Server) readState(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	jsonBytes, err := json.Marshal(s.view())
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      stateURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/aretw0/conduit/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

func newMCPCmd(a *app) *cobra.Command {
	var (
		transport    string
		addr         string
		scenarioPath string
	)
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run the Model Context Protocol (MCP) server",
		Long: `Starts a runtime as an MCP Server so agents can inspect and change the game state.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := a.loadScenario(scenarioPath)
			if err != nil {
				return err
			}
			rt, err := a.newRuntime(sc)
			if err != nil {
				return err
			}
			for _, c := range sc.Components(rt) {
				if err := rt.Systems.Register(c); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if err := rt.Start(ctx); err != nil {
				return err
			}
			defer rt.Stop(ctx)

			srv := mcp.NewServer(rt)
			switch transport {
			case "stdio":
				a.logger.Info("Starting Conduit MCP Server (Stdio)")
				return srv.ServeStdio()
			case "sse":
				if addr == "" {
					addr = a.cfg.HTTPAddr
				}
				if err := srv.ServeSSE(ctx, addr); err != nil {
					return err
				}
				a.logger.Info("MCP Server stopped gracefully")
				return nil
			default:
				return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
			}
		},
	}
	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Address to listen on (only for SSE)")
	cmd.Flags().StringVarP(&scenarioPath, "scenario", "s", "", "Scenario whose subsystems are started")
	return cmd
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	httpAdapter "github.com/aretw0/conduit/pkg/adapters/http"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr         string
		scenarioPath string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP debug API",
		Long: `Starts a runtime with the scenario's simulated subsystems and exposes it over HTTP:
GET/POST /state, GET /subscriptions, GET /events (SSE) and GET /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.HTTPAddr
			}
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
			api, err := httpAdapter.New(rt)
			if err != nil {
				return err
			}
			defer api.Close()

			srv := &http.Server{
				Addr:              addr,
				Handler:           api.Handler(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				a.logger.Info("Starting Conduit Server", "address", addr, "state", rt.Engine.Current())
				if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				// Give outstanding requests a deadline for completion.
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("graceful shutdown did not complete: %w", err)
				}
				return rt.Stop(shutdownCtx)
			})

			if err := g.Wait(); err != nil {
				return err
			}
			a.logger.Info("Conduit Server stopped gracefully")
			return nil
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Address to listen on (default from config)")
	cmd.Flags().StringVarP(&scenarioPath, "scenario", "s", "", "Scenario whose subsystems are started")
	return cmd
}

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/conduit"
	"github.com/aretw0/conduit/internal/config"
	"github.com/aretw0/conduit/internal/logging"
	"github.com/aretw0/conduit/internal/scenario"
	"github.com/aretw0/conduit/pkg/domain"
	"github.com/spf13/cobra"
)

// app carries the settings resolved by the root command for its subcommands.
type app struct {
	configPath string
	logLevel   string

	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "conduit",
		Short: "Conduit is a typed event bus with a sequenced game-state engine",
		Long: `Conduit routes typed events between subsystems and drives game-state transitions
through an exit phase and an enter phase, waiting for every subscriber to call back.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	rootCmd.AddCommand(
		newDemoCmd(a),
		newServeCmd(a),
		newMCPCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.NewWithWriter(cmd.ErrOrStderr(), level)
	return nil
}

// loadScenario resolves the scenario from the flag, then the config, then the built-in default.
func (a *app) loadScenario(path string) (*scenario.Scenario, error) {
	if path == "" {
		path = a.cfg.Scenario
	}
	if path == "" {
		return scenario.Default(), nil
	}
	return scenario.Load(path)
}

// newRuntime builds a runtime from config. A positive scenario timeout takes precedence.
func (a *app) newRuntime(sc *scenario.Scenario) (*conduit.Runtime, error) {
	timeout := a.cfg.TransitionTimeout
	if sc != nil && sc.Timeout > 0 {
		timeout = sc.Timeout
	}
	return conduit.New(
		conduit.WithLogger(a.logger),
		conduit.WithInitialState(domain.GameState(a.cfg.InitialState)),
		conduit.WithTransitionTimeout(timeout),
	)
}

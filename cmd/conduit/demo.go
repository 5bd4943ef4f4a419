package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/aretw0/conduit/internal/presentation/graph"
	"github.com/aretw0/conduit/internal/presentation/tui"
	"github.com/aretw0/conduit/internal/scenario"
	"github.com/spf13/cobra"
)

func newDemoCmd(a *app) *cobra.Command {
	var (
		scenarioPath string
		mermaid      bool
		quiet        bool
	)
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Walk simulated subsystems through a scenario of state changes",
		Long: `Loads a YAML scenario (or the built-in one), registers one simulated subsystem per entry,
requests each step in order and prints a report of how every transition went.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := a.loadScenario(scenarioPath)
			if err != nil {
				return err
			}
			rt, err := a.newRuntime(sc)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			if !quiet && tui.IsTerminal(out) {
				tui.PrintBanner(out)
			}

			report, err := scenario.Run(ctx, rt, sc)
			if err != nil {
				return fmt.Errorf("scenario %s: %w", sc.Name, err)
			}

			md := report.Markdown()
			if mermaid {
				md += "\n```mermaid\n" + graph.GenerateMermaid(rt.Engine.History(),
					&graph.GraphOverlay{CurrentState: report.Final}) + "```\n"
			}
			return tui.WriteMarkdown(out, md)
		},
	}
	cmd.Flags().StringVarP(&scenarioPath, "scenario", "s", "", "Path to a scenario YAML file")
	cmd.Flags().BoolVar(&mermaid, "mermaid", false, "Append a Mermaid diagram of the transitions")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print the banner")
	return cmd
}

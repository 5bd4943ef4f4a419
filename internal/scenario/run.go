package scenario

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/conduit"
	"github.com/aretw0/conduit/pkg/domain"
	"github.com/aretw0/conduit/pkg/system"
)

// StepResult is the outcome of one step.
type StepResult struct {
	From     domain.GameState
	To       domain.GameState
	Duration time.Duration
	Stuck    []string
	Skipped  bool // the target was already current
}

// Report summarises a run.
type Report struct {
	Name    string
	Steps   []StepResult
	Final   domain.GameState
	Elapsed time.Duration
}

// Components builds one Subsystem per spec.
func (sc *Scenario) Components(rt *conduit.Runtime) []system.Component {
	out := make([]system.Component, 0, len(sc.Systems))
	for _, spec := range sc.Systems {
		out = append(out, NewSubsystem(spec, rt.Logger()))
	}
	return out
}

// Run registers the scenario's subsystems on rt, starts them and walks every step in order,
// waiting for each transition to commit. Subsystems are stopped before returning.
func Run(ctx context.Context, rt *conduit.Runtime, sc *Scenario) (*Report, error) {
	for _, c := range sc.Components(rt) {
		if err := rt.Systems.Register(c); err != nil {
			return nil, err
		}
	}
	if err := rt.Start(ctx); err != nil {
		return nil, err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := rt.Stop(stopCtx); err != nil {
			rt.Logger().Error("failed to stop systems", "err", err)
		}
	}()

	report := &Report{Name: sc.Name}
	began := time.Now()
	for _, to := range sc.Steps {
		from := rt.Engine.Current()
		start := time.Now()

		t, err := rt.ChangeState(to)
		if errors.Is(err, domain.ErrNoOpTransition) {
			report.Steps = append(report.Steps, StepResult{From: from, To: to, Skipped: true})
			continue
		}
		if err != nil {
			return report, fmt.Errorf("step %s: %w", to, err)
		}
		if err := t.Wait(ctx); err != nil {
			return report, fmt.Errorf("step %s: %w", to, err)
		}
		report.Steps = append(report.Steps, StepResult{
			From:     t.Request().From,
			To:       to,
			Duration: time.Since(start),
			Stuck:    t.Stuck(),
		})
	}
	report.Final = rt.Engine.Current()
	report.Elapsed = time.Since(began)
	return report, nil
}

// Markdown renders the report as a table.
func (r *Report) Markdown() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Scenario: %s\n\n", r.Name)
	sb.WriteString("| # | From | To | Duration | Notes |\n")
	sb.WriteString("|---|------|----|----------|-------|\n")
	for i, s := range r.Steps {
		notes := ""
		switch {
		case s.Skipped:
			notes = "skipped (already current)"
		case len(s.Stuck) > 0:
			notes = "timed out: " + strings.Join(s.Stuck, ", ")
		}
		fmt.Fprintf(&sb, "| %d | %s | %s | %s | %s |\n",
			i+1, s.From, s.To, s.Duration.Round(time.Millisecond), notes)
	}
	fmt.Fprintf(&sb, "\nFinal state: **%s** after %s\n", r.Final, r.Elapsed.Round(time.Millisecond))
	return sb.String()
}

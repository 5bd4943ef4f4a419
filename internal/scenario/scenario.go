// Package scenario describes simulated subsystems and a sequence of target states in YAML,
// and drives a runtime through them.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aretw0/conduit/pkg/domain"
	"gopkg.in/yaml.v3"
)

var ErrEmptyScenario = errors.New("scenario has no steps")

// SystemSpec configures one simulated subsystem.
type SystemSpec struct {
	Name       string             `yaml:"name"`
	ExitDelay  time.Duration      `yaml:"exit_delay"`
	EnterDelay time.Duration      `yaml:"enter_delay"`
	States     []domain.GameState `yaml:"states"` // empty means every state
	Stuck      bool               `yaml:"stuck"`  // never calls back for matching states
	Fault      bool               `yaml:"fault"`  // panics on enter for matching states
}

// Scenario is a demo script.
type Scenario struct {
	Name    string             `yaml:"name"`
	Timeout time.Duration      `yaml:"timeout"`
	Systems []SystemSpec       `yaml:"systems"`
	Steps   []domain.GameState `yaml:"steps"`
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	sc, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes and validates a scenario. Unknown fields are rejected.
func Parse(r io.Reader) (*Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var sc Scenario
	if err := dec.Decode(&sc); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks names are unique and every step names a state.
func (sc *Scenario) Validate() error {
	if len(sc.Steps) == 0 {
		return ErrEmptyScenario
	}
	var errs []error
	seen := make(map[string]bool, len(sc.Systems))
	for i, s := range sc.Systems {
		switch {
		case s.Name == "":
			errs = append(errs, fmt.Errorf("systems[%d]: name is required", i))
		case seen[s.Name]:
			errs = append(errs, fmt.Errorf("systems[%d]: duplicate name %q", i, s.Name))
		}
		seen[s.Name] = true
		if s.ExitDelay < 0 || s.EnterDelay < 0 {
			errs = append(errs, fmt.Errorf("systems[%d]: delays must not be negative", i))
		}
		if (s.Stuck || s.Fault) && sc.Timeout <= 0 {
			errs = append(errs, fmt.Errorf("systems[%d]: stuck or faulting systems need a positive timeout", i))
		}
	}
	for i, st := range sc.Steps {
		if st.IsZero() {
			errs = append(errs, fmt.Errorf("steps[%d]: %w", i, domain.ErrInvalidState))
		}
	}
	if sc.Timeout < 0 {
		errs = append(errs, errors.New("timeout must not be negative"))
	}
	return errors.Join(errs...)
}

// Default is the built-in demo: a walk through every built-in state with one slow subsystem.
func Default() *Scenario {
	return &Scenario{
		Name:    "boot-to-gameplay",
		Timeout: 2 * time.Second,
		Systems: []SystemSpec{
			{Name: "ui"},
			{Name: "audio", EnterDelay: 30 * time.Millisecond},
			{Name: "network", ExitDelay: 20 * time.Millisecond, EnterDelay: 50 * time.Millisecond,
				States: []domain.GameState{domain.StateLobby, domain.StateRoom, domain.StateGameplay}},
		},
		Steps: []domain.GameState{
			domain.StateLogin, domain.StateLobby, domain.StateRoom, domain.StateGameplay, domain.StateLobby,
		},
	}
}

// Package config loads runtime settings from an optional YAML file and CONDUIT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aretw0/conduit/internal/logging"
	"github.com/aretw0/conduit/pkg/domain"
	"github.com/caarlos0/env/v11"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTransitionTimeout = 5 * time.Second
	DefaultLogLevel          = "info"
	DefaultHTTPAddr          = "127.0.0.1:8686"
)

// Config holds the settings shared by every command.
// File values are overridden by environment variables.
type Config struct {
	TransitionTimeout time.Duration `mapstructure:"transition_timeout" env:"CONDUIT_TRANSITION_TIMEOUT"`
	LogLevel          string        `mapstructure:"log_level" env:"CONDUIT_LOG_LEVEL"`
	HTTPAddr          string        `mapstructure:"http_addr" env:"CONDUIT_HTTP_ADDR"`
	InitialState      string        `mapstructure:"initial_state" env:"CONDUIT_INITIAL_STATE"`
	Scenario          string        `mapstructure:"scenario" env:"CONDUIT_SCENARIO"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		TransitionTimeout: DefaultTransitionTimeout,
		LogLevel:          DefaultLogLevel,
		HTTPAddr:          DefaultHTTPAddr,
		InitialState:      string(domain.StateBoot),
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when empty) and the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		if err := decode(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  mapstructure.StringToTimeDurationHookFunc(),
		ErrorUnused: true,
		Result:      cfg,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// Validate rejects negative timeouts, unknown log levels and an empty initial state.
func (c Config) Validate() error {
	var errs []error
	if c.TransitionTimeout < 0 {
		errs = append(errs, fmt.Errorf("transition_timeout must not be negative, got %s", c.TransitionTimeout))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if c.InitialState == "" {
		errs = append(errs, fmt.Errorf("initial_state: %w", domain.ErrInvalidState))
	}
	return errors.Join(errs...)
}

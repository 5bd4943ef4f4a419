package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/conduit/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "conduit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, string(domain.StateBoot), cfg.InitialState)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
transition_timeout: 250ms
log_level: debug
http_addr: ":9000"
initial_state: Login
scenario: demo.yaml
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.TransitionTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, "Login", cfg.InitialState)
	assert.Equal(t, "demo.yaml", cfg.Scenario)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "transition_timeout: 1s\nlog_level: warn\n")
	t.Setenv("CONDUIT_TRANSITION_TIMEOUT", "3s")
	t.Setenv("CONDUIT_HTTP_ADDR", ":7000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.TransitionTimeout)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, ":7000", cfg.HTTPAddr)
}

func TestLoad_EmptyFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := Load(writeConfig(t, "transition_timout: 1s\n"))
		assert.ErrorContains(t, err, "transition_timout")
	})

	t.Run("bad duration", func(t *testing.T) {
		_, err := Load(writeConfig(t, "transition_timeout: soon\n"))
		assert.Error(t, err)
	})

	t.Run("bad log level", func(t *testing.T) {
		_, err := Load(writeConfig(t, "log_level: loud\n"))
		assert.ErrorContains(t, err, "log_level")
	})

	t.Run("negative timeout", func(t *testing.T) {
		t.Setenv("CONDUIT_TRANSITION_TIMEOUT", "-1s")
		_, err := Load("")
		assert.ErrorContains(t, err, "transition_timeout")
	})

	t.Run("empty initial state", func(t *testing.T) {
		_, err := Load(writeConfig(t, "initial_state: \"\"\n"))
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})
}

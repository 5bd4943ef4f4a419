package tui

import (
	"bytes"
	"testing"

	"github.com/aretw0/conduit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	assert.Contains(t, buf.String(), "v"+conduit.Version)
}

func TestWriteMarkdown_NonTerminalIsRaw(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, IsTerminal(&buf))

	require.NoError(t, WriteMarkdown(&buf, "# Title\n"))
	assert.Equal(t, "# Title\n", buf.String())
}

func TestNewRenderer(t *testing.T) {
	out, err := NewRenderer()("**bold**")
	require.NoError(t, err)
	assert.Contains(t, out, "bold")
}

package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/conduit"
	"github.com/muesli/termenv"
)

// PrintBanner writes the Conduit ASCII banner and version to w.
func PrintBanner(w io.Writer) {
	p := termenv.EnvColorProfile()
	// Teal to blue gradient
	lines := []struct{ text, color string }{
		{`   ___                _       _ _   `, "#2dd4bf"},
		{`  / __\___  _ __   __| |_   _(_) |_ `, "#22d3ee"},
		{` / /  / _ \| '_ \ / _' | | | | | __|`, "#38bdf8"},
		{`/ /__| (_) | | | | (_| | |_| | | |_ `, "#60a5fa"},
		{`\____/\___/|_| |_|\__,_|\__,_|_|\__|`, "#818cf8"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  v"+strings.TrimSpace(conduit.Version)).Faint())
	fmt.Fprintln(w)
}

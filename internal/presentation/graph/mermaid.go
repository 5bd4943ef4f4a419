package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/conduit/pkg/domain"
	"github.com/aretw0/conduit/pkg/state"
)

// GraphOverlay highlights the committed state on the diagram.
type GraphOverlay struct {
	CurrentState domain.GameState
}

// GenerateMermaid produces a Mermaid state diagram from completed transitions.
// Each distinct edge is drawn once, in first-seen order. Edges that were force-completed by the
// transition timeout are drawn dotted and labelled with the stuck handlers.
func GenerateMermaid(history []state.Record, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("stateDiagram-v2\n")

	if len(history) > 0 {
		sb.WriteString(fmt.Sprintf("    [*] --> %s\n", sanitizeMermaidID(string(history[0].Request.From))))
	}

	type edge struct{ from, to domain.GameState }
	seen := make(map[edge]int)
	var order []edge
	stuck := make(map[edge][]string)
	for _, rec := range history {
		e := edge{rec.Request.From, rec.Request.To}
		if _, ok := seen[e]; !ok {
			order = append(order, e)
		}
		seen[e]++
		stuck[e] = append(stuck[e], rec.Stuck...)
	}

	for _, e := range order {
		label := ""
		if n := seen[e]; n > 1 {
			label = fmt.Sprintf("x%d", n)
		}
		if names := stuck[e]; len(names) > 0 {
			if label != "" {
				label += " "
			}
			label += "⏱️ " + strings.Join(names, ", ")
		}
		line := fmt.Sprintf("    %s --> %s", sanitizeMermaidID(string(e.from)), sanitizeMermaidID(string(e.to)))
		if label != "" {
			line += " : " + strings.ReplaceAll(label, ":", "")
		}
		sb.WriteString(line + "\n")
	}

	if overlay != nil && !overlay.CurrentState.IsZero() {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString(fmt.Sprintf("    class %s current\n", sanitizeMermaidID(string(overlay.CurrentState))))
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}

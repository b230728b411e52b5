package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/dataflow/pkg/domain"
)

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	Highlighted []domain.NodeID
	Selected    domain.NodeID
	HasSelected bool
}

// GenerateMermaid produces a Mermaid flowchart from a graph document.
// It applies semantic styling:
// - Source (no inputs): ([Stadium])
// - Sink (no outputs): [/Parallelogram/]
// - Default: [Rectangle]
// Each link is drawn between the owning nodes and labelled "out:in".
// Links whose slots are not owned by a node of the document are left out.
func GenerateMermaid(doc *domain.Document, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")
	if doc == nil {
		return sb.String()
	}

	owner := make(map[domain.SlotID]domain.NodeID)
	for _, node := range doc.Nodes {
		for _, s := range node.Inputs {
			owner[s.ID] = node.ID
		}
		for _, s := range node.Outputs {
			owner[s.ID] = node.ID
		}

		opener, closer := "[", "]"
		switch {
		case len(node.Inputs) == 0 && len(node.Outputs) > 0:
			opener, closer = "([", "])"
		case len(node.Outputs) == 0 && len(node.Inputs) > 0:
			opener, closer = "[/", "/]"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s #%d\"%s\n", nodeID(node.ID), opener, escape(string(node.Key)), node.ID, closer))
	}

	for _, link := range doc.Links {
		from, to, ok := domain.Pair(link)
		if !ok {
			continue
		}
		src, okSrc := owner[from]
		dst, okDst := owner[to]
		if !okSrc || !okDst {
			continue
		}
		sb.WriteString(fmt.Sprintf("    %s -- \"%d:%d\" --> %s\n", nodeID(src), from, to, nodeID(dst)))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef highlighted fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef selected fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[domain.NodeID]bool)
		for _, id := range overlay.Highlighted {
			if !seen[id] {
				seen[id] = true
				sb.WriteString(fmt.Sprintf("    class %s highlighted;\n", nodeID(id)))
			}
		}
		if overlay.HasSelected {
			sb.WriteString(fmt.Sprintf("    class %s selected;\n", nodeID(overlay.Selected)))
		}
	}

	return sb.String()
}

func nodeID(id domain.NodeID) string {
	return fmt.Sprintf("n%d", id)
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

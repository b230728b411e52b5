package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/dataflow/pkg/domain"
)

// Summary describes a graph document as markdown.
// labels maps node kinds to their catalog labels; missing kinds show the key.
func Summary(title string, doc *domain.Document, labels func(domain.NodeKey) string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", title)
	if doc == nil || len(doc.Nodes) == 0 {
		sb.WriteString("_Empty graph._\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "%d nodes, %d links", len(doc.Nodes), len(doc.Links))
	if doc.Revision != "" {
		fmt.Fprintf(&sb, " (revision `%s`)", doc.Revision)
	}
	sb.WriteString("\n\n")

	sb.WriteString("| id | kind | inputs | outputs | position |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	for _, n := range doc.Nodes {
		label := string(n.Key)
		if labels != nil {
			if l := labels(n.Key); l != "" {
				label = l
			}
		}
		fmt.Fprintf(&sb, "| %d | %s | %s | %s | %.0f, %.0f |\n",
			n.ID, label, slotList(n.Inputs), slotList(n.Outputs), n.X, n.Y)
	}

	if len(doc.Links) > 0 {
		sb.WriteString("\n## Links\n\n")
		for _, l := range doc.Links {
			if from, to, ok := domain.Pair(l); ok {
				fmt.Fprintf(&sb, "- %d → %d\n", from, to)
			}
		}
	}
	return sb.String()
}

func slotList(slots []domain.SlotRecord) string {
	if len(slots) == 0 {
		return "-"
	}
	parts := make([]string, len(slots))
	for i, s := range slots {
		parts[i] = fmt.Sprintf("%d:%s", s.ID, s.Key)
	}
	return strings.Join(parts, " ")
}

package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/dataflow/pkg/catalog"
	"github.com/muesli/termenv"
)

// PrintCatalog draws the catalog tree, groups in bold and kinds with their key.
func PrintCatalog(w io.Writer, tree *catalog.Tree, p termenv.Profile) {
	tree.Walk(func(_, depth int, leaf bool, key, name string) {
		indent := strings.Repeat("  ", depth)
		if !leaf {
			fmt.Fprintf(w, "%s%s\n", indent, p.String(name+"/").Bold())
			return
		}
		fmt.Fprintf(w, "%s%s  %s\n", indent, name,
			p.String(key).Foreground(p.Color("#94a3b8")))
	})
}

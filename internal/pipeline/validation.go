package pipeline

import (
	"fmt"
	"strings"

	"github.com/dvloznov/budget-flow/internal/flowgraph"
)

// ValidateGraph checks the invariants a visualization relies on: unique
// non-blank node names, link indexes inside the node list, one link per
// (source, target) pair and no negative values.
// Returns nil if valid, error describing the first problem if invalid.
func ValidateGraph(g flowgraph.Graph) error {
	names := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		if strings.TrimSpace(n.Name) == "" {
			return fmt.Errorf("node %d has a blank name", i)
		}
		if prev, dup := names[n.Name]; dup {
			return fmt.Errorf("node %q appears at %d and %d", n.Name, prev, i)
		}
		names[n.Name] = i
	}

	type pair struct{ source, target int }
	seen := make(map[pair]bool, len(g.Links))
	for i, l := range g.Links {
		if l.Source < 0 || l.Source >= len(g.Nodes) || l.Target < 0 || l.Target >= len(g.Nodes) {
			return fmt.Errorf("link %d (%d -> %d) points outside %d nodes", i, l.Source, l.Target, len(g.Nodes))
		}
		if l.Value.IsNegative() {
			return fmt.Errorf("link %d (%s -> %s) has negative value %s",
				i, g.Nodes[l.Source].Name, g.Nodes[l.Target].Name, l.Value)
		}
		p := pair{l.Source, l.Target}
		if seen[p] {
			return fmt.Errorf("link %d duplicates %s -> %s", i, g.Nodes[l.Source].Name, g.Nodes[l.Target].Name)
		}
		seen[p] = true
	}
	return nil
}

// ValidateDocument validates every view of doc.
func ValidateDocument(doc flowgraph.Document) error {
	if len(doc) != len(Views) {
		return fmt.Errorf("ValidateDocument: expected %d views, got %d", len(Views), len(doc))
	}
	for i, g := range doc {
		if err := ValidateGraph(g); err != nil {
			return fmt.Errorf("ValidateDocument: %s view: %w", Views[i], err)
		}
	}
	return nil
}

// Package flowgraph turns extracted records into the node and link lists of a
// Sankey diagram.
package flowgraph

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Names used when a record yields an empty node name.
const (
	UnknownSource = "Unknown Source"
	UnknownTarget = "Unknown Target"
)

// Node is a named vertex. Names are unique within a graph.
type Node struct {
	Name string `json:"name"`
}

// Link is a flow between two node indexes. Value is never negative.
type Link struct {
	Source int             `json:"source"`
	Target int             `json:"target"`
	Value  decimal.Decimal `json:"value"`
}

// MarshalJSON writes the value as a bare JSON number.
func (l Link) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Source int             `json:"source"`
		Target int             `json:"target"`
		Value  json.RawMessage `json:"value"`
	}{l.Source, l.Target, json.RawMessage(l.Value.String())})
}

// Graph is one view of the flows.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// Document is the published output: the high-level view followed by the
// detail view.
type Document []Graph

// Builder accumulates nodes and links from any number of record collections.
type Builder struct {
	nodes []Node
	index map[string]int
	links []Link
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{index: make(map[string]int)}
}

// node returns the index of name, inserting it on first sight.
func (b *Builder) node(name string) int {
	if i, ok := b.index[name]; ok {
		return i
	}
	b.nodes = append(b.nodes, Node{Name: name})
	b.index[name] = len(b.nodes) - 1
	return len(b.nodes) - 1
}

// Add appends one link per record with a non-zero value. Blank names are
// replaced by the unknown sentinels; other names are used verbatim. A
// negative value is recorded at its absolute value on the carryover route if
// the context has one, otherwise on the record's own pair.
func Add[R Record](b *Builder, records []R, ctx Context[R]) error {
	for i, r := range records {
		value, err := ctx.Value.resolve(r)
		if err != nil {
			return fmt.Errorf("flowgraph.Add: record %d value: %w", i, err)
		}
		if value.IsZero() {
			continue
		}

		source, target := ctx.Source, ctx.Target
		if value.IsNegative() && ctx.Carryover != nil {
			source, target = ctx.Carryover.Source, ctx.Carryover.Target
		}

		from, err := source.resolve(r)
		if err != nil {
			return fmt.Errorf("flowgraph.Add: record %d source: %w", i, err)
		}
		to, err := target.resolve(r)
		if err != nil {
			return fmt.Errorf("flowgraph.Add: record %d target: %w", i, err)
		}
		if strings.TrimSpace(from) == "" {
			from = UnknownSource
		}
		if strings.TrimSpace(to) == "" {
			to = UnknownTarget
		}

		b.links = append(b.links, Link{
			Source: b.node(from),
			Target: b.node(to),
			Value:  value.Abs(),
		})
	}
	return nil
}

// Graph sums links sharing a source and target and orders them by
// descending value. Ties keep their first-seen order.
func (b *Builder) Graph() Graph {
	type pair struct{ source, target int }

	merged := make([]Link, 0, len(b.links))
	at := make(map[pair]int, len(b.links))
	for _, l := range b.links {
		key := pair{l.Source, l.Target}
		if i, ok := at[key]; ok {
			merged[i].Value = merged[i].Value.Add(l.Value)
			continue
		}
		at[key] = len(merged)
		merged = append(merged, l)
	}

	slices.SortStableFunc(merged, func(x, y Link) int {
		return y.Value.Cmp(x.Value)
	})

	return Graph{
		Nodes: append([]Node{}, b.nodes...),
		Links: merged,
	}
}

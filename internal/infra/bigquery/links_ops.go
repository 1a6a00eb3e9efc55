package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/budget-flow/internal/flowgraph"
)

// InsertLinksWithClient inserts a batch of LinkRow into flow_links.
func InsertLinksWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, rows []*LinkRow) error {
	if len(rows) == 0 {
		return nil
	}

	// Use fully qualified table name to avoid project ID issues
	table := client.DatasetInProject(ds.Project, ds.Name).Table(linksTable)
	inserter := table.Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertLinks: inserting rows: %w", err)
	}
	return nil
}

// LinkRows flattens the views of a document into flow_links rows. views names
// the graphs of doc in order; extra graphs are named by their index.
func LinkRows(runID string, views []string, doc flowgraph.Document) []*LinkRow {
	now := time.Now()

	var rows []*LinkRow
	for i, g := range doc {
		view := fmt.Sprintf("view-%d", i)
		if i < len(views) {
			view = views[i]
		}
		for pos, l := range g.Links {
			rows = append(rows, &LinkRow{
				RunID:     runID,
				View:      view,
				Position:  int64(pos),
				Source:    g.Nodes[l.Source].Name,
				Target:    g.Nodes[l.Target].Name,
				Value:     l.Value.Rat(),
				CreatedTS: now,
			})
		}
	}
	return rows
}

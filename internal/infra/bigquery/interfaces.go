package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	bq "github.com/dvloznov/budget-flow/internal/bigquery"
)

// Re-export interfaces and rows from shared package
type (
	RunRepository = bq.RunRepository
	RunRow        = bq.RunRow
	RunCounts     = bq.RunCounts
	LinkRow       = bq.LinkRow
)

const (
	StatusRunning = bq.StatusRunning
	StatusSuccess = bq.StatusSuccess
	StatusFailed  = bq.StatusFailed
)

// BigQueryRunRepository is the concrete implementation of RunRepository
// that interacts with BigQuery. It holds a shared BigQuery client to avoid
// creating a new connection for each operation.
type BigQueryRunRepository struct {
	client *bigquery.Client
	ds     Dataset
}

// NewBigQueryRunRepository creates a new instance of BigQueryRunRepository
// with a shared BigQuery client.
func NewBigQueryRunRepository(ctx context.Context, ds Dataset) (*BigQueryRunRepository, error) {
	if ds.Project == "" || ds.Name == "" {
		return nil, fmt.Errorf("NewBigQueryRunRepository: project and dataset are required")
	}
	client, err := bigquery.NewClient(ctx, ds.Project)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryRunRepository: creating client: %w", err)
	}
	return &BigQueryRunRepository{
		client: client,
		ds:     ds,
	}, nil
}

// Close closes the BigQuery client connection. This should be called when
// the repository is no longer needed to release resources.
func (r *BigQueryRunRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// StartRun delegates to StartRunWithClient with the shared client.
func (r *BigQueryRunRepository) StartRun(ctx context.Context, row *RunRow) (string, error) {
	return StartRunWithClient(ctx, r.client, r.ds, row)
}

// MarkRunFailed delegates to MarkRunFailedWithClient with the shared client.
func (r *BigQueryRunRepository) MarkRunFailed(ctx context.Context, runID string, runErr error) {
	MarkRunFailedWithClient(ctx, r.client, r.ds, runID, runErr)
}

// MarkRunSucceeded delegates to MarkRunSucceededWithClient with the shared client.
func (r *BigQueryRunRepository) MarkRunSucceeded(ctx context.Context, runID string, counts RunCounts) error {
	return MarkRunSucceededWithClient(ctx, r.client, r.ds, runID, counts)
}

// InsertLinks delegates to InsertLinksWithClient with the shared client.
func (r *BigQueryRunRepository) InsertLinks(ctx context.Context, rows []*LinkRow) error {
	return InsertLinksWithClient(ctx, r.client, r.ds, rows)
}

// ListRuns delegates to ListRunsWithClient with the shared client.
func (r *BigQueryRunRepository) ListRuns(ctx context.Context, limit int) ([]*RunRow, error) {
	return ListRunsWithClient(ctx, r.client, r.ds, limit)
}

var _ RunRepository = (*BigQueryRunRepository)(nil)

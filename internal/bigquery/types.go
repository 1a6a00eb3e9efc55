package bigquery

import (
	"context"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
)

// Run statuses.
const (
	StatusRunning = "RUNNING"
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// RunRepository records extraction runs and the links they publish.
type RunRepository interface {
	// StartRun inserts the run with status=RUNNING and returns its extraction_run_id.
	StartRun(ctx context.Context, row *RunRow) (string, error)

	// MarkRunFailed sets status=FAILED, finished_ts and error_message. Failures
	// are logged, not returned, so they never hide the original error.
	MarkRunFailed(ctx context.Context, runID string, runErr error)

	// MarkRunSucceeded sets status=SUCCESS, finished_ts and the record counts.
	MarkRunSucceeded(ctx context.Context, runID string, counts RunCounts) error

	// InsertLinks inserts the published links of a run.
	InsertLinks(ctx context.Context, rows []*LinkRow) error

	// ListRuns returns the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]*RunRow, error)
}

// RunRow is one row of extraction_runs.
type RunRow struct {
	RunID   string     `bigquery:"extraction_run_id"` // REQUIRED
	City    string     `bigquery:"city"`              // REQUIRED
	RunDate civil.Date `bigquery:"run_date"`          // REQUIRED

	StartedTS  time.Time              `bigquery:"started_ts"`  // REQUIRED
	FinishedTS bigquery.NullTimestamp `bigquery:"finished_ts"` // NULLABLE

	RevenueURI string `bigquery:"revenue_uri"` // REQUIRED
	ExpenseURI string `bigquery:"expense_uri"` // REQUIRED
	OutputURI  string `bigquery:"output_uri"`  // REQUIRED
	Policy     string `bigquery:"policy"`      // REQUIRED

	Status       bigquery.NullString `bigquery:"status"`        // NULLABLE
	ErrorMessage bigquery.NullString `bigquery:"error_message"` // NULLABLE

	RevenueRecords bigquery.NullInt64 `bigquery:"revenue_records"` // NULLABLE
	ExpenseRecords bigquery.NullInt64 `bigquery:"expense_records"` // NULLABLE
	Links          bigquery.NullInt64 `bigquery:"links"`           // NULLABLE
}

// RunCounts are the totals stored when a run succeeds.
type RunCounts struct {
	RevenueRecords int
	ExpenseRecords int
	Links          int
}

// LinkRow is one row of flow_links: a link of one view with its node names
// resolved.
type LinkRow struct {
	RunID     string    `bigquery:"extraction_run_id"` // REQUIRED
	View      string    `bigquery:"view"`              // REQUIRED
	Position  int64     `bigquery:"position"`          // REQUIRED
	Source    string    `bigquery:"source"`            // REQUIRED
	Target    string    `bigquery:"target"`            // REQUIRED
	Value     *big.Rat  `bigquery:"value"`             // REQUIRED NUMERIC
	CreatedTS time.Time `bigquery:"created_ts"`        // REQUIRED
}

// State is the run status, or "-" when it was never set.
func (r *RunRow) State() string {
	if !r.Status.Valid || r.Status.StringVal == "" {
		return "-"
	}
	return r.Status.StringVal
}

// Failure returns the stored error message of a failed run.
func (r *RunRow) Failure() (string, bool) {
	if r.State() != StatusFailed || !r.ErrorMessage.Valid || r.ErrorMessage.StringVal == "" {
		return "", false
	}
	return r.ErrorMessage.StringVal, true
}

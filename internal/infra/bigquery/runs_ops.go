package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/budget-flow/internal/logger"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
)

const (
	runsTable  = "extraction_runs"
	linksTable = "flow_links"

	maxErrorMessage = 2000
)

// Dataset locates the run ledger tables.
type Dataset struct {
	Project string
	Name    string
}

func (d Dataset) table(name string) string {
	return fmt.Sprintf("`%s.%s.%s`", d.Project, d.Name, name)
}

// StartRunWithClient inserts row into extraction_runs with status=RUNNING and
// returns the generated extraction_run_id. An ID already set on row is kept.
func StartRunWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, row *RunRow) (string, error) {
	if row.RunID == "" {
		row.RunID = uuid.NewString()
	}
	if row.StartedTS.IsZero() {
		row.StartedTS = time.Now()
	}
	row.Status = bigquery.NullString{StringVal: StatusRunning, Valid: true}

	q := client.Query(fmt.Sprintf(`
		INSERT %s (
			extraction_run_id,
			city,
			run_date,
			started_ts,
			revenue_uri,
			expense_uri,
			output_uri,
			policy,
			status
		)
		VALUES (
			@extraction_run_id,
			@city,
			@run_date,
			@started_ts,
			@revenue_uri,
			@expense_uri,
			@output_uri,
			@policy,
			@status
		)
	`, ds.table(runsTable)))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "extraction_run_id", Value: row.RunID},
		{Name: "city", Value: row.City},
		{Name: "run_date", Value: row.RunDate},
		{Name: "started_ts", Value: row.StartedTS},
		{Name: "revenue_uri", Value: row.RevenueURI},
		{Name: "expense_uri", Value: row.ExpenseURI},
		{Name: "output_uri", Value: row.OutputURI},
		{Name: "policy", Value: row.Policy},
		{Name: "status", Value: row.Status.StringVal},
	}

	if err := runQuery(ctx, q); err != nil {
		return "", fmt.Errorf("StartRun: %w", err)
	}
	return row.RunID, nil
}

// MarkRunFailedWithClient sets status=FAILED, finished_ts and error_message.
func MarkRunFailedWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, runID string, runErr error) {
	log := logger.FromContext(ctx)

	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
		if len(errMsg) > maxErrorMessage {
			errMsg = errMsg[:maxErrorMessage]
		}
	}

	q := client.Query(fmt.Sprintf(`
		UPDATE %s
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = @error_message
		WHERE extraction_run_id = @extraction_run_id
	`, ds.table(runsTable)))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: StatusFailed},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "error_message", Value: errMsg},
		{Name: "extraction_run_id", Value: runID},
	}

	if err := runQuery(ctx, q); err != nil {
		log.Error().
			Err(err).
			Str("run_id", runID).
			Msg("MarkRunFailed: update failed")
	}
}

// MarkRunSucceededWithClient sets status=SUCCESS, finished_ts and the counts,
// and resets error_message to NULL.
func MarkRunSucceededWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, runID string, counts RunCounts) error {
	q := client.Query(fmt.Sprintf(`
		UPDATE %s
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = NULL,
		    revenue_records = @revenue_records,
		    expense_records = @expense_records,
		    links = @links
		WHERE extraction_run_id = @extraction_run_id
	`, ds.table(runsTable)))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: StatusSuccess},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "revenue_records", Value: counts.RevenueRecords},
		{Name: "expense_records", Value: counts.ExpenseRecords},
		{Name: "links", Value: counts.Links},
		{Name: "extraction_run_id", Value: runID},
	}

	if err := runQuery(ctx, q); err != nil {
		return fmt.Errorf("MarkRunSucceeded: %w", err)
	}
	return nil
}

// ListRunsWithClient returns up to limit runs ordered by started_ts
// descending.
func ListRunsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, limit int) ([]*RunRow, error) {
	if limit <= 0 {
		limit = 20
	}

	q := client.Query(fmt.Sprintf(`
		SELECT
			extraction_run_id,
			city,
			run_date,
			started_ts,
			finished_ts,
			revenue_uri,
			expense_uri,
			output_uri,
			policy,
			status,
			error_message,
			revenue_records,
			expense_records,
			links
		FROM %s
		ORDER BY started_ts DESC
		LIMIT @limit
	`, ds.table(runsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "limit", Value: limit},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListRuns: reading query: %w", err)
	}

	var runs []*RunRow
	for {
		var row RunRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListRuns: iterating results: %w", err)
		}
		runs = append(runs, &row)
	}
	return runs, nil
}

func runQuery(ctx context.Context, q *bigquery.Query) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}

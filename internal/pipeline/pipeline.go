// Package pipeline wires workbook loading, extraction, graph building and
// output into one batch run.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	infra "github.com/dvloznov/budget-flow/internal/infra/bigquery"
	"github.com/dvloznov/budget-flow/internal/logger"
	"github.com/google/uuid"
)

// OutputWriteError reports that the output document could not be written.
// It is always fatal.
type OutputWriteError struct {
	URI string
	Err error
}

func (e *OutputWriteError) Error() string {
	return fmt.Sprintf("writing output %s: %v", e.URI, e.Err)
}

func (e *OutputWriteError) Unwrap() error { return e.Err }

// RunExtraction executes the extraction pipeline for one city. When deps.Runs
// is set the run is recorded in the run ledger: RUNNING first, then SUCCESS
// with the record counts or FAILED with the error.
func RunExtraction(ctx context.Context, opts Options, deps Deps) (*PipelineState, error) {
	if opts.City == nil {
		return nil, fmt.Errorf("RunExtraction: no city configuration")
	}
	if deps.Storage == nil {
		return nil, fmt.Errorf("RunExtraction: no storage")
	}

	state := &PipelineState{Options: opts}

	if deps.Runs != nil {
		now := time.Now()
		runID, err := deps.Runs.StartRun(ctx, &infra.RunRow{
			City:       opts.City.Name,
			RunDate:    civil.DateOf(now),
			StartedTS:  now,
			RevenueURI: opts.RevenueURI,
			ExpenseURI: opts.ExpenseURI,
			OutputURI:  opts.OutputURI,
			Policy:     opts.Policy.String(),
		})
		if err != nil {
			return nil, fmt.Errorf("RunExtraction: start run: %w", err)
		}
		state.RunID = runID
	} else {
		state.RunID = uuid.NewString()
	}

	log := logger.WithRun(logger.FromContext(ctx), state.RunID)
	ctx = logger.WithContext(ctx, log)
	log.Info().
		Str("city", opts.City.Name).
		Str("policy", opts.Policy.String()).
		Msg("Starting extraction")

	if err := NewExtractionPipeline(deps).Execute(ctx, state); err != nil {
		if deps.Runs != nil {
			deps.Runs.MarkRunFailed(ctx, state.RunID, err)
		}
		return state, err
	}

	if deps.Runs != nil {
		counts := infra.RunCounts{
			RevenueRecords: len(state.RevenueRecords),
			ExpenseRecords: len(state.ExpenseRecords),
			Links:          state.Links(),
		}
		if err := deps.Runs.MarkRunSucceeded(ctx, state.RunID, counts); err != nil {
			return state, fmt.Errorf("RunExtraction: mark run succeeded: %w", err)
		}
	}

	log.Info().
		Int("revenue_records", len(state.RevenueRecords)).
		Int("expense_records", len(state.ExpenseRecords)).
		Int("links", state.Links()).
		Msg("Extraction finished")
	return state, nil
}

// ExtractRecords loads both workbooks and extracts their records without
// building graphs or writing output. Runs are not recorded.
func ExtractRecords(ctx context.Context, opts Options, deps Deps) (*PipelineState, error) {
	if opts.City == nil {
		return nil, fmt.Errorf("ExtractRecords: no city configuration")
	}
	if deps.Storage == nil {
		return nil, fmt.Errorf("ExtractRecords: no storage")
	}

	state := &PipelineState{Options: opts, RunID: uuid.NewString()}
	ctx = logger.WithContext(ctx, logger.WithRun(logger.FromContext(ctx), state.RunID))
	if err := NewRecordsPipeline(deps).Execute(ctx, state); err != nil {
		return state, err
	}
	return state, nil
}

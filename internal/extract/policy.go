package extract

import (
	"context"

	"github.com/dvloznov/budget-flow/internal/logger"
	"github.com/dvloznov/budget-flow/internal/reference"
)

// Policy decides what a failed reference lookup does to the run.
type Policy int

const (
	// Strict aborts the extraction on the first unresolved code.
	Strict Policy = iota
	// Lenient logs the unresolved code and skips the record.
	Lenient
)

// PolicyFor returns Strict when strict is set and Lenient otherwise.
func PolicyFor(strict bool) Policy {
	if strict {
		return Strict
	}
	return Lenient
}

func (p Policy) String() string {
	if p == Strict {
		return "strict"
	}
	return "lenient"
}

// Stats counts what happened to the cells of one extraction.
type Stats struct {
	// Cells is the number of populated amount cells visited.
	Cells int
	// Emitted is the number of records produced.
	Emitted int
	// Dropped counts amounts filtered out by value (zero, or negative revenue).
	Dropped int
	// NonNumeric counts amount cells holding text.
	NonNumeric int
	// Skipped counts records dropped by the lenient policy.
	Skipped int
	// Anomalies counts data rows scanned before any group marker.
	Anomalies int
	// Unresolved counts department groups with no division mapping.
	Unresolved int
}

// apply returns err unchanged unless the policy is lenient and err is a
// lookup failure, in which case it is logged and swallowed.
func (p Policy) apply(ctx context.Context, err error, cell string, stats *Stats) error {
	if err == nil {
		return nil
	}
	if p == Strict || !reference.IsNotFound(err) {
		return err
	}

	log := logger.FromContext(ctx)
	log.Warn().Err(err).Str("cell", cell).Msg("Skipping record with unresolved code")
	stats.Skipped++
	return nil
}

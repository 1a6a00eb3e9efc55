package reference

import (
	"errors"
	"fmt"
)

// Lookup kinds reported by NotFoundError.
const (
	KindFund            = "fund"
	KindFundCategory    = "fund category"
	KindRevenueCategory = "revenue category"
	KindProgram         = "program"
)

// NotFoundError is returned when a code has no entry in the static
// configuration. Whether it aborts a run is decided by the caller's policy.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s found for %q", e.Kind, e.Key)
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

package pipeline

import (
	"context"

	bq "github.com/dvloznov/budget-flow/internal/bigquery"
)

// StorageService is an interface for workbook and output storage operations.
// storage.Router implements it for local paths and gs:// URIs.
type StorageService interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
	Put(ctx context.Context, uri string, data []byte) error
}

// RunRepository records extraction runs. A nil RunRepository disables
// publishing.
type RunRepository = bq.RunRepository

// Deps are the collaborators of an extraction run.
type Deps struct {
	Storage StorageService
	Runs    RunRepository
}

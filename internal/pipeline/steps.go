package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dvloznov/budget-flow/internal/config"
	"github.com/dvloznov/budget-flow/internal/extract"
	"github.com/dvloznov/budget-flow/internal/flowgraph"
	"github.com/dvloznov/budget-flow/internal/grid"
	infra "github.com/dvloznov/budget-flow/internal/infra/bigquery"
	"github.com/dvloznov/budget-flow/internal/logger"
	"github.com/dvloznov/budget-flow/internal/reference"
	"github.com/dvloznov/budget-flow/internal/storage"
)

// PipelineStep represents a single step in the extraction pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// Options are the inputs of one extraction run.
type Options struct {
	City       *config.City
	RevenueURI string
	ExpenseURI string
	OutputURI  string
	Policy     extract.Policy
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	Options

	RunID    string
	Resolver *reference.Resolver

	RevenueWorkbook *grid.Workbook
	ExpenseWorkbook *grid.Workbook

	RevenueRecords []extract.RevenueRecord
	RevenueStats   extract.Stats
	ExpenseRecords []extract.ExpenseRecord
	ExpenseStats   extract.Stats

	Document flowgraph.Document
	Output   []byte
}

// Links counts the links of every view.
func (s *PipelineState) Links() int {
	n := 0
	for _, g := range s.Document {
		n += len(g.Links)
	}
	return n
}

// Step 1: ResolveReferenceStep builds the reference resolver from the city tables.
type ResolveReferenceStep struct{}

func (s *ResolveReferenceStep) Execute(ctx context.Context, state *PipelineState) error {
	if state.City == nil {
		return fmt.Errorf("ResolveReference: no city configuration")
	}
	resolver, err := reference.New(state.City.Tables)
	if err != nil {
		return err
	}
	state.Resolver = resolver
	return nil
}

// Step 2: LoadWorkbooksStep fetches both workbooks and loads them into memory.
type LoadWorkbooksStep struct {
	Storage StorageService
}

func (s *LoadWorkbooksStep) Execute(ctx context.Context, state *PipelineState) error {
	var err error
	if state.RevenueWorkbook, err = s.load(ctx, state.RevenueURI); err != nil {
		return err
	}
	if state.ExpenseWorkbook, err = s.load(ctx, state.ExpenseURI); err != nil {
		return err
	}
	return nil
}

func (s *LoadWorkbooksStep) load(ctx context.Context, uri string) (*grid.Workbook, error) {
	if uri == "" {
		return nil, fmt.Errorf("LoadWorkbooks: workbook location is empty")
	}
	data, err := s.Storage.Fetch(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("LoadWorkbooks: %w", err)
	}
	wb, err := grid.OpenWorkbookBytes(data)
	if err != nil {
		return nil, fmt.Errorf("LoadWorkbooks: %s: %w", uri, err)
	}
	log := logger.FromContext(ctx)
	log.Info().
		Str("uri", uri).
		Str("file", storage.ExtractFilename(uri)).
		Strs("sheets", wb.SheetNames()).
		Int("cells", wb.Cells()).
		Msg("Loaded workbook")
	return wb, nil
}

// Step 3: ExtractRevenueStep turns the revenue workbook into RevenueRecords.
type ExtractRevenueStep struct{}

func (s *ExtractRevenueStep) Execute(ctx context.Context, state *PipelineState) error {
	layout := state.City.Revenue
	amounts, err := state.RevenueWorkbook.Sheet(layout.AmountSheet)
	if err != nil {
		return err
	}
	categories, err := state.RevenueWorkbook.Sheet(layout.CategorySheet)
	if err != nil {
		return err
	}

	ex, err := extract.NewRevenueExtractor(state.Resolver, layout, state.Policy)
	if err != nil {
		return err
	}
	state.RevenueRecords, state.RevenueStats, err = ex.Extract(ctx, amounts, categories)
	return err
}

// Step 4: ExtractExpenseStep turns the operating and capital workbook into ExpenseRecords.
type ExtractExpenseStep struct{}

func (s *ExtractExpenseStep) Execute(ctx context.Context, state *PipelineState) error {
	layout := state.City.Expense
	amounts, err := state.ExpenseWorkbook.Sheet(layout.AmountSheet)
	if err != nil {
		return err
	}
	programs, err := state.ExpenseWorkbook.Sheet(layout.ProgramSheet)
	if err != nil {
		return err
	}

	ex, err := extract.NewExpenseExtractor(state.Resolver, layout, state.Policy)
	if err != nil {
		return err
	}
	state.ExpenseRecords, state.ExpenseStats, err = ex.Extract(ctx, amounts, programs)
	return err
}

// Step 5: BuildGraphsStep builds the high-level and detail graphs.
type BuildGraphsStep struct{}

func (s *BuildGraphsStep) Execute(ctx context.Context, state *PipelineState) error {
	doc, err := BuildDocument(state.RevenueRecords, state.ExpenseRecords, state.City.Carryover)
	if err != nil {
		return err
	}
	state.Document = doc

	log := logger.FromContext(ctx)
	for i, g := range doc {
		log.Info().
			Str("view", Views[i]).
			Int("nodes", len(g.Nodes)).
			Int("links", len(g.Links)).
			Msg("Built graph")
	}
	return nil
}

// Step 6: ValidateGraphsStep checks the graphs before anything is written.
type ValidateGraphsStep struct{}

func (s *ValidateGraphsStep) Execute(ctx context.Context, state *PipelineState) error {
	return ValidateDocument(state.Document)
}

// Step 7: WriteOutputStep serializes the document and writes it to the output location.
type WriteOutputStep struct {
	Storage StorageService
}

func (s *WriteOutputStep) Execute(ctx context.Context, state *PipelineState) error {
	data, err := json.MarshalIndent(state.Document, "", "  ")
	if err != nil {
		return fmt.Errorf("WriteOutput: marshal document: %w", err)
	}
	state.Output = append(data, '\n')

	if err := s.Storage.Put(ctx, state.OutputURI, state.Output); err != nil {
		return &OutputWriteError{URI: state.OutputURI, Err: err}
	}
	log := logger.FromContext(ctx)
	log.Info().
		Str("uri", state.OutputURI).
		Int("bytes", len(state.Output)).
		Msg("Wrote output document")
	return nil
}

// Step 8: PublishLinksStep inserts the links of every view into flow_links.
type PublishLinksStep struct {
	Runs RunRepository
}

func (s *PublishLinksStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Runs == nil {
		return nil
	}
	rows := infra.LinkRows(state.RunID, Views, state.Document)
	if err := s.Runs.InsertLinks(ctx, rows); err != nil {
		return err
	}
	log := logger.FromContext(ctx)
	log.Info().Int("rows", len(rows)).Msg("Published links")
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d (%s) failed: %w", i+1, stepName(step), err)
		}
	}
	return nil
}

func stepName(step PipelineStep) string {
	name := fmt.Sprintf("%T", step)
	name = name[strings.LastIndex(name, ".")+1:]
	return strings.TrimSuffix(name, "Step")
}

// NewExtractionPipeline creates the standard 8-step pipeline for one city budget.
func NewExtractionPipeline(deps Deps) *Pipeline {
	return NewPipeline(
		&ResolveReferenceStep{},
		&LoadWorkbooksStep{Storage: deps.Storage},
		&ExtractRevenueStep{},
		&ExtractExpenseStep{},
		&BuildGraphsStep{},
		&ValidateGraphsStep{},
		&WriteOutputStep{Storage: deps.Storage},
		&PublishLinksStep{Runs: deps.Runs},
	)
}

// NewRecordsPipeline creates the first four steps only: records are
// extracted and nothing is written.
func NewRecordsPipeline(deps Deps) *Pipeline {
	return NewPipeline(
		&ResolveReferenceStep{},
		&LoadWorkbooksStep{Storage: deps.Storage},
		&ExtractRevenueStep{},
		&ExtractExpenseStep{},
	)
}

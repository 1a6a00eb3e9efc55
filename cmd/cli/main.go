package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dvloznov/budget-flow/internal/audit"
	"github.com/dvloznov/budget-flow/internal/config"
	"github.com/dvloznov/budget-flow/internal/extract"
	infraBQ "github.com/dvloznov/budget-flow/internal/infra/bigquery"
	"github.com/dvloznov/budget-flow/internal/logger"
	"github.com/dvloznov/budget-flow/internal/pipeline"
	"github.com/dvloznov/budget-flow/internal/reference"
	"github.com/dvloznov/budget-flow/internal/storage"
	"github.com/rs/zerolog"
)

func main() {
	settings := config.LoadSettings()
	log := logger.NewWithLevel(settings.LogLevel)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "extract":
		runExtract(log, settings)
	case "audit":
		runAudit(log, settings)
	case "history":
		runHistory(log, settings)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Budget Flow CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  extract   Extract revenue and expense workbooks into a Sankey document")
	fmt.Println("  audit     Compare extracted totals against budget book totals")
	fmt.Println("  history   List recent extraction runs")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nWorkbook and output locations may be local paths or gs://bucket/object URIs.")
	fmt.Println("Defaults come from the environment (BUDGET_*), optionally loaded from .env.")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// inputFlags registers the flags shared by extract and audit.
func inputFlags(fs *flag.FlagSet, settings config.Settings) (cfg, revenue, expense *string, strict *bool) {
	cfg = fs.String("config", settings.ConfigPath, "City configuration YAML")
	revenue = fs.String("revenue", settings.RevenueURI, "Revenue workbook path or gs:// URI")
	expense = fs.String("expense", settings.ExpenseURI, "Operating and capital workbook path or gs:// URI")
	strict = fs.Bool("strict", settings.Strict, "Abort on the first unknown fund or category code")
	return cfg, revenue, expense, strict
}

func runExtract(log zerolog.Logger, settings config.Settings) {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	cfgPath, revenueURI, expenseURI, strict := inputFlags(fs, settings)
	outputURI := fs.String("output", settings.OutputURI, "Output document path or gs:// URI")
	project := fs.String("bq-project", settings.BQProject, "GCP project of the run ledger (empty disables publishing)")
	dataset := fs.String("bq-dataset", settings.BQDataset, "BigQuery dataset of the run ledger")
	timeout := fs.Duration("timeout", 5*time.Minute, "Overall timeout")
	fs.Parse(os.Args[2:])

	if *revenueURI == "" || *expenseURI == "" {
		log.Fatal().Msg("Usage: cli extract -revenue PATH -expense PATH [-output PATH]")
	}

	city, err := config.LoadCity(*cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load city configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	store := storage.NewRouter()
	defer store.Close()

	deps := pipeline.Deps{Storage: store}
	if *project != "" {
		repo, err := infraBQ.NewBigQueryRunRepository(ctx, infraBQ.Dataset{Project: *project, Name: *dataset})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create run repository")
		}
		defer repo.Close()
		deps.Runs = repo
	}

	state, err := pipeline.RunExtraction(ctx, pipeline.Options{
		City:       city,
		RevenueURI: *revenueURI,
		ExpenseURI: *expenseURI,
		OutputURI:  *outputURI,
		Policy:     extract.PolicyFor(*strict),
	}, deps)
	if err != nil {
		var writeErr *pipeline.OutputWriteError
		if errors.As(err, &writeErr) {
			log.Fatal().Err(err).Str("uri", writeErr.URI).Msg("Output could not be written")
		}
		log.Fatal().Err(err).Msg("Extraction failed")
	}

	fmt.Printf("Wrote %s: %d revenue records, %d expense records, %d links (run %s)\n",
		*outputURI, len(state.RevenueRecords), len(state.ExpenseRecords), state.Links(), state.RunID)
}

func runAudit(log zerolog.Logger, settings config.Settings) {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	cfgPath, revenueURI, expenseURI, strict := inputFlags(fs, settings)
	expectations := fs.String("expectations", settings.AuditPath, "Tab-separated budget book totals")
	ledger := fs.String("ledger", "revenue", "Which totals to check: revenue or expense")
	fs.Parse(os.Args[2:])

	if *expectations == "" || *revenueURI == "" || *expenseURI == "" {
		log.Fatal().Msg("Usage: cli audit -expectations PATH -revenue PATH -expense PATH [-ledger revenue|expense]")
	}

	city, err := config.LoadCity(*cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load city configuration")
	}

	f, err := os.Open(*expectations)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open expectations")
	}
	defer f.Close()
	expected, err := audit.ReadExpectations(f)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read expectations")
	}

	ctx := logger.WithContext(context.Background(), log)
	store := storage.NewRouter()
	defer store.Close()

	state, err := pipeline.ExtractRecords(ctx, pipeline.Options{
		City:       city,
		RevenueURI: *revenueURI,
		ExpenseURI: *expenseURI,
		Policy:     extract.PolicyFor(*strict),
	}, pipeline.Deps{Storage: store})
	if err != nil {
		log.Fatal().Err(err).Msg("Extraction failed")
	}

	var (
		entries []audit.Entry
		kind    reference.AliasKind
	)
	switch *ledger {
	case "revenue":
		entries, kind = audit.RevenueEntries(state.RevenueRecords), reference.AliasFund
	case "expense":
		entries, kind = audit.ExpenseEntries(state.ExpenseRecords), reference.AliasAgency
	default:
		log.Fatal().Str("ledger", *ledger).Msg("Ledger must be revenue or expense")
	}

	summary := audit.Reconcile(expected, entries, func(name string) string {
		return state.Resolver.ResolveAlias(kind, name)
	})
	for _, m := range summary.Failed {
		log.Warn().
			Str("name", m.Expectation.Name).
			Int("line", m.Expectation.Line).
			Str("expected", m.Expectation.Total.StringFixed(2)).
			Str("found", m.Found.StringFixed(2)).
			Str("via", string(m.Via)).
			Msg("Audit mismatch")
	}

	// Mismatches are reported, never fatal.
	fmt.Print(audit.HumanSummary(summary))
}

func runHistory(log zerolog.Logger, settings config.Settings) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	project := fs.String("bq-project", settings.BQProject, "GCP project of the run ledger")
	dataset := fs.String("bq-dataset", settings.BQDataset, "BigQuery dataset of the run ledger")
	limit := fs.Int("limit", 20, "Number of runs to show")
	fs.Parse(os.Args[2:])

	if *project == "" {
		log.Fatal().Msg("Error: -bq-project (or BUDGET_BQ_PROJECT) is required")
	}

	ctx := logger.WithContext(context.Background(), log)

	repo, err := infraBQ.NewBigQueryRunRepository(ctx, infraBQ.Dataset{Project: *project, Name: *dataset})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create run repository")
	}
	defer repo.Close()

	runs, err := repo.ListRuns(ctx, *limit)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list runs")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tCITY\tSTARTED\tSTATUS\tPOLICY\tREVENUE\tEXPENSE\tLINKS\tOUTPUT")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.RunID, r.City, r.StartedTS.Format(time.RFC3339), r.State(), r.Policy,
			nullCount(r.RevenueRecords.Valid, r.RevenueRecords.Int64),
			nullCount(r.ExpenseRecords.Valid, r.ExpenseRecords.Int64),
			nullCount(r.Links.Valid, r.Links.Int64),
			r.OutputURI)
	}
	w.Flush()

	for _, r := range runs {
		if msg, ok := r.Failure(); ok {
			fmt.Printf("\n%s failed: %s\n", r.RunID, msg)
		}
	}
}

func nullCount(valid bool, n int64) string {
	if !valid {
		return "-"
	}
	return fmt.Sprint(n)
}

package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/dvloznov/budget-flow/internal/grid"
	"github.com/dvloznov/budget-flow/internal/logger"
	"github.com/dvloznov/budget-flow/internal/reference"
	"github.com/dvloznov/budget-flow/internal/scanner"
)

// programEntry is what the program sheet says about one coded department
// description.
type programEntry struct {
	Program     string
	Department  string
	AccountCode string
}

// department is the resolved identity of one department group of the amount
// sheet.
type department struct {
	Name        string
	Program     string
	Division    string
	AccountCode string
	err         error
}

// ExpenseExtractor turns the operating and capital workbook into
// ExpenseRecords.
type ExpenseExtractor struct {
	resolver *reference.Resolver
	layout   ExpenseLayout
	policy   Policy
}

// NewExpenseExtractor validates the layout and returns an extractor.
func NewExpenseExtractor(resolver *reference.Resolver, layout ExpenseLayout, policy Policy) (*ExpenseExtractor, error) {
	if resolver == nil {
		return nil, fmt.Errorf("NewExpenseExtractor: resolver is nil")
	}
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("NewExpenseExtractor: %w", err)
	}
	return &ExpenseExtractor{resolver: resolver, layout: layout, policy: policy}, nil
}

// Extract reads the program table from programs and the account-by-fund
// amount table from amounts. Every non-zero amount becomes a record;
// negative amounts keep their sign.
func (e *ExpenseExtractor) Extract(ctx context.Context, amounts, programs grid.Sheet) ([]ExpenseRecord, Stats, error) {
	log := logger.FromContext(ctx).With().Str("sheet", amounts.Name()).Logger()
	var stats Stats

	table := e.loadPrograms(ctx, programs, &stats)
	log.Debug().Int("descriptions", len(table)).Msg("Loaded programs")

	funds, err := FundCodes(amounts, e.layout.FundHeaderRow, e.layout.FundColumns)
	if err != nil {
		return nil, stats, fmt.Errorf("ExpenseExtractor.Extract: %w", err)
	}

	result := scanner.Scan(amounts, scanner.Layout{
		First:          e.layout.First,
		Last:           e.layout.Last,
		Marker:         e.layout.DescriptionColumn,
		Values:         e.layout.FundColumns,
		Attrs:          []string{e.layout.ClassColumn},
		Require:        e.layout.ClassColumn,
		MarkerRowsEmit: true,
	})
	for _, anomaly := range result.Anomalies {
		log.Warn().Err(anomaly).Msg("Expense row outside any department")
	}
	stats.Anomalies += len(result.Anomalies)

	departments := make(map[scanner.Group]department)
	var records []ExpenseRecord
	for _, cell := range result.Records {
		stats.Cells++
		ref := cell.Ref()

		amount, ok := cell.Value.Decimal()
		if !ok {
			log.Warn().Str("cell", ref).Str("value", cell.Value.String()).Msg("Ignoring non-numeric expense amount")
			stats.NonNumeric++
			continue
		}
		if amount.IsZero() {
			stats.Dropped++
			continue
		}

		dept, seen := departments[cell.Group]
		if !seen {
			dept = e.department(ctx, table, cell.Group, &stats)
			departments[cell.Group] = dept
		}
		if dept.err != nil {
			err := fmt.Errorf("ExpenseExtractor.Extract: cell %s: %w", ref, dept.err)
			if err = e.policy.apply(ctx, err, ref, &stats); err != nil {
				return nil, stats, err
			}
			continue
		}

		record, err := e.resolve(funds[cell.Column], cell.Attr(e.layout.ClassColumn))
		if err != nil {
			err = fmt.Errorf("ExpenseExtractor.Extract: cell %s: %w", ref, err)
			if err = e.policy.apply(ctx, err, ref, &stats); err != nil {
				return nil, stats, err
			}
			continue
		}
		record.Department = dept.Name
		record.Program = dept.Program
		record.Division = dept.Division
		record.AccountCode = dept.AccountCode
		record.Amount = amount
		record.Cell = ref

		log.Debug().
			Str("cell", ref).
			Str("department", dept.Name).
			Int("fund_code", record.FundCode).
			Str("amount", amount.String()).
			Msg("Expense amount")
		records = append(records, record)
	}

	stats.Emitted = len(records)
	log.Info().
		Int("records", stats.Emitted).
		Int("dropped", stats.Dropped).
		Int("skipped", stats.Skipped).
		Int("unresolved_departments", stats.Unresolved).
		Msg("Extracted expenses")
	return records, stats, nil
}

// loadPrograms scans the program sheet into a coded description table. A row
// carrying a coded description is data even when the program cell is also
// filled in.
func (e *ExpenseExtractor) loadPrograms(ctx context.Context, sheet grid.Sheet, stats *Stats) map[string]programEntry {
	log := logger.FromContext(ctx).With().Str("sheet", sheet.Name()).Logger()

	result := scanner.Scan(sheet, scanner.Layout{
		First:     e.layout.ProgramFirst,
		Last:      e.layout.ProgramLast,
		Marker:    e.layout.ProgramColumn,
		Values:    []string{e.layout.CodedColumn},
		Attrs:     []string{e.layout.PrettyColumn},
		DataFirst: true,
	})
	for _, anomaly := range result.Anomalies {
		log.Warn().Err(anomaly).Msg("Program description outside any program")
	}
	stats.Anomalies += len(result.Anomalies)

	table := make(map[string]programEntry, len(result.Records))
	for _, r := range result.Records {
		coded := strings.TrimSpace(r.Value.String())
		table[coded] = programEntry{
			Program:     r.Group.Code,
			Department:  strings.TrimSpace(r.Attr(e.layout.PrettyColumn).String()),
			AccountCode: accountCode(coded),
		}
	}
	return table
}

// department resolves the department group a run of amount rows belongs to.
// An agency with no division is flagged with the unknown sentinel and never
// fails. Rows above the first description keep the placeholder group.
func (e *ExpenseExtractor) department(ctx context.Context, table map[string]programEntry, group scanner.Group, stats *Stats) department {
	log := logger.FromContext(ctx)
	if group.IsPlaceholder() {
		stats.Unresolved++
		log.Warn().Str("department", group.Code).Msg("Expense rows before any department description")
		return department{Name: group.Code, Program: group.Code, Division: reference.UnknownDivision}
	}

	entry, ok := table[group.Code]
	if !ok {
		return department{err: &reference.NotFoundError{Kind: reference.KindProgram, Key: group.Code}}
	}

	name := e.resolver.ResolveAlias(reference.AliasAgency, entry.Department)
	division, ok := e.resolver.Division(name)
	if !ok {
		stats.Unresolved++
		log.Warn().
			Str("department", name).
			Int("row", group.Row).
			Msg("Department has no division mapping")
	}

	return department{Name: name, Program: entry.Program, Division: division, AccountCode: entry.AccountCode}
}

// resolve fills in the fund and character class of one amount cell.
func (e *ExpenseExtractor) resolve(fundCode int, class grid.Value) (ExpenseRecord, error) {
	record := ExpenseRecord{FundCode: fundCode, Kind: e.resolver.FundKind(fundCode)}

	if code, err := class.Int(); err == nil {
		record.ClassCode = code
		record.CharacterClass = e.resolver.CharacterClassLabel(code)
	} else {
		record.CharacterClass = reference.Unknown
	}

	desc, err := e.resolver.FundDescription(fundCode)
	if err != nil {
		return record, err
	}
	record.FundDescription = desc

	category, err := e.resolver.FundCategory(fundCode)
	if err != nil {
		return record, err
	}
	record.FundCategory = category

	return record, nil
}

// accountCode is the two-character prefix of a coded description.
func accountCode(coded string) string {
	if len(coded) < 2 {
		return coded
	}
	return coded[:2]
}

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

// revenueCategory is the budget-book label of one cross-reference code.
type revenueCategory struct {
	Category    string
	SubCategory string
}

// RevenueExtractor turns the revenue workbook into RevenueRecords.
type RevenueExtractor struct {
	resolver *reference.Resolver
	layout   RevenueLayout
	policy   Policy
}

// NewRevenueExtractor validates the layout and returns an extractor.
func NewRevenueExtractor(resolver *reference.Resolver, layout RevenueLayout, policy Policy) (*RevenueExtractor, error) {
	if resolver == nil {
		return nil, fmt.Errorf("NewRevenueExtractor: resolver is nil")
	}
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("NewRevenueExtractor: %w", err)
	}
	return &RevenueExtractor{resolver: resolver, layout: layout, policy: policy}, nil
}

// Extract reads the category table from categories and the fund-by-source
// amount table from amounts. Amounts that are zero or negative are dropped.
func (e *RevenueExtractor) Extract(ctx context.Context, amounts, categories grid.Sheet) ([]RevenueRecord, Stats, error) {
	log := logger.FromContext(ctx).With().Str("sheet", amounts.Name()).Logger()
	var stats Stats

	table := e.loadCategories(ctx, categories, &stats)
	log.Debug().Int("cross_refs", len(table)).Msg("Loaded revenue categories")

	funds, err := FundCodes(amounts, e.layout.FundHeaderRow, e.layout.FundColumns)
	if err != nil {
		return nil, stats, fmt.Errorf("RevenueExtractor.Extract: %w", err)
	}

	result := scanner.Scan(amounts, scanner.Layout{
		First:  e.layout.First,
		Last:   e.layout.Last,
		Values: e.layout.FundColumns,
		Attrs:  []string{e.layout.CrossRefColumn},
	})

	var records []RevenueRecord
	for _, cell := range result.Records {
		stats.Cells++
		ref := cell.Ref()

		amount, ok := cell.Value.Decimal()
		if !ok {
			log.Warn().Str("cell", ref).Str("value", cell.Value.String()).Msg("Ignoring non-numeric revenue amount")
			stats.NonNumeric++
			continue
		}
		if !amount.IsPositive() {
			stats.Dropped++
			continue
		}

		crossRef := strings.TrimSpace(cell.Attr(e.layout.CrossRefColumn).String())
		record, err := e.resolve(table, crossRef, funds[cell.Column])
		if err != nil {
			err = fmt.Errorf("RevenueExtractor.Extract: cell %s: %w", ref, err)
			if err = e.policy.apply(ctx, err, ref, &stats); err != nil {
				return nil, stats, err
			}
			continue
		}
		record.Amount = amount
		record.Cell = ref

		log.Debug().
			Str("cell", ref).
			Int("fund_code", record.FundCode).
			Str("cross_ref", crossRef).
			Str("amount", amount.String()).
			Msg("Revenue amount")
		records = append(records, record)
	}

	stats.Emitted = len(records)
	log.Info().
		Int("records", stats.Emitted).
		Int("dropped", stats.Dropped).
		Int("skipped", stats.Skipped).
		Msg("Extracted revenue")
	return records, stats, nil
}

// loadCategories scans the category sheet into a cross-reference table.
func (e *RevenueExtractor) loadCategories(ctx context.Context, sheet grid.Sheet, stats *Stats) map[string]revenueCategory {
	log := logger.FromContext(ctx).With().Str("sheet", sheet.Name()).Logger()

	result := scanner.Scan(sheet, scanner.Layout{
		First:  e.layout.CategoryFirst,
		Last:   e.layout.CategoryLast,
		Marker: e.layout.CategoryColumn,
		Values: []string{e.layout.CategoryCrossRefColumn},
		Attrs:  []string{e.layout.DetailColumn},
	})
	for _, anomaly := range result.Anomalies {
		log.Warn().Err(anomaly).Msg("Revenue category row outside any category")
	}
	stats.Anomalies += len(result.Anomalies)

	table := make(map[string]revenueCategory, len(result.Records))
	for _, r := range result.Records {
		crossRef := strings.TrimSpace(r.Value.String())
		table[crossRef] = revenueCategory{
			Category:    r.Group.Code,
			SubCategory: strings.TrimSpace(r.Attr(e.layout.DetailColumn).String()),
		}
	}
	return table
}

// resolve builds the record for one cross-reference and fund. Overrides
// take precedence over the category table.
func (e *RevenueExtractor) resolve(table map[string]revenueCategory, crossRef string, fundCode int) (RevenueRecord, error) {
	record := RevenueRecord{FundCode: fundCode, CrossRef: crossRef}

	category, found := table[crossRef]
	if o, ok := e.resolver.RevenueOverride(crossRef); ok {
		if o.Synthetic() {
			category = revenueCategory{Category: o.Category, SubCategory: o.Detail}
		} else {
			category.Category = o.Category
		}
		found = true
	}
	if !found {
		return record, &reference.NotFoundError{Kind: reference.KindRevenueCategory, Key: crossRef}
	}
	record.Category = category.Category
	record.SubCategory = category.SubCategory

	desc, err := e.resolver.FundDescription(fundCode)
	if err != nil {
		return record, err
	}
	record.FundDescription = desc

	fundCategory, err := e.resolver.FundCategory(fundCode)
	if err != nil {
		return record, err
	}
	record.FundCategory = fundCategory

	return record, nil
}

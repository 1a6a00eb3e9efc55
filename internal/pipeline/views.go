package pipeline

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dvloznov/budget-flow/internal/extract"
	"github.com/dvloznov/budget-flow/internal/flowgraph"
)

// Views names the graphs of the output document in order.
var Views = []string{"high-level", "detail"}

// revenueCode matches the line code in front of a revenue detail, e.g.
// "CC - Franchise Fees" or "A  Sales Tax". Ordinary words such as
// "Ad Valorem" are left alone.
var revenueCode = regexp.MustCompile(`^(?:[A-Z]{1,2}[a-z]?\s*-|[A-Z]{1,2}\s)\s*(.*)$`)

// revenueSource strips the line code from a revenue detail.
func revenueSource(detail string) string {
	if m := revenueCode.FindStringSubmatch(detail); m != nil && strings.TrimSpace(m[1]) != "" {
		return m[1]
	}
	return detail
}

// spendingNode prefixes a spending node name with a space so a department
// or division never shares a node with a fund category of the same name.
func spendingNode(name string) string {
	return " " + name
}

type view struct {
	revenue flowgraph.Context[extract.RevenueRecord]
	expense flowgraph.Context[extract.ExpenseRecord]
}

func carryoverRoute(label string) *flowgraph.Route[extract.ExpenseRecord] {
	if label == "" {
		return nil
	}
	return &flowgraph.Route[extract.ExpenseRecord]{
		Source: flowgraph.Literal[extract.ExpenseRecord](label),
		Target: flowgraph.Field[extract.ExpenseRecord]("fundCategory"),
	}
}

// highLevelView flows revenue categories into fund categories and fund
// categories into divisions.
func highLevelView(carryover string) view {
	return view{
		revenue: flowgraph.Context[extract.RevenueRecord]{
			Source: flowgraph.Field[extract.RevenueRecord]("category"),
			Target: flowgraph.Field[extract.RevenueRecord]("fundCategory"),
			Value:  flowgraph.AmountField[extract.RevenueRecord]("amount"),
		},
		expense: flowgraph.Context[extract.ExpenseRecord]{
			Source: flowgraph.Field[extract.ExpenseRecord]("fundCategory"),
			Target: flowgraph.Derive(func(r extract.ExpenseRecord) string {
				return spendingNode(r.Division)
			}),
			Value:     flowgraph.AmountField[extract.ExpenseRecord]("amount"),
			Carryover: carryoverRoute(carryover),
		},
	}
}

// detailView flows revenue line items into fund categories and fund
// categories into departments.
func detailView(carryover string) view {
	return view{
		revenue: flowgraph.Context[extract.RevenueRecord]{
			Source: flowgraph.Derive(func(r extract.RevenueRecord) string {
				return revenueSource(r.SubCategory)
			}),
			Target: flowgraph.Field[extract.RevenueRecord]("fundCategory"),
			Value:  flowgraph.AmountField[extract.RevenueRecord]("amount"),
		},
		expense: flowgraph.Context[extract.ExpenseRecord]{
			Source: flowgraph.Field[extract.ExpenseRecord]("fundCategory"),
			Target: flowgraph.Derive(func(r extract.ExpenseRecord) string {
				return spendingNode(r.Department)
			}),
			Value:     flowgraph.AmountField[extract.ExpenseRecord]("amount"),
			Carryover: carryoverRoute(carryover),
		},
	}
}

// BuildDocument builds the high-level and detail graphs from the same
// records.
func BuildDocument(revenue []extract.RevenueRecord, expense []extract.ExpenseRecord, carryover string) (flowgraph.Document, error) {
	views := []view{highLevelView(carryover), detailView(carryover)}

	doc := make(flowgraph.Document, 0, len(views))
	for i, v := range views {
		b := flowgraph.NewBuilder()
		if err := flowgraph.Add(b, revenue, v.revenue); err != nil {
			return nil, fmt.Errorf("BuildDocument: %s revenue: %w", Views[i], err)
		}
		if err := flowgraph.Add(b, expense, v.expense); err != nil {
			return nil, fmt.Errorf("BuildDocument: %s expense: %w", Views[i], err)
		}
		doc = append(doc, b.Graph())
	}
	return doc, nil
}

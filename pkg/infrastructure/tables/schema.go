package tables

import (
	"strings"

	apperrors "github.com/vsinha/fgplan/pkg/errors"
)

// Canonical column names
const (
	ColRMCode          = "RM Code"
	ColFGCode          = "FG Code"
	ColQuantity        = "Quantity"
	ColArrivalDate     = "Arrival Date"
	ColOldRMCode       = "Old RM Code"
	ColNewRMCode       = "New RM Code"
	ColComponentRMCode = "Component RM Code"
	ColPercentage      = "Percentage"
)

// Table is a raw sheet: one header row and the data rows below it.
type Table struct {
	Header []string
	Rows   [][]string
}

// Cell returns row[idx] trimmed, or "" for short rows.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

type columnRule struct {
	name  string
	match func(lower string) bool
}

// Schema describes how to find the canonical columns of one kind of sheet.
type Schema struct {
	Name    string
	columns []columnRule
}

// Columns returns the canonical names in schema order
func (s Schema) Columns() []string {
	names := make([]string, 0, len(s.columns))
	for _, c := range s.columns {
		names = append(names, c.name)
	}
	return names
}

// Detect maps every canonical column to a header index. Headers are matched
// case-insensitively after trimming and the first matching header wins.
// A header may satisfy more than one column.
func (s Schema) Detect(header []string) (map[string]int, error) {
	lowered := make([]string, len(header))
	for i, h := range header {
		lowered[i] = strings.ToLower(strings.TrimSpace(h))
	}

	mapping := make(map[string]int, len(s.columns))
	var missing []string
	for _, col := range s.columns {
		idx := -1
		for i, h := range lowered {
			if col.match(h) {
				idx = i
				break
			}
		}
		if idx < 0 {
			missing = append(missing, col.name)
			continue
		}
		mapping[col.name] = idx
	}

	if len(missing) > 0 {
		return nil, apperrors.MissingColumns(s.Name, missing)
	}
	return mapping, nil
}

func has(h string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(h, sub) {
			return true
		}
	}
	return false
}

var (
	rmCodeRule = columnRule{ColRMCode, func(h string) bool {
		return has(h, "rm") && has(h, "code", "id")
	}}
	stockQuantityRule = columnRule{ColQuantity, func(h string) bool {
		return has(h, "quantity", "qty", "amount")
	}}
)

// StockSchema matches RM stock sheets
var StockSchema = Schema{
	Name:    "RM Stock",
	columns: []columnRule{rmCodeRule, stockQuantityRule},
}

// PurchaseOrderSchema matches RM purchase order sheets
var PurchaseOrderSchema = Schema{
	Name: "RM Purchase Orders",
	columns: []columnRule{
		rmCodeRule,
		stockQuantityRule,
		{ColArrivalDate, func(h string) bool { return has(h, "arrival", "date", "delivery") }},
	},
}

// FormulaSchema matches FG formula sheets
var FormulaSchema = Schema{
	Name: "FG Formulas",
	columns: []columnRule{
		{ColFGCode, func(h string) bool { return has(h, "fg") && has(h, "code", "id") }},
		rmCodeRule,
		{ColQuantity, func(h string) bool { return has(h, "quantity", "qty") }},
	},
}

// ReplacementSchema matches RM replacement rule sheets
var ReplacementSchema = Schema{
	Name: "RM Replacement Rules",
	columns: []columnRule{
		{ColOldRMCode, func(h string) bool { return has(h, "old", "from") && has(h, "rm") }},
		{ColNewRMCode, func(h string) bool { return has(h, "new", "to") && has(h, "rm") }},
	},
}

// DilutionSchema matches RM dilution rule sheets
var DilutionSchema = Schema{
	Name: "RM Dilution Rules",
	columns: []columnRule{
		{ColRMCode, func(h string) bool {
			return has(h, "rm") && has(h, "code", "id") && !has(h, "component")
		}},
		{ColComponentRMCode, func(h string) bool { return has(h, "component") && has(h, "rm") }},
		{ColPercentage, func(h string) bool { return has(h, "percentage", "percent", "%") }},
	},
}

package services

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/vsinha/fgplan/pkg/domain/entities"
)

// Dilution arithmetic runs at four decimal places. A component share that
// would round to zero is floored at one ten-thousandth of a kilogram so the
// component still shows up as a requirement.
const dilutionPlaces = 4

var (
	hundred          = decimal.NewFromInt(100)
	dilutionFloor    = decimal.New(1, -dilutionPlaces)
	dilutionZeroBand = decimal.New(5, -(dilutionPlaces + 1))
	percentTolerance = decimal.RequireFromString("0.01")
)

// Diluter expands diluted raw materials into their component raw materials
type Diluter struct {
	components map[entities.Code][]entities.DilutionRule
}

// NewDiluter groups rules by the diluted RM code, keeping rule order.
func NewDiluter(rules []entities.DilutionRule) *Diluter {
	components := make(map[entities.Code][]entities.DilutionRule)
	for _, rule := range rules {
		components[rule.RMCode] = append(components[rule.RMCode], rule)
	}
	return &Diluter{components: components}
}

// ComponentQuantity returns the share of qty carried by a component at pct percent.
func ComponentQuantity(qty, pct decimal.Decimal) decimal.Decimal {
	share := qty.Mul(pct).Div(hundred)
	if share.Abs().LessThan(dilutionZeroBand) {
		return dilutionFloor
	}
	return share.Round(dilutionPlaces)
}

// Apply replaces every row whose RM has dilution rules with one row per
// component, then sums rows sharing (FG, RM). Rows without rules pass through.
// With no rules the input is returned as an unmodified copy.
func (d *Diluter) Apply(formulas entities.FormulaTable) entities.FormulaTable {
	if len(d.components) == 0 {
		return formulas.Clone()
	}

	expanded := make(entities.FormulaTable, 0, len(formulas))
	for _, e := range formulas {
		rules, ok := d.components[e.RMCode]
		if !ok {
			expanded = append(expanded, e)
			continue
		}
		for _, rule := range rules {
			expanded = append(expanded, entities.FormulaEntry{
				FGCode:   e.FGCode,
				RMCode:   rule.ComponentRMCode,
				Quantity: ComponentQuantity(e.Quantity, rule.Percentage),
			})
		}
	}
	return expanded.SumDuplicates()
}

// PercentageDeviation reports a diluted RM whose component shares do not add up to 100.
type PercentageDeviation struct {
	RMCode entities.Code
	Total  decimal.Decimal
}

// CheckDilutionPercentages returns every diluted RM whose percentages sum
// to more than 0.01 away from 100, sorted by RM code.
func CheckDilutionPercentages(rules []entities.DilutionRule) []PercentageDeviation {
	totals := make(map[entities.Code]decimal.Decimal)
	for _, rule := range rules {
		totals[rule.RMCode] = totals[rule.RMCode].Add(rule.Percentage)
	}

	var deviations []PercentageDeviation
	for rm, total := range totals {
		if total.Sub(hundred).Abs().GreaterThan(percentTolerance) {
			deviations = append(deviations, PercentageDeviation{RMCode: rm, Total: total})
		}
	}
	sort.Slice(deviations, func(i, j int) bool { return deviations[i].RMCode < deviations[j].RMCode })
	return deviations
}

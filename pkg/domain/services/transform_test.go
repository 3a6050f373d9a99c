package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/fgplan/pkg/domain/entities"
)

func row(fg, rm entities.Code, qty string) entities.FormulaEntry {
	return entities.FormulaEntry{FGCode: fg, RMCode: rm, Quantity: decimal.RequireFromString(qty)}
}

func dilution(rm, component entities.Code, pct string) entities.DilutionRule {
	return entities.DilutionRule{RMCode: rm, ComponentRMCode: component, Percentage: decimal.RequireFromString(pct)}
}

func TestRMReplacer_MergesCollapsedRows(t *testing.T) {
	formulas := entities.FormulaTable{row("FG1", "RM_A", "10"), row("FG1", "RM_B", "5")}
	replacer := NewRMReplacer([]entities.ReplacementRule{{OldRMCode: "RM_A", NewRMCode: "RM_B"}})

	out := replacer.Apply(formulas)

	require.Len(t, out, 1)
	assert.Equal(t, entities.Code("FG1"), out[0].FGCode)
	assert.Equal(t, entities.Code("RM_B"), out[0].RMCode)
	assert.True(t, out[0].Quantity.Equal(decimal.NewFromInt(15)), "got %s", out[0].Quantity)
}

func TestRMReplacer_NotTransitiveAndLastRuleWins(t *testing.T) {
	replacer := NewRMReplacer([]entities.ReplacementRule{
		{OldRMCode: "A", NewRMCode: "B"},
		{OldRMCode: "B", NewRMCode: "C"},
		{OldRMCode: "X", NewRMCode: "Y"},
		{OldRMCode: "X", NewRMCode: "Z"},
		{OldRMCode: "", NewRMCode: "Q"},
	})

	assert.Equal(t, entities.Code("B"), replacer.Resolve("A"))
	assert.Equal(t, entities.Code("Z"), replacer.Resolve("X"))
	assert.Equal(t, entities.Code("K"), replacer.Resolve("K"))
	assert.Equal(t, 3, replacer.RuleCount())
}

func TestRMReplacer_NoRulesReturnsCopy(t *testing.T) {
	formulas := entities.FormulaTable{row("FG2", "RM1", "1"), row("FG1", "RM1", "1")}
	out := NewRMReplacer(nil).Apply(formulas)

	assert.Equal(t, formulas, out)
	out[0].Quantity = decimal.Zero
	assert.False(t, formulas[0].Quantity.IsZero())
}

func TestComponentQuantity(t *testing.T) {
	testCases := []struct {
		name     string
		qty      string
		pct      string
		expected string
	}{
		{"tiny share floored", "0.001", "1", "0.0001"},
		{"zero quantity floored", "0", "50", "0.0001"},
		{"rounded to four places", "10", "33.33333", "3.3333"},
		{"half rounds away from zero", "0.0003", "50", "0.0002"},
		{"plain share", "20", "25", "5"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComponentQuantity(decimal.RequireFromString(tc.qty), decimal.RequireFromString(tc.pct))
			assert.True(t, got.Equal(decimal.RequireFromString(tc.expected)), "expected %s, got %s", tc.expected, got)
		})
	}
}

func TestDiluter_Apply(t *testing.T) {
	formulas := entities.FormulaTable{
		row("FG1", "DIL1", "10"),
		row("FG1", "WATER", "2"),
		row("FG2", "PLAIN", "3"),
	}
	diluter := NewDiluter([]entities.DilutionRule{
		dilution("DIL1", "ACTIVE", "40"),
		dilution("DIL1", "WATER", "60"),
	})

	out := diluter.Apply(formulas)

	require.Len(t, out, 3)
	assert.Equal(t, entities.Code("ACTIVE"), out[0].RMCode)
	assert.True(t, out[0].Quantity.Equal(decimal.NewFromInt(4)))
	assert.Equal(t, entities.Code("WATER"), out[1].RMCode)
	assert.True(t, out[1].Quantity.Equal(decimal.NewFromInt(8)), "component merges with existing row, got %s", out[1].Quantity)
	assert.Equal(t, entities.Code("FG2"), out[2].FGCode)
}

func TestDiluter_FloorAppliesPerComponent(t *testing.T) {
	out := NewDiluter([]entities.DilutionRule{dilution("RM1", "COMP", "1")}).
		Apply(entities.FormulaTable{row("FG1", "RM1", "0.001")})

	require.Len(t, out, 1)
	assert.Equal(t, "0.0001", out[0].Quantity.StringFixed(4))
}

func TestCheckDilutionPercentages(t *testing.T) {
	rules := []entities.DilutionRule{
		dilution("OK", "A", "40"),
		dilution("OK", "B", "60.005"),
		dilution("LOW", "A", "50"),
		dilution("HIGH", "A", "100.02"),
	}

	deviations := CheckDilutionPercentages(rules)

	require.Len(t, deviations, 2)
	assert.Equal(t, entities.Code("HIGH"), deviations[0].RMCode)
	assert.Equal(t, entities.Code("LOW"), deviations[1].RMCode)
	assert.True(t, deviations[1].Total.Equal(decimal.NewFromInt(50)))
	assert.Empty(t, CheckDilutionPercentages(nil))
}

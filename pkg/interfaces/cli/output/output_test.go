package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/fgplan/pkg/application/dto"
	"github.com/vsinha/fgplan/pkg/application/services/aggregation"
	"github.com/vsinha/fgplan/pkg/application/services/allocation"
	"github.com/vsinha/fgplan/pkg/domain/entities"
)

func testPlan() *dto.PlanResult {
	prodDate := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	formulas := entities.FormulaTable{
		{FGCode: "FG100000", RMCode: "RM100000", Quantity: decimal.NewFromInt(10)},
		{FGCode: "FG200000", RMCode: "RM200000", Quantity: decimal.NewFromInt(10)},
	}
	stock := entities.StockSnapshot{"RM100000": decimal.NewFromInt(100)}
	order := entities.FIFOOrder{"FG100000", "FG200000"}
	orders := []entities.PurchaseOrderLine{
		{RMCode: "RM200000", Quantity: decimal.NewFromInt(40), ArrivalDate: prodDate.AddDate(0, 0, 3)},
	}

	run := allocation.Allocate(order, formulas, stock, entities.ExpectedCapacities{}, 3)
	return &dto.PlanResult{
		RunID:       "run-1",
		GeneratedAt: time.Date(2024, 2, 28, 8, 0, 0, 0, time.UTC),
		Order:       order,
		Settings:    dto.PlanSettings{DecimalPlaces: 3, ProductionDate: prodDate, FormulaSource: entities.SourceOriginalFormulas},
		Allocation:  run,
		Summary:     aggregation.NewAggregator(3).Summarize(run, formulas, orders, prodDate),
	}
}

func TestGenerate_Text(t *testing.T) {
	var buf bytes.Buffer
	err := Generate(testPlan(), Config{Format: "text", Stdout: &buf})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Production Plan Summary")
	assert.Contains(t, out, "FG100000")
	assert.Contains(t, out, "✅ Ready")
	assert.Contains(t, out, "RM200000: Required 10.000 Kg per batch, Available 0.0000 Kg")
	assert.Contains(t, out, "Incoming")
}

func TestGenerate_TextToFile(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	require.NoError(t, Generate(testPlan(), Config{Format: "text", OutputDir: dir, Stdout: &buf}))

	data, err := os.ReadFile(filepath.Join(dir, "production_plan.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "FG200000")
}

func TestGenerate_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(testPlan(), Config{Format: "json", Stdout: &buf}))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded["run_id"])
	assert.Len(t, decoded["production"], 2)
}

func TestGenerate_CSV(t *testing.T) {
	err := Generate(testPlan(), Config{Format: "csv"})
	require.Error(t, err, "csv needs an output directory")

	dir := t.TempDir()
	require.NoError(t, Generate(testPlan(), Config{Format: "csv", OutputDir: dir}))

	data, err := os.ReadFile(filepath.Join(dir, "production_results.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "FG,Expected,Max,Actual,Status,Missing,Batches", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "FG100000,Auto,250.0 Kg,250.0 Kg,"))

	for _, name := range []string{"rm_analysis.csv", "shortage_details.csv", "purchase_orders.csv"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestGenerate_Reports(t *testing.T) {
	dir := t.TempDir()
	for _, format := range []string{"xlsx", "xlsx-basic", "xlsx-summary", "pdf", "html"} {
		t.Run(format, func(t *testing.T) {
			require.NoError(t, Generate(testPlan(), Config{Format: format, OutputDir: dir}))
		})
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
}

func TestGenerate_UnknownFormat(t *testing.T) {
	err := Generate(testPlan(), Config{Format: "yaml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vsinha/fgplan/pkg/application/dto"
	"github.com/vsinha/fgplan/pkg/interfaces/report"
)

// Config holds configuration for output generation
type Config struct {
	Format       string
	OutputDir    string
	Verbose      bool
	PlanningTime time.Duration
	InputFiles   map[string]string

	// Stdout receives text output and progress lines; os.Stdout when nil.
	Stdout io.Writer
}

func (c Config) stdout() io.Writer {
	if c.Stdout == nil {
		return os.Stdout
	}
	return c.Stdout
}

// Formats lists every accepted -format value
func Formats() []string {
	return []string{
		"text", "json", "csv",
		string(report.FormatDetailedExcel),
		string(report.FormatBasicExcel),
		string(report.FormatSummaryExcel),
		string(report.FormatPDF),
		string(report.FormatHTML),
	}
}

// Generate creates output in the specified format
func Generate(result *dto.PlanResult, config Config) error {
	view := report.NewView(result)

	switch config.Format {
	case "text", "":
		return generateTextOutput(view, config)
	case "json":
		return generateJSONOutput(view, config)
	case "csv":
		return generateCSVOutput(view, config)
	}

	format, err := report.ParseFormat(config.Format)
	if err != nil {
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
	return generateReport(view, format, result.GeneratedAt, config)
}

// generateTextOutput creates human-readable text output
func generateTextOutput(v *report.View, config Config) error {
	w := config.stdout()

	fmt.Fprintf(w, "📊 Production Plan Summary\n")
	fmt.Fprintf(w, "==========================\n\n")

	for _, m := range v.Metrics {
		fmt.Fprintf(w, "%-26s %s\n", m.Label+":", m.Value)
	}
	if config.PlanningTime > 0 {
		fmt.Fprintf(w, "%-26s %v\n", "Planning Time:", config.PlanningTime)
	}
	fmt.Fprintln(w)

	if len(v.Production) > 0 {
		fmt.Fprintf(w, "🏭 Production Capability:\n")
		fmt.Fprintf(w, "%-10s %-14s %-14s %-14s %-12s %-10s %-8s\n",
			"FG Code", "Expected", "Max", "Actual", "Status", "Missing", "Batches")
		fmt.Fprintf(w, "%-10s %-14s %-14s %-14s %-12s %-10s %-8s\n",
			"----------", "--------------", "--------------", "--------------", "------------", "----------", "--------")

		for _, p := range v.Production {
			fmt.Fprintf(w, "%-10s %-14s %-14s %-14s %-12s %-10s %-8d\n",
				p.FGCode, p.Expected, p.Max, p.Actual, p.Status, p.Missing, p.Batches)
		}
		fmt.Fprintln(w)
	}

	if len(v.Shortages) > 0 {
		fmt.Fprintf(w, "⚠️  Shortages:\n")
		for _, s := range v.Shortages {
			fmt.Fprintf(w, "  %s\n", s.FGCode)
			for _, d := range s.Details {
				fmt.Fprintf(w, "    • %s\n", d)
			}
		}
		fmt.Fprintln(w)
	}

	if len(v.PurchaseOrders) > 0 {
		fmt.Fprintf(w, "🚚 Purchase Orders:\n")
		fmt.Fprintf(w, "%-10s %-20s %-12s %-10s\n", "RM Code", "Quantity", "Arrival", "Status")
		fmt.Fprintf(w, "%-10s %-20s %-12s %-10s\n", "----------", "--------------------", "------------", "----------")
		for _, po := range v.PurchaseOrders {
			fmt.Fprintf(w, "%-10s %-20s %-12s %-10s\n", po.RMCode, po.Quantity, po.ArrivalDate, po.Status)
		}
		fmt.Fprintln(w)
	}

	for _, warning := range v.Warnings {
		fmt.Fprintf(w, "⚠️  %s\n", warning)
	}

	if config.OutputDir != "" {
		if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		filename := filepath.Join(config.OutputDir, "production_plan.txt")
		var sb strings.Builder
		text := config
		text.OutputDir = ""
		text.Stdout = &sb
		if err := generateTextOutput(v, text); err != nil {
			return err
		}
		if err := os.WriteFile(filename, []byte(sb.String()), 0644); err != nil {
			return fmt.Errorf("failed to write text file: %w", err)
		}
		if config.Verbose {
			fmt.Fprintf(w, "💾 Results saved to: %s\n", filename)
		}
	}

	return nil
}

// generateJSONOutput creates JSON output
func generateJSONOutput(v *report.View, config Config) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		fmt.Fprintln(config.stdout(), string(jsonData))
		return nil
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	filename := filepath.Join(config.OutputDir, "production_plan.json")
	if err := os.WriteFile(filename, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(config.stdout(), "💾 JSON results saved to: %s\n", filename)
	}
	return nil
}

// generateCSVOutput writes one CSV file per table
func generateCSVOutput(v *report.View, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for CSV format")
	}
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	files := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{"production_results.csv", []string{"FG", "Expected", "Max", "Actual", "Status", "Missing", "Batches"}, productionRecords(v)},
		{"rm_analysis.csv", []string{"FG Code", "RM Code", "Req per Batch (Kg)", "Batches", "Required (Kg)", "Available (Kg)", "Shortage (Kg)", "Status"}, rmAnalysisRecords(v)},
		{"shortage_details.csv", []string{"FG Code", "Shortage Details"}, shortageRecords(v)},
		{"purchase_orders.csv", []string{"RM Code", "Quantity", "Arrival Date", "Status"}, purchaseOrderRecords(v)},
	}

	for _, f := range files {
		filename := filepath.Join(config.OutputDir, f.name)
		if err := writeCSV(filename, f.header, f.rows); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.name, err)
		}
		if config.Verbose {
			fmt.Fprintf(config.stdout(), "💾 %s\n", filename)
		}
	}
	return nil
}

func generateReport(v *report.View, format report.Format, at time.Time, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for %s format", format)
	}
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if at.IsZero() {
		at = time.Now()
	}

	filename := filepath.Join(config.OutputDir, format.FileName(at))
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	if err := report.Render(file, format, v); err != nil {
		return err
	}
	if config.Verbose {
		fmt.Fprintf(config.stdout(), "💾 Report saved to: %s\n", filename)
	}
	return nil
}

func writeCSV(filename string, header []string, rows [][]string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return file.Sync()
}

func productionRecords(v *report.View) [][]string {
	rows := make([][]string, 0, len(v.Production))
	for _, p := range v.Production {
		rows = append(rows, []string{p.FGCode, p.Expected, p.Max, p.Actual, p.Status, p.Missing, fmt.Sprint(p.Batches)})
	}
	return rows
}

func rmAnalysisRecords(v *report.View) [][]string {
	rows := make([][]string, 0, len(v.RMAnalysis))
	for _, r := range v.RMAnalysis {
		rows = append(rows, []string{
			r.FGCode, r.RMCode, r.PerBatch.String(), fmt.Sprint(r.Batches),
			r.Required.String(), r.Available.String(), r.Shortage.String(), r.Status,
		})
	}
	return rows
}

func shortageRecords(v *report.View) [][]string {
	var rows [][]string
	for _, s := range v.Shortages {
		for _, d := range s.Details {
			rows = append(rows, []string{s.FGCode, d})
		}
	}
	return rows
}

func purchaseOrderRecords(v *report.View) [][]string {
	rows := make([][]string, 0, len(v.PurchaseOrders))
	for _, po := range v.PurchaseOrders {
		rows = append(rows, []string{po.RMCode, po.Quantity, po.ArrivalDate, po.Status})
	}
	return rows
}

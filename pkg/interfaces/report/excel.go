package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

var (
	productionHeader = []string{"FG", "Expected", "Max", "Actual", "Status", "Missing", "Batches"}
	rmAnalysisHeader = []string{
		"FG Code", "RM Code", "Req per Batch (Kg)", "Batches",
		"Required (Kg)", "Available (Kg)", "Shortage (Kg)", "Status",
	}
	shortageHeader = []string{"FG Code", "Shortage Details"}
	settingsHeader = []string{"Setting", "Value"}
	metricHeader   = []string{"Metric", "Value"}
)

// workbook writes one table per sheet with a bold header row.
type workbook struct {
	f      *excelize.File
	bold   int
	sheets int
}

func newWorkbook() (*workbook, error) {
	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 11},
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	return &workbook{f: f, bold: bold}, nil
}

func (w *workbook) sheet(name string, header []string, rows [][]any) error {
	if w.sheets == 0 {
		if err := w.f.SetSheetName("Sheet1", name); err != nil {
			return err
		}
	} else if _, err := w.f.NewSheet(name); err != nil {
		return err
	}
	w.sheets++

	head := make([]any, len(header))
	for i, h := range header {
		head[i] = h
	}
	if err := w.f.SetSheetRow(name, "A1", &head); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := w.f.SetCellStyle(name, "A1", last, w.bold); err != nil {
		return err
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := w.f.SetSheetRow(name, cell, &row); err != nil {
			return err
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	return w.f.SetColWidth(name, "A", lastCol, 20)
}

// render builds a workbook with fill and writes it to out.
func render(out io.Writer, fill func(w *workbook) error) error {
	w, err := newWorkbook()
	if err != nil {
		return err
	}
	defer w.f.Close()

	if err := fill(w); err != nil {
		return fmt.Errorf("failed to build workbook: %w", err)
	}
	w.f.SetActiveSheet(0)
	if err := w.f.Write(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func productionRows(v *View) [][]any {
	rows := make([][]any, 0, len(v.Production))
	for _, p := range v.Production {
		rows = append(rows, []any{p.FGCode, p.Expected, p.Max, p.Actual, p.Status, p.Missing, p.Batches})
	}
	return rows
}

func shortageRows(v *View) [][]any {
	var rows [][]any
	for _, s := range v.Shortages {
		for _, d := range s.Details {
			rows = append(rows, []any{s.FGCode, d})
		}
	}
	return rows
}

func settingRows(settings []Setting) [][]any {
	rows := make([][]any, 0, len(settings))
	for _, s := range settings {
		rows = append(rows, []any{s.Name, s.Value})
	}
	return rows
}

func metricRows(metrics []Metric) [][]any {
	rows := make([][]any, 0, len(metrics))
	for _, m := range metrics {
		rows = append(rows, []any{m.Label, m.Value})
	}
	return rows
}

func rmAnalysisRows(v *View) [][]any {
	rows := make([][]any, 0, len(v.RMAnalysis))
	for _, r := range v.RMAnalysis {
		rows = append(rows, []any{
			r.FGCode,
			r.RMCode,
			r.PerBatch.InexactFloat64(),
			r.Batches,
			r.Required.InexactFloat64(),
			r.Available.InexactFloat64(),
			r.Shortage.InexactFloat64(),
			r.Status,
		})
	}
	return rows
}

// WriteDetailedExcel writes the full workbook: production results, RM
// analysis, shortage details, settings and the production summary. The RM
// analysis and shortage sheets are left out when they would be empty.
func WriteDetailedExcel(out io.Writer, v *View) error {
	return render(out, func(w *workbook) error {
		if err := w.sheet("Production Results", productionHeader, productionRows(v)); err != nil {
			return err
		}
		if len(v.RMAnalysis) > 0 {
			if err := w.sheet("RM Analysis", rmAnalysisHeader, rmAnalysisRows(v)); err != nil {
				return err
			}
		}
		if rows := shortageRows(v); len(rows) > 0 {
			if err := w.sheet("Shortage Details", shortageHeader, rows); err != nil {
				return err
			}
		}
		if err := w.sheet("Settings", settingsHeader, settingRows(v.Settings)); err != nil {
			return err
		}
		return w.sheet("Production Summary", metricHeader, metricRows(v.Summary))
	})
}

// WriteBasicExcel writes production results and settings only.
func WriteBasicExcel(out io.Writer, v *View) error {
	return render(out, func(w *workbook) error {
		if err := w.sheet("Production Results", productionHeader, productionRows(v)); err != nil {
			return err
		}
		return w.sheet("Settings", settingsHeader, settingRows(v.BasicSettings()))
	})
}

// WriteSummaryExcel writes the workbook laid out like the PDF report.
func WriteSummaryExcel(out io.Writer, v *View) error {
	return render(out, func(w *workbook) error {
		summary := [][]any{{v.Title, v.ProductionDate, v.GeneratedAt, v.Setting("Decimal Precision")}}
		header := []string{"Report Type", "Production Date", "Report Generated", "Decimal Precision"}
		if err := w.sheet("Executive Summary", header, summary); err != nil {
			return err
		}

		if len(v.Production) > 0 {
			capability := []string{"FG Code", "Expected", "Max (Kg)", "Actual (Kg)", "Status", "Missing RM", "Batches"}
			if err := w.sheet("Production Capability List", capability, productionRows(v)); err != nil {
				return err
			}
		}
		if rows := shortageRows(v); len(rows) > 0 {
			if err := w.sheet("Shortage Details", shortageHeader, rows); err != nil {
				return err
			}
		}

		var system []Setting
		for _, s := range v.Settings {
			switch s.Name {
			case "Decimal Precision", "FIFO Order", "Report Generated":
				system = append(system, s)
			}
		}
		return w.sheet("System Settings", settingsHeader, settingRows(system))
	})
}

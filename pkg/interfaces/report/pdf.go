package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
)

// The core PDF fonts cannot draw emoji, so status cells use plain words.
var pdfStatus = strings.NewReplacer("✅ ", "", "❌ ", "")

type pdfWriter struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (p *pdfWriter) heading(text string) {
	p.pdf.Ln(4)
	p.pdf.SetFont("Helvetica", "B", 14)
	p.pdf.SetTextColor(44, 62, 80)
	p.pdf.CellFormat(0, 8, p.tr(text), "B", 1, "L", false, 0, "")
	p.pdf.Ln(3)
	p.pdf.SetTextColor(0, 0, 0)
}

func (p *pdfWriter) text(size float64, text string) {
	p.pdf.SetFont("Helvetica", "", size)
	p.pdf.MultiCell(0, 5, p.tr(text), "", "L", false)
}

// table draws a grid with a grey header row. widths are in millimetres.
func (p *pdfWriter) table(header []string, widths []float64, rows [][]string) {
	p.pdf.SetFont("Helvetica", "B", 9)
	p.pdf.SetFillColor(128, 128, 128)
	p.pdf.SetTextColor(245, 245, 245)
	for i, h := range header {
		p.pdf.CellFormat(widths[i], 7, p.tr(h), "1", 0, "C", true, 0, "")
	}
	p.pdf.Ln(-1)

	p.pdf.SetFont("Helvetica", "", 8)
	p.pdf.SetFillColor(245, 245, 245)
	p.pdf.SetTextColor(0, 0, 0)
	for _, row := range rows {
		for i, cell := range row {
			p.pdf.CellFormat(widths[i], 6, p.tr(cell), "1", 0, "C", true, 0, "")
		}
		p.pdf.Ln(-1)
	}
	p.pdf.Ln(4)
}

// WritePDF renders the summary report as an A4 PDF document.
func WritePDF(out io.Writer, v *View) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetTitle(v.Title, true)
	pdf.SetCreator(v.Company, true)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	p := &pdfWriter{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, p.tr(v.Title), "", 1, "C", false, 0, "")
	p.text(10, "Generated on: "+v.GeneratedAt)
	p.text(10, "Production Date: "+v.ProductionDate)

	p.heading("Summary Metrics")
	metrics := make([][]string, 0, len(v.Metrics))
	for _, m := range v.Metrics {
		metrics = append(metrics, []string{m.Label, m.Value})
	}
	p.table([]string{"Metric", "Value"}, []float64{85, 65}, metrics)

	p.heading("Production Capability List")
	if len(v.Production) > 0 {
		rows := make([][]string, 0, len(v.Production))
		for _, r := range v.Production {
			rows = append(rows, []string{
				r.FGCode, r.Expected, r.Max, r.Actual,
				pdfStatus.Replace(r.Status), r.Missing, fmt.Sprint(r.Batches),
			})
		}
		p.table(
			[]string{"FG Code", "Expected", "Max (Kg)", "Actual (Kg)", "Status", "Missing RM", "Batches"},
			[]float64{25, 25, 25, 25, 22, 22, 16},
			rows,
		)
	}

	if len(v.Shortages) > 0 {
		p.heading("Shortage Details")
		for _, s := range v.Shortages {
			pdf.SetFont("Helvetica", "B", 11)
			pdf.SetTextColor(231, 76, 60)
			pdf.CellFormat(0, 7, p.tr("FG Code: "+s.FGCode), "", 1, "L", false, 0, "")
			pdf.SetTextColor(0, 0, 0)
			for _, d := range s.Details {
				p.text(9, "- "+d)
			}
			pdf.Ln(2)
		}
	}

	if len(v.PurchaseOrders) > 0 {
		p.heading("Purchase Order Delay Status")
		rows := make([][]string, 0, len(v.PurchaseOrders))
		for _, po := range v.PurchaseOrders {
			rows = append(rows, []string{po.RMCode, po.Quantity, po.ArrivalDate, po.Status})
		}
		p.table([]string{"RM Code", "Quantity", "Arrival Date", "Status"}, []float64{40, 45, 40, 35}, rows)
	}

	p.heading("System Settings")
	for _, s := range v.Settings {
		if s.Name == "Production Date" {
			continue
		}
		p.text(10, fmt.Sprintf("- %s: %s", s.Name, s.Value))
	}
	for _, w := range v.Warnings {
		p.text(10, "- Warning: "+w)
	}

	pdf.Ln(10)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(52, 152, 219)
	pdf.CellFormat(0, 8, p.tr(v.Company), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(128, 128, 128)
	pdf.CellFormat(0, 6, p.tr(FooterLine), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, EndOfReport, "", 1, "C", false, 0, "")

	if err := pdf.Output(out); err != nil {
		return fmt.Errorf("failed to render PDF: %w", err)
	}
	return nil
}

package report

import (
	"fmt"
	"io"
	"time"
)

// Format names a downloadable report
type Format string

const (
	FormatDetailedExcel Format = "xlsx"
	FormatBasicExcel    Format = "xlsx-basic"
	FormatSummaryExcel  Format = "xlsx-summary"
	FormatPDF           Format = "pdf"
	FormatHTML          Format = "html"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type renderer struct {
	write       func(io.Writer, *View) error
	contentType string
	prefix      string
	ext         string
}

var renderers = map[Format]renderer{
	FormatDetailedExcel: {WriteDetailedExcel, xlsxContentType, "MRP_Detailed_Report", "xlsx"},
	FormatBasicExcel:    {WriteBasicExcel, xlsxContentType, "MRP_Basic_Report", "xlsx"},
	FormatSummaryExcel:  {WriteSummaryExcel, xlsxContentType, "MRP_Summary_Report", "xlsx"},
	FormatPDF:           {WritePDF, "application/pdf", "MRP_Production_Report", "pdf"},
	FormatHTML:          {WriteHTML, "text/html; charset=utf-8", "MRP_Production_Report", "html"},
}

// ParseFormat validates a format name
func ParseFormat(name string) (Format, error) {
	f := Format(name)
	if _, ok := renderers[f]; !ok {
		return "", fmt.Errorf("unsupported report format: %s", name)
	}
	return f, nil
}

// Render writes v to out in the given format
func Render(out io.Writer, format Format, v *View) error {
	r, ok := renderers[format]
	if !ok {
		return fmt.Errorf("unsupported report format: %s", format)
	}
	return r.write(out, v)
}

// ContentType returns the MIME type of a format
func (f Format) ContentType() string {
	return renderers[f].contentType
}

// FileName returns the download name for a report generated at t,
// e.g. MRP_Detailed_Report_20240301_093000.xlsx.
func (f Format) FileName(t time.Time) string {
	r := renderers[f]
	return fmt.Sprintf("%s_%s.%s", r.prefix, t.Format("20060102_150405"), r.ext)
}

package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

var htmlTemplate = template.Must(template.ParseFS(templateFS, "templates/plan_report.html"))

type htmlData struct {
	*View
	Footer string
	End    string
}

// WriteHTML renders the summary report as a standalone HTML page. It carries
// the same sections as the PDF and serves as its fallback.
func WriteHTML(out io.Writer, v *View) error {
	data := htmlData{View: v, Footer: FooterLine, End: EndOfReport}
	if err := htmlTemplate.Execute(out, data); err != nil {
		return fmt.Errorf("failed to render HTML report: %w", err)
	}
	return nil
}

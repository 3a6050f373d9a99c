package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/fgplan/pkg/application/dto"
	"github.com/vsinha/fgplan/pkg/domain/entities"
)

const (
	Title          = "MRP Production Planning Summary Report"
	FooterLine     = "Report generated by MRP Dashboard System"
	EndOfReport    = "--- End of Report ---"
	DateLayout     = "02/01/2006"
	StampLayout    = "2006-01-02 15:04:05"
	defaultCompany = "Production Planning"
)

// Metric is a labelled headline figure
type Metric struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ProductionRow is one line of the production capability list
type ProductionRow struct {
	FGCode   string `json:"fg"`
	Expected string `json:"expected"`
	Max      string `json:"max"`
	Actual   string `json:"actual"`
	Status   string `json:"status"`
	Ready    bool   `json:"ready"`
	Missing  string `json:"missing"`
	Batches  int64  `json:"batches"`
}

// ShortageSection lists the shortage explanations of one FG
type ShortageSection struct {
	FGCode  string   `json:"fg"`
	Details []string `json:"details"`
}

// PORow is one purchase order line with its delivery status
type PORow struct {
	RMCode      string `json:"rm_code"`
	Quantity    string `json:"quantity"`
	ArrivalDate string `json:"arrival_date"`
	Status      string `json:"status"`
	Delayed     bool   `json:"delayed"`
}

// RMAnalysisRow is one line of the raw material analysis
type RMAnalysisRow struct {
	FGCode    string          `json:"fg"`
	RMCode    string          `json:"rm_code"`
	PerBatch  decimal.Decimal `json:"per_batch_kg"`
	Batches   int64           `json:"batches"`
	Required  decimal.Decimal `json:"required_kg"`
	Available decimal.Decimal `json:"available_kg"`
	Shortage  decimal.Decimal `json:"shortage_kg"`
	Status    string          `json:"status,omitempty"`
}

// Setting is one name/value pair of the settings block
type Setting struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// View is a plan rendered into display labels. Every report format is
// produced from a View so the formats agree on wording and rounding.
type View struct {
	Title          string            `json:"title"`
	RunID          string            `json:"run_id"`
	GeneratedAt    string            `json:"generated_at"`
	ProductionDate string            `json:"production_date"`
	Company        string            `json:"company"`
	Metrics        []Metric          `json:"metrics"`
	Production     []ProductionRow   `json:"production"`
	Shortages      []ShortageSection `json:"shortages"`
	PurchaseOrders []PORow           `json:"purchase_orders"`
	RMAnalysis     []RMAnalysisRow   `json:"rm_analysis"`
	Summary        []Metric          `json:"summary"`
	Settings       []Setting         `json:"settings"`
	Warnings       []string          `json:"warnings,omitempty"`

	formulaSource string
}

// NewView renders a plan result
func NewView(result *dto.PlanResult) *View {
	s := result.Summary
	prodDate := result.Settings.ProductionDate.Format(DateLayout)
	generated := result.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}

	v := &View{
		Title:          Title,
		RunID:          result.RunID,
		GeneratedAt:    generated.Format(StampLayout),
		ProductionDate: prodDate,
		Company:        result.Settings.CompanyName,
		Warnings:       result.Warnings,
		formulaSource:  result.Settings.FormulaSource,
	}
	if v.Company == "" {
		v.Company = defaultCompany
	}

	volume := entities.FormatKg(s.TotalVolume)
	v.Metrics = []Metric{
		{"Planned Production Date", prodDate},
		{"Producible FG Types", fmt.Sprint(s.ReadyCount())},
		{"Total Production Volume", volume},
		{"Delayed Purchase Orders", fmt.Sprint(s.PurchaseOrder.Delayed)},
	}
	v.Summary = []Metric{
		{"Producible FG Types", fmt.Sprint(s.ReadyCount())},
		{"Total Production Volume", volume},
		{"Total Batches", entities.FormatCount(s.TotalBatches)},
		{"Delayed POs", fmt.Sprint(s.PurchaseOrder.Delayed)},
	}

	if result.Allocation != nil {
		for _, r := range result.Allocation.Results {
			v.Production = append(v.Production, ProductionRow{
				FGCode:   r.FGCode.String(),
				Expected: r.ExpectedLabel(),
				Max:      r.MaxLabel(),
				Actual:   r.ActualLabel(),
				Status:   r.Status.Label(),
				Ready:    r.IsReady(),
				Missing:  r.MissingLabel(),
				Batches:  r.ActualBatches,
			})
		}
		for _, e := range result.Allocation.Shortages.WithShortages() {
			section := ShortageSection{FGCode: e.FGCode.String()}
			for _, c := range e.Causes {
				section.Details = append(section.Details, c.Message)
			}
			v.Shortages = append(v.Shortages, section)
		}
	}

	for _, po := range s.PurchaseOrder.Lines {
		v.PurchaseOrders = append(v.PurchaseOrders, PORow{
			RMCode:      po.RMCode.String(),
			Quantity:    entities.FormatQuantityKg(po.Quantity),
			ArrivalDate: po.ArrivalDate.Format(DateLayout),
			Status:      po.Status.String(),
			Delayed:     po.Status == entities.Delayed,
		})
	}

	for _, u := range s.RMUsage {
		row := RMAnalysisRow{
			FGCode:    u.FGCode.String(),
			RMCode:    u.RMCode.String(),
			PerBatch:  u.PerBatch,
			Batches:   u.Batches,
			Required:  u.Required,
			Available: u.Available,
			Shortage:  u.Shortage,
		}
		if u.Batches == 0 {
			row.Status = u.Status.String()
		}
		v.RMAnalysis = append(v.RMAnalysis, row)
	}

	v.Settings = v.settings(result, true)
	return v
}

func (v *View) settings(result *dto.PlanResult, withSource bool) []Setting {
	fifo := "Not set"
	if len(result.Order) > 0 {
		codes := make([]string, 0, len(result.Order))
		for _, c := range result.Order {
			codes = append(codes, c.String())
		}
		fifo = strings.Join(codes, ", ")
	}

	out := []Setting{
		{"Production Date", v.ProductionDate},
		{"Decimal Precision", fmt.Sprintf("%d places", result.Settings.DecimalPlaces)},
		{"FIFO Order", fifo},
	}
	if withSource {
		out = append(out, Setting{"Formula Source", v.formulaSource})
	}
	return append(out, Setting{"Report Generated", v.GeneratedAt})
}

// BasicSettings drops the formula source line
func (v *View) BasicSettings() []Setting {
	out := make([]Setting, 0, len(v.Settings))
	for _, s := range v.Settings {
		if s.Name != "Formula Source" {
			out = append(out, s)
		}
	}
	return out
}

// Setting looks up a settings value by name
func (v *View) Setting(name string) string {
	for _, s := range v.Settings {
		if s.Name == name {
			return s.Value
		}
	}
	return ""
}

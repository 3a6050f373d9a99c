package aggregation

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/fgplan/pkg/application/dto"
	"github.com/vsinha/fgplan/pkg/domain/entities"
)

// Aggregator turns an allocation run into the summary consumed by reports
type Aggregator struct {
	decimalPlaces int
}

// NewAggregator creates an aggregator rounding per-batch requirements to decimalPlaces
func NewAggregator(decimalPlaces int) *Aggregator {
	return &Aggregator{decimalPlaces: entities.ClampDecimalPlaces(decimalPlaces)}
}

// Summarize computes the headline metrics, the RM usage ledger and the
// purchase order status for one run.
func (a *Aggregator) Summarize(
	run *dto.AllocationRun,
	formulas entities.FormulaTable,
	orders []entities.PurchaseOrderLine,
	productionDate time.Time,
) dto.PlanSummary {
	summary := dto.PlanSummary{TotalVolume: decimal.Zero}

	for _, r := range run.Results {
		if r.IsReady() {
			summary.ReadyFGs = append(summary.ReadyFGs, r.FGCode)
			summary.TotalVolume = summary.TotalVolume.Add(r.ActualCapacity)
		} else {
			summary.ShortageFGs = append(summary.ShortageFGs, r.FGCode)
		}
		summary.TotalBatches += r.ActualBatches
	}

	summary.RMUsage = a.RMUsage(run, formulas)
	summary.PurchaseOrder = SummarizePurchaseOrders(orders, productionDate)
	return summary
}

// RMUsage builds the raw material analysis ledger.
//
// Every FG that produced batches contributes one row per formula line with
// the full requirement for those batches. Every FG with shortage causes then
// contributes one row per limiting RM, sized for a single batch against
// initial stock.
func (a *Aggregator) RMUsage(run *dto.AllocationRun, formulas entities.FormulaTable) []dto.RMUsageEntry {
	groups := formulas.ByFG()
	places := int32(a.decimalPlaces)
	var ledger []dto.RMUsageEntry

	for _, r := range run.Results {
		if r.ActualBatches <= 0 {
			continue
		}
		n := decimal.NewFromInt(r.ActualBatches)
		for _, row := range groups[r.FGCode] {
			req := row.Quantity.Round(places)
			required := req.Mul(n)
			// What is left plus what this run consumed, i.e. the opening stock.
			available := run.Initial.Get(row.RMCode)
			ledger = append(ledger, dto.RMUsageEntry{
				FGCode:    r.FGCode,
				RMCode:    row.RMCode,
				PerBatch:  req,
				Required:  required,
				Available: available,
				Shortage:  decimal.Max(decimal.Zero, required.Sub(available)),
				Batches:   r.ActualBatches,
				Status:    r.Status,
			})
		}
	}

	for _, entry := range run.Shortages.WithShortages() {
		limiting := make(map[entities.Code]struct{}, len(entry.Causes))
		for _, c := range entry.Causes {
			limiting[c.RMCode] = struct{}{}
		}
		for _, row := range groups[entry.FGCode] {
			if _, ok := limiting[row.RMCode]; !ok {
				continue
			}
			req := row.Quantity.Round(places)
			available := run.Initial.Get(row.RMCode)
			ledger = append(ledger, dto.RMUsageEntry{
				FGCode:    entry.FGCode,
				RMCode:    row.RMCode,
				PerBatch:  req,
				Required:  req,
				Available: available,
				Shortage:  decimal.Max(decimal.Zero, req.Sub(available)),
				Batches:   0,
				Status:    entities.Shortage,
			})
		}
	}
	return ledger
}

// SummarizePurchaseOrders classifies every line against productionDate and
// totals quantities overall and per RM.
func SummarizePurchaseOrders(orders []entities.PurchaseOrderLine, productionDate time.Time) dto.PurchaseOrderSummary {
	summary := dto.PurchaseOrderSummary{TotalQuantity: decimal.Zero}
	perRM := make(map[entities.Code]*dto.RMOrderTotal)

	for _, po := range orders {
		status := po.StatusOn(productionDate)
		if status == entities.Delayed {
			summary.Delayed++
		}
		summary.Lines = append(summary.Lines, dto.POStatusLine{PurchaseOrderLine: po, Status: status})
		summary.TotalQuantity = summary.TotalQuantity.Add(po.Quantity)

		if summary.Earliest.IsZero() || po.ArrivalDate.Before(summary.Earliest) {
			summary.Earliest = po.ArrivalDate
		}
		if po.ArrivalDate.After(summary.Latest) {
			summary.Latest = po.ArrivalDate
		}

		total, ok := perRM[po.RMCode]
		if !ok {
			total = &dto.RMOrderTotal{RMCode: po.RMCode, Quantity: decimal.Zero}
			perRM[po.RMCode] = total
		}
		total.Quantity = total.Quantity.Add(po.Quantity)
		total.Lines++
	}

	for _, total := range perRM {
		summary.PerRM = append(summary.PerRM, *total)
	}
	sort.Slice(summary.PerRM, func(i, j int) bool { return summary.PerRM[i].RMCode < summary.PerRM[j].RMCode })
	return summary
}

package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/fgplan/pkg/domain/entities"
)

// AllocationRun contains the complete output of one allocation pass
type AllocationRun struct {
	Results   []entities.AllocationResult
	Shortages entities.ShortageLedger

	// Initial is the rounded stock before allocation; Allocated is what is
	// left after every Ready FG consumed its batches.
	Initial   entities.StockSnapshot
	Allocated entities.StockSnapshot
}

// RMUsageEntry is one row of the raw material analysis ledger
type RMUsageEntry struct {
	FGCode    entities.Code
	RMCode    entities.Code
	PerBatch  decimal.Decimal
	Required  decimal.Decimal
	Available decimal.Decimal
	Shortage  decimal.Decimal
	Batches   int64
	Status    entities.AllocationStatus
}

// POStatusLine is a purchase order classified against the production date
type POStatusLine struct {
	entities.PurchaseOrderLine
	Status entities.DeliveryStatus
}

// RMOrderTotal is the open purchase order quantity for one raw material
type RMOrderTotal struct {
	RMCode   entities.Code
	Quantity decimal.Decimal
	Lines    int
}

// PurchaseOrderSummary aggregates the open purchase orders
type PurchaseOrderSummary struct {
	Lines         []POStatusLine
	TotalQuantity decimal.Decimal
	Delayed       int
	Earliest      time.Time
	Latest        time.Time
	PerRM         []RMOrderTotal
}

// PlanSummary contains the headline metrics of a plan
type PlanSummary struct {
	ReadyFGs      []entities.Code
	ShortageFGs   []entities.Code
	TotalVolume   decimal.Decimal
	TotalBatches  int64
	RMUsage       []RMUsageEntry
	PurchaseOrder PurchaseOrderSummary
}

// ReadyCount is the number of FGs that can produce at least one batch
func (s PlanSummary) ReadyCount() int {
	return len(s.ReadyFGs)
}

// PlanSettings records the knobs a plan was produced with
type PlanSettings struct {
	DecimalPlaces  int
	ProductionDate time.Time
	FormulaSource  string
	CompanyName    string
}

// PlanResult is everything a planning run hands to its consumers
type PlanResult struct {
	RunID       string
	GeneratedAt time.Time
	Order       entities.FIFOOrder
	Expected    entities.ExpectedCapacities
	Settings    PlanSettings
	Allocation  *AllocationRun
	Summary     PlanSummary
	Warnings    []string
}

package entities

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

// Formula source names reported with every plan.
const (
	SourceOriginalFormulas = "Original Formulas"
	SourceModifiedFormulas = "Modified Formulas"
)

// FIFOOrder is the priority sequence in which finished goods claim stock.
type FIFOOrder []Code

// NewFIFOOrder builds the order from a selection: duplicates and empty
// codes are dropped and the remaining codes are sorted ascending.
func NewFIFOOrder(selected []Code) FIFOOrder {
	seen := make(map[Code]struct{}, len(selected))
	order := make(FIFOOrder, 0, len(selected))
	for _, c := range selected {
		if c.IsEmpty() {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		order = append(order, c)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	return order
}

// Position returns the 1-based rank of fg, or 0 if it is not in the order.
func (o FIFOOrder) Position(fg Code) int {
	for i, c := range o {
		if c == fg {
			return i + 1
		}
	}
	return 0
}

// Without returns the order minus the given codes
func (o FIFOOrder) Without(fgs ...Code) FIFOOrder {
	drop := make(map[Code]struct{}, len(fgs))
	for _, fg := range fgs {
		drop[fg] = struct{}{}
	}
	out := make(FIFOOrder, 0, len(o))
	for _, c := range o {
		if _, ok := drop[c]; !ok {
			out = append(out, c)
		}
	}
	return out
}

// ExpectedCapacities maps FG code to a target capacity in kg.
// Absent or non-positive values mean automatic mode.
type ExpectedCapacities map[Code]decimal.Decimal

// Get returns the target for fg, zero when unset
func (e ExpectedCapacities) Get(fg Code) decimal.Decimal {
	return e[fg]
}

// Clone returns an independent copy
func (e ExpectedCapacities) Clone() ExpectedCapacities {
	out := make(ExpectedCapacities, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// PlanningInput is the immutable bundle handed to one planning run.
type PlanningInput struct {
	Stock          StockSnapshot
	PurchaseOrders []PurchaseOrderLine
	Formulas       FormulaTable
	FormulaSource  string
	Order          FIFOOrder
	Expected       ExpectedCapacities
	DecimalPlaces  int
	ProductionDate time.Time
}

// Validate checks the bundle before it reaches the engine.
func (p PlanningInput) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.DecimalPlaces, validation.Min(MinDecimalPlaces), validation.Max(MaxDecimalPlaces)),
		validation.Field(&p.ProductionDate, validation.Required),
	)
}

// Fingerprint digests everything that can change a run's outcome. Bundles
// with equal content share a fingerprint; row order counts.
func (p PlanningInput) Fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "places=%d date=%s source=%s\n",
		p.DecimalPlaces, p.ProductionDate.UTC().Format(time.RFC3339Nano), p.FormulaSource)
	for _, fg := range p.Order {
		fmt.Fprintf(h, "order %s\n", fg)
	}
	for _, rm := range sortedCodes(p.Stock) {
		fmt.Fprintf(h, "stock %s %s\n", rm, p.Stock[rm])
	}
	for _, fg := range sortedCodes(p.Expected) {
		fmt.Fprintf(h, "expected %s %s\n", fg, p.Expected[fg])
	}
	for _, row := range p.Formulas {
		fmt.Fprintf(h, "formula %s %s %s\n", row.FGCode, row.RMCode, row.Quantity)
	}
	for _, po := range p.PurchaseOrders {
		fmt.Fprintf(h, "po %s %s %s\n", po.RMCode, po.Quantity, po.ArrivalDate.UTC().Format(time.RFC3339Nano))
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}

func sortedCodes[V any](m map[Code]V) []Code {
	codes := make([]Code, 0, len(m))
	for c := range m {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// MissingParts lists the inputs a run cannot start without.
func (p PlanningInput) MissingParts() []string {
	var missing []string
	if len(p.Stock) == 0 {
		missing = append(missing, "RM Stock")
	}
	if len(p.Formulas) == 0 {
		missing = append(missing, "FG Formulas")
	}
	if len(p.Order) == 0 {
		missing = append(missing, "FG selection for analysis")
	}
	return missing
}

package allocation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vsinha/fgplan/pkg/application/dto"
	"github.com/vsinha/fgplan/pkg/domain/entities"
)

// EngineConfig holds configuration for the allocation engine
type EngineConfig struct {
	// DecimalPlaces is the rounding precision for stock and requirements, 0-6.
	DecimalPlaces int
}

// Engine allocates a shared raw material pool to finished goods in FIFO order.
// An Engine holds no state between runs and is safe for concurrent use.
type Engine struct {
	config EngineConfig
}

// NewEngine creates an engine with the default precision
func NewEngine() *Engine {
	return NewEngineWithConfig(EngineConfig{DecimalPlaces: entities.DefaultDecimalPlaces})
}

// NewEngineWithConfig creates an engine; out-of-range precision is clamped.
func NewEngineWithConfig(config EngineConfig) *Engine {
	config.DecimalPlaces = entities.ClampDecimalPlaces(config.DecimalPlaces)
	return &Engine{config: config}
}

// DecimalPlaces returns the precision the engine rounds to
func (e *Engine) DecimalPlaces() int {
	return e.config.DecimalPlaces
}

// Allocate runs a single allocation pass with the given precision.
func Allocate(
	order entities.FIFOOrder,
	formulas entities.FormulaTable,
	stock entities.StockSnapshot,
	expected entities.ExpectedCapacities,
	decimalPlaces int,
) *dto.AllocationRun {
	return NewEngineWithConfig(EngineConfig{DecimalPlaces: decimalPlaces}).Allocate(order, formulas, stock, expected)
}

// Allocate processes every FG of order in sequence. FGs without formula rows
// are skipped and get no result. Each Ready FG consumes
// its batches from the pool before the next FG is evaluated, so position in
// order decides who is served first when stock is scarce.
//
// The inputs are never modified. The engine has no failure path: zero or
// negative requirements and missing stock are reported as shortage causes.
func (e *Engine) Allocate(
	order entities.FIFOOrder,
	formulas entities.FormulaTable,
	stock entities.StockSnapshot,
	expected entities.ExpectedCapacities,
) *dto.AllocationRun {
	initial := stock.Rounded(e.config.DecimalPlaces)
	run := &dto.AllocationRun{
		Results:   make([]entities.AllocationResult, 0, len(order)),
		Initial:   initial,
		Allocated: initial.Clone(),
	}

	groups := formulas.ByFG()
	for _, fg := range order {
		rows, ok := groups[fg]
		if !ok || len(rows) == 0 {
			continue
		}
		result := e.allocateFG(fg, rows, run.Initial, run.Allocated, expected.Get(fg))
		run.Results = append(run.Results, result)
		run.Shortages.Record(fg, result.Causes)
	}
	return run
}

func (e *Engine) allocateFG(
	fg entities.Code,
	rows entities.FormulaTable,
	initial, allocated entities.StockSnapshot,
	expectedKg decimal.Decimal,
) entities.AllocationResult {
	result := entities.AllocationResult{
		FGCode:           fg,
		ExpectedCapacity: expectedKg,
		Causes:           []entities.ShortageCause{},
	}

	result.MaxBatches = e.maxBatches(rows, initial)
	result.MaxCapacity = entities.BatchesToKg(result.MaxBatches)

	var (
		supported []int64
		causes    []entities.ShortageCause
	)
	if expectedKg.IsPositive() {
		target := entities.TargetBatches(expectedKg)
		supported, causes = e.supportTarget(rows, allocated, target)
		result.ActualBatches = minBatches(supported)
		if result.ActualBatches > target {
			result.ActualBatches = target
		}
	} else {
		supported, causes = e.supportAuto(rows, allocated)
		result.ActualBatches = minBatches(supported)
	}
	if causes != nil {
		result.Causes = causes
	}

	result.ActualCapacity = entities.BatchesToKg(result.ActualBatches)
	if result.ActualCapacity.GreaterThanOrEqual(entities.BatchSize) {
		result.Status = entities.Ready
	} else {
		result.Status = entities.Shortage
	}

	if result.ActualBatches > 0 && result.IsReady() {
		e.deplete(rows, allocated, result.ActualBatches)
	}
	return result
}

// maxBatches is the theoretical ceiling against initial stock, ignoring
// what earlier FGs in the order have consumed.
func (e *Engine) maxBatches(rows entities.FormulaTable, initial entities.StockSnapshot) int64 {
	per := make([]int64, 0, len(rows))
	for _, row := range rows {
		req := e.perBatch(row)
		avail := initial.Get(row.RMCode)
		if !req.IsPositive() || !avail.IsPositive() {
			per = append(per, 0)
			continue
		}
		per = append(per, entities.FloorBatches(avail, req))
	}
	return minBatches(per)
}

func (e *Engine) supportTarget(rows entities.FormulaTable, allocated entities.StockSnapshot, target int64) ([]int64, []entities.ShortageCause) {
	var (
		supported []int64
		causes    []entities.ShortageCause
	)
	targetDec := decimal.NewFromInt(target)

	for _, row := range rows {
		rm := row.RMCode
		req := e.perBatch(row)
		avail := allocated.Get(rm)
		total := req.Mul(targetDec)

		switch {
		case !total.IsPositive():
			supported = append(supported, 0)
			causes = append(causes, entities.ShortageCause{
				RMCode:  rm,
				Message: fmt.Sprintf("%s: Invalid requirement (%s Kg per batch)", rm, e.fixed(req)),
			})
		case !avail.IsPositive():
			supported = append(supported, 0)
			causes = append(causes, entities.ShortageCause{
				RMCode:  rm,
				Message: fmt.Sprintf("%s: Required %s Kg, Available 0.0000 Kg", rm, e.fixed(total)),
				Missing: true,
			})
		case avail.GreaterThanOrEqual(total):
			supported = append(supported, target)
		default:
			n := entities.FloorBatches(avail, req)
			supported = append(supported, n)
			if n < target {
				causes = append(causes, entities.ShortageCause{
					RMCode: rm,
					Message: fmt.Sprintf("%s: Required %s Kg for %d batches, Available %s Kg, Shortage %s Kg",
						rm, e.fixed(total), target, e.fixed(avail), e.fixed(total.Sub(avail))),
					Missing: true,
				})
			}
		}
	}
	return supported, causes
}

func (e *Engine) supportAuto(rows entities.FormulaTable, allocated entities.StockSnapshot) ([]int64, []entities.ShortageCause) {
	var (
		supported []int64
		causes    []entities.ShortageCause
	)

	for _, row := range rows {
		rm := row.RMCode
		req := e.perBatch(row)
		avail := allocated.Get(rm)

		switch {
		case !req.IsPositive():
			supported = append(supported, 0)
			causes = append(causes, entities.ShortageCause{
				RMCode:  rm,
				Message: fmt.Sprintf("%s: Invalid requirement (%s Kg)", rm, e.fixed(req)),
			})
		case !avail.IsPositive():
			supported = append(supported, 0)
			causes = append(causes, entities.ShortageCause{
				RMCode:  rm,
				Message: fmt.Sprintf("%s: Required %s Kg per batch, Available 0.0000 Kg", rm, e.fixed(req)),
				Missing: true,
			})
		default:
			n := entities.FloorBatches(avail, req)
			supported = append(supported, n)
			if n == 0 {
				causes = append(causes, entities.ShortageCause{
					RMCode: rm,
					Message: fmt.Sprintf("%s: Required %s Kg per batch, Available %s Kg, Shortage %s Kg",
						rm, e.fixed(req), e.fixed(avail), e.fixed(req.Sub(avail))),
					Missing: true,
				})
			}
		}
	}
	return supported, causes
}

// deplete consumes batches of every row from the pool. Consumption uses the
// unrounded per-batch quantity, rounded once per row. RMs absent from the
// pool stay absent.
func (e *Engine) deplete(rows entities.FormulaTable, allocated entities.StockSnapshot, batches int64) {
	places := int32(e.config.DecimalPlaces)
	n := decimal.NewFromInt(batches)
	for _, row := range rows {
		if !allocated.Has(row.RMCode) {
			continue
		}
		used := row.Quantity.Mul(n).Round(places)
		allocated[row.RMCode] = allocated[row.RMCode].Sub(used).Round(places)
	}
}

func (e *Engine) perBatch(row entities.FormulaEntry) decimal.Decimal {
	return row.Quantity.Round(int32(e.config.DecimalPlaces))
}

func (e *Engine) fixed(d decimal.Decimal) string {
	return entities.FormatFixed(d, e.config.DecimalPlaces)
}

func minBatches(values []int64) int64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

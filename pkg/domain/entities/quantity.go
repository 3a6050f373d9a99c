package entities

import (
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// BatchSizeKg is the weight of one production batch.
	BatchSizeKg = 25

	DefaultDecimalPlaces = 3
	MinDecimalPlaces     = 0
	MaxDecimalPlaces     = 6
)

// BatchSize is BatchSizeKg as a decimal.
var BatchSize = decimal.NewFromInt(BatchSizeKg)

var maxBatchCount = decimal.NewFromInt(math.MaxInt64)

var labelPrinter = message.NewPrinter(language.English)

// FloorBatches returns how many whole units of perUnit fit into available.
// Both operands must be positive; callers guard the zero and negative cases.
// Quotients beyond int64 saturate at math.MaxInt64.
func FloorBatches(available, perUnit decimal.Decimal) int64 {
	q, _ := available.QuoRem(perUnit, 0)
	if q.GreaterThan(maxBatchCount) {
		return math.MaxInt64
	}
	return q.IntPart()
}

// BatchesToKg converts a batch count into kilograms
func BatchesToKg(batches int64) decimal.Decimal {
	return decimal.NewFromInt(batches).Mul(BatchSize)
}

// TargetBatches converts an expected capacity into a batch target.
// The result is never below one.
func TargetBatches(expectedKg decimal.Decimal) int64 {
	n := FloorBatches(expectedKg, BatchSize)
	if n < 1 {
		return 1
	}
	return n
}

// ClampDecimalPlaces forces n into the supported precision range.
func ClampDecimalPlaces(n int) int {
	if n < MinDecimalPlaces {
		return MinDecimalPlaces
	}
	if n > MaxDecimalPlaces {
		return MaxDecimalPlaces
	}
	return n
}

// FormatFixed renders d with exactly places fractional digits.
func FormatFixed(d decimal.Decimal, places int) string {
	return d.StringFixed(int32(places))
}

// FormatKg renders a capacity label such as "1,250.0 Kg".
func FormatKg(d decimal.Decimal) string {
	return labelPrinter.Sprintf("%.1f Kg", d.Round(1).InexactFloat64())
}

// FormatQuantityKg renders a purchase order quantity such as "1,250.0000 Kg".
func FormatQuantityKg(d decimal.Decimal) string {
	return labelPrinter.Sprintf("%.4f Kg", d.Round(4).InexactFloat64())
}

// FormatCount renders an integer with thousands grouping
func FormatCount(n int64) string {
	return labelPrinter.Sprintf("%d", n)
}

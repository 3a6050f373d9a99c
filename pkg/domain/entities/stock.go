package entities

import (
	"sort"

	"github.com/shopspring/decimal"
)

// StockLine is one row of an RM stock sheet.
type StockLine struct {
	RMCode   Code
	Quantity decimal.Decimal
}

// StockSnapshot maps RM code to kilograms on hand.
// A missing code means zero stock.
type StockSnapshot map[Code]decimal.Decimal

// NewStockSnapshot builds a snapshot from stock lines.
// Empty codes are skipped and a repeated code keeps its last quantity.
func NewStockSnapshot(lines []StockLine) StockSnapshot {
	s := make(StockSnapshot, len(lines))
	for _, l := range lines {
		if l.RMCode.IsEmpty() {
			continue
		}
		s[l.RMCode] = l.Quantity
	}
	return s
}

// Get returns the quantity for code, zero when absent
func (s StockSnapshot) Get(code Code) decimal.Decimal {
	return s[code]
}

// Has reports whether code is present in the snapshot
func (s StockSnapshot) Has(code Code) bool {
	_, ok := s[code]
	return ok
}

// Clone returns an independent copy
func (s StockSnapshot) Clone() StockSnapshot {
	out := make(StockSnapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Rounded returns a copy with every quantity rounded to places.
func (s StockSnapshot) Rounded(places int) StockSnapshot {
	out := make(StockSnapshot, len(s))
	for k, v := range s {
		out[k] = v.Round(int32(places))
	}
	return out
}

// Codes returns the RM codes in ascending order
func (s StockSnapshot) Codes() []Code {
	codes := make([]Code, 0, len(s))
	for k := range s {
		codes = append(codes, k)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// Total sums every quantity in the snapshot
func (s StockSnapshot) Total() decimal.Decimal {
	total := decimal.Zero
	for _, v := range s {
		total = total.Add(v)
	}
	return total
}

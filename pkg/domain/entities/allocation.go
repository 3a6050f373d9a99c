package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AllocationStatus is the production verdict for one finished good
type AllocationStatus int

const (
	Shortage AllocationStatus = iota
	Ready
)

// String method for AllocationStatus enum
func (s AllocationStatus) String() string {
	switch s {
	case Ready:
		return "Ready"
	case Shortage:
		return "Shortage"
	default:
		return "Unknown"
	}
}

// Label returns the status as printed in reports.
func (s AllocationStatus) Label() string {
	switch s {
	case Ready:
		return "✅ Ready"
	case Shortage:
		return "❌ Shortage"
	default:
		return "Unknown"
	}
}

// ShortageCause explains why one raw material limits a finished good.
// Missing is false for rows with an invalid requirement: they block
// production but are not counted as missing material.
type ShortageCause struct {
	RMCode  Code
	Message string
	Missing bool
}

// AllocationResult is the outcome of allocating stock to one finished good.
type AllocationResult struct {
	FGCode Code

	// ExpectedCapacity is the user target in kg; zero means automatic.
	ExpectedCapacity decimal.Decimal

	MaxBatches     int64
	MaxCapacity    decimal.Decimal
	ActualBatches  int64
	ActualCapacity decimal.Decimal
	Status         AllocationStatus
	Causes         []ShortageCause
}

// IsReady reports whether at least one batch can be produced
func (r AllocationResult) IsReady() bool {
	return r.Status == Ready
}

// MissingRMs returns the RM codes counted as missing, in formula order.
func (r AllocationResult) MissingRMs() []Code {
	var codes []Code
	for _, c := range r.Causes {
		if c.Missing {
			codes = append(codes, c.RMCode)
		}
	}
	return codes
}

// MissingCount is the number of RMs counted as missing
func (r AllocationResult) MissingCount() int {
	return len(r.MissingRMs())
}

// Messages returns every shortage explanation in formula order.
func (r AllocationResult) Messages() []string {
	msgs := make([]string, 0, len(r.Causes))
	for _, c := range r.Causes {
		msgs = append(msgs, c.Message)
	}
	return msgs
}

// ExpectedLabel renders the target capacity, or "Auto" when none was set.
func (r AllocationResult) ExpectedLabel() string {
	if !r.ExpectedCapacity.IsPositive() {
		return "Auto"
	}
	return FormatKg(r.ExpectedCapacity)
}

func (r AllocationResult) MaxLabel() string {
	return FormatKg(r.MaxCapacity)
}

func (r AllocationResult) ActualLabel() string {
	return FormatKg(r.ActualCapacity)
}

// MissingLabel renders the missing RM count as "<n> RM(s)" or "None".
func (r AllocationResult) MissingLabel() string {
	if n := r.MissingCount(); n > 0 {
		return fmt.Sprintf("%d RM(s)", n)
	}
	return "None"
}

// FGShortages is the shortage breakdown recorded for one finished good.
type FGShortages struct {
	FGCode Code
	Causes []ShortageCause
}

// ShortageLedger keeps per-FG shortage breakdowns in processing order.
type ShortageLedger []FGShortages

// Record stores the causes for fg, replacing any earlier entry.
func (l *ShortageLedger) Record(fg Code, causes []ShortageCause) {
	for i := range *l {
		if (*l)[i].FGCode == fg {
			(*l)[i].Causes = causes
			return
		}
	}
	*l = append(*l, FGShortages{FGCode: fg, Causes: causes})
}

// Lookup returns the causes recorded for fg
func (l ShortageLedger) Lookup(fg Code) ([]ShortageCause, bool) {
	for _, e := range l {
		if e.FGCode == fg {
			return e.Causes, true
		}
	}
	return nil, false
}

// WithShortages returns only the entries that carry at least one cause.
func (l ShortageLedger) WithShortages() ShortageLedger {
	var out ShortageLedger
	for _, e := range l {
		if len(e.Causes) > 0 {
			out = append(out, e)
		}
	}
	return out
}

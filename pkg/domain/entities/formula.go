package entities

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// FormulaEntry is one raw material line of a finished good recipe.
// Quantity is kilograms of RM consumed per 25 kg batch.
type FormulaEntry struct {
	FGCode   Code
	RMCode   Code
	Quantity decimal.Decimal
}

// NewFormulaEntry creates a validated FormulaEntry
func NewFormulaEntry(fg, rm Code, quantity decimal.Decimal) (*FormulaEntry, error) {
	if fg.IsEmpty() {
		return nil, fmt.Errorf("FG code cannot be empty")
	}
	if rm.IsEmpty() {
		return nil, fmt.Errorf("RM code cannot be empty")
	}
	return &FormulaEntry{FGCode: fg, RMCode: rm, Quantity: quantity}, nil
}

type formulaKey struct {
	fg Code
	rm Code
}

func (e FormulaEntry) key() formulaKey {
	return formulaKey{fg: e.FGCode, rm: e.RMCode}
}

// FormulaTable is an ordered list of formula entries.
type FormulaTable []FormulaEntry

// Clone returns an independent copy of the table
func (t FormulaTable) Clone() FormulaTable {
	if t == nil {
		return nil
	}
	out := make(FormulaTable, len(t))
	copy(out, t)
	return out
}

// MergeKeepFirst appends other to t, dropping any (FG, RM) pair already present.
// Duplicates inside either table are dropped as well; the first occurrence wins.
func (t FormulaTable) MergeKeepFirst(other FormulaTable) FormulaTable {
	seen := make(map[formulaKey]struct{}, len(t)+len(other))
	out := make(FormulaTable, 0, len(t)+len(other))
	for _, src := range []FormulaTable{t, other} {
		for _, e := range src {
			if _, dup := seen[e.key()]; dup {
				continue
			}
			seen[e.key()] = struct{}{}
			out = append(out, e)
		}
	}
	return out
}

// SumDuplicates groups rows by (FG, RM), summing quantities.
// The result is sorted by FG then RM.
func (t FormulaTable) SumDuplicates() FormulaTable {
	totals := make(map[formulaKey]decimal.Decimal, len(t))
	for _, e := range t {
		k := e.key()
		totals[k] = totals[k].Add(e.Quantity)
	}

	out := make(FormulaTable, 0, len(totals))
	for k, qty := range totals {
		out = append(out, FormulaEntry{FGCode: k.fg, RMCode: k.rm, Quantity: qty})
	}
	out.Sort()
	return out
}

// Sort orders the table by FG code then RM code
func (t FormulaTable) Sort() {
	sort.SliceStable(t, func(i, j int) bool {
		if t[i].FGCode != t[j].FGCode {
			return t[i].FGCode < t[j].FGCode
		}
		return t[i].RMCode < t[j].RMCode
	})
}

// ForFG returns the entries of one finished good in table order.
func (t FormulaTable) ForFG(fg Code) FormulaTable {
	var out FormulaTable
	for _, e := range t {
		if e.FGCode == fg {
			out = append(out, e)
		}
	}
	return out
}

// ByFG groups entries per finished good, preserving table order inside each group.
func (t FormulaTable) ByFG() map[Code]FormulaTable {
	groups := make(map[Code]FormulaTable)
	for _, e := range t {
		groups[e.FGCode] = append(groups[e.FGCode], e)
	}
	return groups
}

// FGCodes returns the distinct FG codes, sorted
func (t FormulaTable) FGCodes() []Code {
	return distinctSorted(t, func(e FormulaEntry) Code { return e.FGCode })
}

// RMCodes returns the distinct RM codes, sorted
func (t FormulaTable) RMCodes() []Code {
	return distinctSorted(t, func(e FormulaEntry) Code { return e.RMCode })
}

// Without returns the table minus every entry for the given FGs.
func (t FormulaTable) Without(fgs ...Code) FormulaTable {
	drop := make(map[Code]struct{}, len(fgs))
	for _, fg := range fgs {
		drop[fg] = struct{}{}
	}
	out := make(FormulaTable, 0, len(t))
	for _, e := range t {
		if _, ok := drop[e.FGCode]; !ok {
			out = append(out, e)
		}
	}
	return out
}

// HasFG reports whether any entry belongs to fg
func (t FormulaTable) HasFG(fg Code) bool {
	for _, e := range t {
		if e.FGCode == fg {
			return true
		}
	}
	return false
}

func distinctSorted(t FormulaTable, pick func(FormulaEntry) Code) []Code {
	seen := make(map[Code]struct{})
	var codes []Code
	for _, e := range t {
		c := pick(e)
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

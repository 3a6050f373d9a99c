package services

import (
	"github.com/vsinha/fgplan/pkg/domain/entities"
)

// RMReplacer rewrites raw material codes in formulas according to replacement rules
type RMReplacer struct {
	mapping map[entities.Code]entities.Code
}

// NewRMReplacer builds a replacer from rules. When two rules share an old
// code the later rule wins. Rules with an empty side are ignored.
func NewRMReplacer(rules []entities.ReplacementRule) *RMReplacer {
	mapping := make(map[entities.Code]entities.Code, len(rules))
	for _, rule := range rules {
		if rule.OldRMCode.IsEmpty() || rule.NewRMCode.IsEmpty() {
			continue
		}
		mapping[rule.OldRMCode] = rule.NewRMCode
	}
	return &RMReplacer{mapping: mapping}
}

// Resolve returns the replacement for rm, or rm itself.
// Replacement is applied once and is not transitive.
func (r *RMReplacer) Resolve(rm entities.Code) entities.Code {
	if replacement, ok := r.mapping[rm]; ok {
		return replacement
	}
	return rm
}

// RuleCount is the number of distinct old codes the replacer rewrites
func (r *RMReplacer) RuleCount() int {
	return len(r.mapping)
}

// Apply returns a new table with every RM code replaced. Rows that collapse
// onto the same (FG, RM) pair are summed and the result is sorted by FG then RM.
// With no rules the input is returned as an unmodified copy.
func (r *RMReplacer) Apply(formulas entities.FormulaTable) entities.FormulaTable {
	if len(r.mapping) == 0 || len(formulas) == 0 {
		return formulas.Clone()
	}

	replaced := make(entities.FormulaTable, 0, len(formulas))
	for _, e := range formulas {
		e.RMCode = r.Resolve(e.RMCode)
		replaced = append(replaced, e)
	}
	return replaced.SumDuplicates()
}

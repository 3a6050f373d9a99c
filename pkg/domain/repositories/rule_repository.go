package repositories

import "github.com/vsinha/fgplan/pkg/domain/entities"

// RuleRepository holds the replacement and dilution rule sets.
// Each load replaces the previous set of the same kind.
type RuleRepository interface {
	LoadReplacementRules(rules []entities.ReplacementRule) error
	GetReplacementRules() ([]entities.ReplacementRule, error)
	ClearReplacementRules() error

	LoadDilutionRules(rules []entities.DilutionRule) error
	GetDilutionRules() ([]entities.DilutionRule, error)
	ClearDilutionRules() error
}

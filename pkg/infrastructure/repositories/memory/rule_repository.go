package memory

import (
	"sync"

	"github.com/vsinha/fgplan/pkg/domain/entities"
	"github.com/vsinha/fgplan/pkg/domain/repositories"
)

// RuleRepository provides in-memory storage for replacement and dilution rules
type RuleRepository struct {
	mu           sync.RWMutex
	replacements []entities.ReplacementRule
	dilutions    []entities.DilutionRule
}

// NewRuleRepository creates a new in-memory rule repository
func NewRuleRepository() *RuleRepository {
	return &RuleRepository{}
}

// Verify interface compliance
var _ repositories.RuleRepository = (*RuleRepository)(nil)

func (r *RuleRepository) LoadReplacementRules(rules []entities.ReplacementRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replacements = append([]entities.ReplacementRule(nil), rules...)
	return nil
}

func (r *RuleRepository) GetReplacementRules() ([]entities.ReplacementRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]entities.ReplacementRule(nil), r.replacements...), nil
}

func (r *RuleRepository) ClearReplacementRules() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replacements = nil
	return nil
}

func (r *RuleRepository) LoadDilutionRules(rules []entities.DilutionRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dilutions = append([]entities.DilutionRule(nil), rules...)
	return nil
}

func (r *RuleRepository) GetDilutionRules() ([]entities.DilutionRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]entities.DilutionRule(nil), r.dilutions...), nil
}

func (r *RuleRepository) ClearDilutionRules() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dilutions = nil
	return nil
}

package memory

import (
	"sync"

	"github.com/vsinha/fgplan/pkg/domain/entities"
	"github.com/vsinha/fgplan/pkg/domain/repositories"
)

// FormulaRepository provides in-memory formula storage
type FormulaRepository struct {
	mu       sync.RWMutex
	formulas entities.FormulaTable
}

// NewFormulaRepository creates a new in-memory formula repository
func NewFormulaRepository() *FormulaRepository {
	return &FormulaRepository{}
}

// Verify interface compliance
var _ repositories.FormulaRepository = (*FormulaRepository)(nil)

// LoadFormulas merges entries into the table, keeping the first row for
// each (FG, RM) pair. It returns how many rows were actually added.
func (r *FormulaRepository) LoadFormulas(entries entities.FormulaTable) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	before := len(r.formulas)
	r.formulas = r.formulas.MergeKeepFirst(entries)
	return len(r.formulas) - before, nil
}

// GetAllFormulas returns a copy of the formula table
func (r *FormulaRepository) GetAllFormulas() (entities.FormulaTable, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.formulas.Clone(), nil
}

// GetFormulasForFG returns the rows of one finished good
func (r *FormulaRepository) GetFormulasForFG(fg entities.Code) (entities.FormulaTable, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.formulas.ForFG(fg), nil
}

// DeleteFGs removes every row of the given finished goods
func (r *FormulaRepository) DeleteFGs(fgs ...entities.Code) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	before := len(r.formulas)
	r.formulas = r.formulas.Without(fgs...)
	return before - len(r.formulas), nil
}

// Clear removes all formulas
func (r *FormulaRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formulas = nil
	return nil
}

package repositories

import "github.com/vsinha/fgplan/pkg/domain/entities"

// FormulaRepository provides access to finished good formulas.
// Loading merges into the existing table; the first (FG, RM) pair wins.
type FormulaRepository interface {
	LoadFormulas(entries entities.FormulaTable) (added int, err error)
	GetAllFormulas() (entities.FormulaTable, error)
	GetFormulasForFG(fg entities.Code) (entities.FormulaTable, error)
	DeleteFGs(fgs ...entities.Code) (removed int, err error)
	Clear() error
}

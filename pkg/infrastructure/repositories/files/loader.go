package files

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vsinha/fgplan/pkg/domain/entities"
	apperrors "github.com/vsinha/fgplan/pkg/errors"
	"github.com/vsinha/fgplan/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/fgplan/pkg/infrastructure/repositories/xlsx"
	"github.com/vsinha/fgplan/pkg/infrastructure/tables"
)

// ReadTable reads a .csv or .xlsx stream, picking the format from name.
func ReadTable(name string, r io.Reader) (tables.Table, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return csv.ReadTable(r)
	case ".xlsx", ".xlsm":
		return xlsx.ReadTable(r)
	default:
		return tables.Table{}, apperrors.BadRequest(fmt.Sprintf("unsupported file type %q, expected .csv or .xlsx", filepath.Ext(name)))
	}
}

// Loader reads planning inputs from files on disk
type Loader struct{}

// NewLoader creates a new file loader
func NewLoader() *Loader {
	return &Loader{}
}

func (l *Loader) open(filename string) (tables.Table, error) {
	file, err := os.Open(filename)
	if err != nil {
		return tables.Table{}, fmt.Errorf("failed to open %s: %w", filename, err)
	}
	defer file.Close()

	t, err := ReadTable(filename, file)
	if err != nil {
		return tables.Table{}, fmt.Errorf("%s: %w", filename, err)
	}
	return t, nil
}

// LoadStock loads an RM stock sheet
func (l *Loader) LoadStock(filename string) ([]entities.StockLine, error) {
	t, err := l.open(filename)
	if err != nil {
		return nil, err
	}
	lines, err := tables.ParseStock(t)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return lines, nil
}

// LoadPurchaseOrders loads an RM purchase order sheet
func (l *Loader) LoadPurchaseOrders(filename string) ([]entities.PurchaseOrderLine, error) {
	t, err := l.open(filename)
	if err != nil {
		return nil, err
	}
	lines, err := tables.ParsePurchaseOrders(t)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return lines, nil
}

// LoadFormulas loads one or more formula sheets. Later files never
// override an (FG, RM) pair already read from an earlier one.
func (l *Loader) LoadFormulas(filenames ...string) (entities.FormulaTable, error) {
	var combined entities.FormulaTable
	for _, filename := range filenames {
		t, err := l.open(filename)
		if err != nil {
			return nil, err
		}
		formulas, err := tables.ParseFormulas(t)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		combined = combined.MergeKeepFirst(formulas)
	}
	return combined, nil
}

// LoadReplacementRules loads an RM replacement rule sheet
func (l *Loader) LoadReplacementRules(filename string) ([]entities.ReplacementRule, error) {
	t, err := l.open(filename)
	if err != nil {
		return nil, err
	}
	rules, err := tables.ParseReplacementRules(t)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return rules, nil
}

// LoadDilutionRules loads an RM dilution rule sheet
func (l *Loader) LoadDilutionRules(filename string) ([]entities.DilutionRule, error) {
	t, err := l.open(filename)
	if err != nil {
		return nil, err
	}
	rules, err := tables.ParseDilutionRules(t)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return rules, nil
}

package tables

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/vsinha/fgplan/pkg/domain/entities"
	apperrors "github.com/vsinha/fgplan/pkg/errors"
)

// ParseQuantity coerces a cell to a decimal. Anything that is not a number
// becomes zero.
func ParseQuantity(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Day-first layouts tried in order. Single-digit layouts also accept two digits.
var dateLayouts = []string{
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
	"2/1/06",
	"2006-01-02",
	"2006/01/02",
	"2/1/2006 15:04",
	"2/1/2006 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2-Jan-2006",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseDate reads a day-first date, an ISO date or an Excel serial day number.
// The second result is false when the cell cannot be read as a date.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial <= 0 {
			return time.Time{}, false
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func noRows(schema Schema) error {
	return apperrors.BadRequest(fmt.Sprintf("no valid rows found in %s", schema.Name))
}

// ParseStock converts a stock sheet. Rows with an empty RM code are skipped.
func ParseStock(t Table) ([]entities.StockLine, error) {
	cols, err := StockSchema.Detect(t.Header)
	if err != nil {
		return nil, err
	}

	var lines []entities.StockLine
	for _, row := range t.Rows {
		rm := entities.NormalizeCode(Cell(row, cols[ColRMCode]))
		if rm.IsEmpty() {
			continue
		}
		lines = append(lines, entities.StockLine{
			RMCode:   rm,
			Quantity: ParseQuantity(Cell(row, cols[ColQuantity])),
		})
	}
	if len(lines) == 0 {
		return nil, noRows(StockSchema)
	}
	return lines, nil
}

// ParsePurchaseOrders converts a purchase order sheet. Rows with an empty RM
// code or an unreadable arrival date are skipped.
func ParsePurchaseOrders(t Table) ([]entities.PurchaseOrderLine, error) {
	cols, err := PurchaseOrderSchema.Detect(t.Header)
	if err != nil {
		return nil, err
	}

	var lines []entities.PurchaseOrderLine
	for _, row := range t.Rows {
		rm := entities.NormalizeCode(Cell(row, cols[ColRMCode]))
		if rm.IsEmpty() {
			continue
		}
		arrival, ok := ParseDate(Cell(row, cols[ColArrivalDate]))
		if !ok {
			continue
		}
		lines = append(lines, entities.PurchaseOrderLine{
			RMCode:      rm,
			Quantity:    ParseQuantity(Cell(row, cols[ColQuantity])),
			ArrivalDate: arrival,
		})
	}
	if len(lines) == 0 {
		return nil, noRows(PurchaseOrderSchema)
	}
	return lines, nil
}

// ParseFormulas converts a formula sheet. Rows missing either code are skipped.
func ParseFormulas(t Table) (entities.FormulaTable, error) {
	cols, err := FormulaSchema.Detect(t.Header)
	if err != nil {
		return nil, err
	}

	var formulas entities.FormulaTable
	for _, row := range t.Rows {
		fg := entities.NormalizeCode(Cell(row, cols[ColFGCode]))
		rm := entities.NormalizeCode(Cell(row, cols[ColRMCode]))
		if fg.IsEmpty() || rm.IsEmpty() {
			continue
		}
		formulas = append(formulas, entities.FormulaEntry{
			FGCode:   fg,
			RMCode:   rm,
			Quantity: ParseQuantity(Cell(row, cols[ColQuantity])),
		})
	}
	if len(formulas) == 0 {
		return nil, noRows(FormulaSchema)
	}
	return formulas, nil
}

// ParseReplacementRules converts a replacement rule sheet
func ParseReplacementRules(t Table) ([]entities.ReplacementRule, error) {
	cols, err := ReplacementSchema.Detect(t.Header)
	if err != nil {
		return nil, err
	}

	var rules []entities.ReplacementRule
	for _, row := range t.Rows {
		rule, err := entities.NewReplacementRule(
			entities.NormalizeCode(Cell(row, cols[ColOldRMCode])),
			entities.NormalizeCode(Cell(row, cols[ColNewRMCode])),
		)
		if err != nil {
			continue
		}
		rules = append(rules, *rule)
	}
	if len(rules) == 0 {
		return nil, noRows(ReplacementSchema)
	}
	return rules, nil
}

// ParseDilutionRules converts a dilution rule sheet. Rows with a
// non-positive percentage are skipped.
func ParseDilutionRules(t Table) ([]entities.DilutionRule, error) {
	cols, err := DilutionSchema.Detect(t.Header)
	if err != nil {
		return nil, err
	}

	var rules []entities.DilutionRule
	for _, row := range t.Rows {
		rule, err := entities.NewDilutionRule(
			entities.NormalizeCode(Cell(row, cols[ColRMCode])),
			entities.NormalizeCode(Cell(row, cols[ColComponentRMCode])),
			ParseQuantity(Cell(row, cols[ColPercentage])),
		)
		if err != nil {
			continue
		}
		rules = append(rules, *rule)
	}
	if len(rules) == 0 {
		return nil, noRows(DilutionSchema)
	}
	return rules, nil
}

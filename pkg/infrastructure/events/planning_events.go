package events

import "time"

const (
	SessionCreatedEvent = "session.created"

	StockLoadedEvent          = "stock.loaded"
	StockClearedEvent         = "stock.cleared"
	PurchaseOrdersLoadedEvent = "purchase_orders.loaded"
	FormulasLoadedEvent       = "formulas.loaded"
	FormulasClearedEvent      = "formulas.cleared"
	FGsDeletedEvent           = "formulas.fgs_deleted"

	ReplacementRulesLoadedEvent = "replacement_rules.loaded"
	ReplacementAppliedEvent     = "replacement.applied"
	DilutionRulesLoadedEvent    = "dilution_rules.loaded"
	DilutionAppliedEvent        = "dilution.applied"

	SelectionChangedEvent = "selection.changed"
	SettingsChangedEvent  = "settings.changed"

	PlanGeneratedEvent = "plan.generated"
)

// TableLoaded records how many rows an upload contributed
type TableLoaded struct {
	Rows  int `json:"rows"`
	Added int `json:"added,omitempty"`
}

// RulesApplied records a formula transform
type RulesApplied struct {
	Rules        int `json:"rules"`
	FormulasIn   int `json:"formulas_in"`
	FormulasOut  int `json:"formulas_out"`
	WarningCount int `json:"warning_count,omitempty"`
}

// SelectionChanged records the new FIFO order
type SelectionChanged struct {
	Order []string `json:"order"`
}

// FGsDeleted records FGs removed from the formula tables
type FGsDeleted struct {
	FGs  []string `json:"fgs"`
	Rows int      `json:"rows"`
}

// SettingsChanged records a precision or target change
type SettingsChanged struct {
	DecimalPlaces int               `json:"decimal_places"`
	Expected      map[string]string `json:"expected,omitempty"`
}

// PlanGenerated summarizes a finished planning run
type PlanGenerated struct {
	RunID         string        `json:"run_id"`
	FormulaSource string        `json:"formula_source"`
	FGs           int           `json:"fgs"`
	ReadyFGs      int           `json:"ready_fgs"`
	TotalBatches  int64         `json:"total_batches"`
	Duration      time.Duration `json:"duration_ns"`
}

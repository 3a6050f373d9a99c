package session

import (
	"fmt"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"

	"github.com/vsinha/fgplan/pkg/application/dto"
	"github.com/vsinha/fgplan/pkg/application/services/orchestration"
	"github.com/vsinha/fgplan/pkg/domain/entities"
	"github.com/vsinha/fgplan/pkg/domain/repositories"
	"github.com/vsinha/fgplan/pkg/domain/services"
	apperrors "github.com/vsinha/fgplan/pkg/errors"
	"github.com/vsinha/fgplan/pkg/infrastructure/events"
	"github.com/vsinha/fgplan/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/fgplan/pkg/logger"
)

// Session is one planner workspace: the loaded tables, the derived formula
// table and the user's selection and settings. All methods are safe for
// concurrent use.
type Session struct {
	id        string
	createdAt time.Time

	mu         sync.RWMutex
	lastAccess time.Time

	stock    repositories.StockRepository
	orders   repositories.PurchaseOrderRepository
	formulas repositories.FormulaRepository
	rules    repositories.RuleRepository

	modified           entities.FormulaTable
	replacementApplied bool
	dilutionApplied    bool

	order         entities.FIFOOrder
	expected      entities.ExpectedCapacities
	decimalPlaces int
	lastPlan      *dto.PlanResult

	events events.EventStore
	log    *logger.Logger
}

func newSession(id string, now time.Time, decimalPlaces int, store events.EventStore, log *logger.Logger) *Session {
	return &Session{
		id:            id,
		createdAt:     now,
		lastAccess:    now,
		stock:         memory.NewStockRepository(),
		orders:        memory.NewPurchaseOrderRepository(),
		formulas:      memory.NewFormulaRepository(),
		rules:         memory.NewRuleRepository(),
		expected:      entities.ExpectedCapacities{},
		decimalPlaces: entities.ClampDecimalPlaces(decimalPlaces),
		events:        store,
		log:           log.WithSession(id),
	}
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// CreatedAt returns when the session was opened
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastAccess = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastAccess
}

func (s *Session) emit(eventType string, data any) {
	if s.events == nil {
		return
	}
	if err := s.events.AppendEvent(s.id, events.NewEvent(eventType, s.id, data)); err != nil {
		s.log.Warn().Err(err).Str("event", eventType).Msg("failed to record session event")
	}
}

// LoadStock replaces the stock sheet
func (s *Session) LoadStock(lines []entities.StockLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.stock.LoadStock(lines); err != nil {
		return fmt.Errorf("failed to load stock: %w", err)
	}
	s.log.Info().Int("rows", len(lines)).Msg("stock loaded")
	s.emit(events.StockLoadedEvent, events.TableLoaded{Rows: len(lines)})
	return nil
}

// ClearStock drops the stock sheet
func (s *Session) ClearStock() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.stock.Clear(); err != nil {
		return fmt.Errorf("failed to clear stock: %w", err)
	}
	s.emit(events.StockClearedEvent, events.TableLoaded{})
	return nil
}

// LoadPurchaseOrders replaces the purchase order sheet
func (s *Session) LoadPurchaseOrders(lines []entities.PurchaseOrderLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.orders.LoadPurchaseOrders(lines); err != nil {
		return fmt.Errorf("failed to load purchase orders: %w", err)
	}
	s.log.Info().Int("rows", len(lines)).Msg("purchase orders loaded")
	s.emit(events.PurchaseOrdersLoadedEvent, events.TableLoaded{Rows: len(lines)})
	return nil
}

// ClearPurchaseOrders drops the purchase order sheet
func (s *Session) ClearPurchaseOrders() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders.Clear()
}

// LoadFormulas merges formulas into the original table. Rows whose
// (FG, RM) pair is already present are dropped. Returns the rows added.
func (s *Session) LoadFormulas(table entities.FormulaTable) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added, err := s.formulas.LoadFormulas(table)
	if err != nil {
		return 0, fmt.Errorf("failed to load formulas: %w", err)
	}
	s.log.Info().Int("rows", len(table)).Int("added", added).Msg("formulas loaded")
	s.emit(events.FormulasLoadedEvent, events.TableLoaded{Rows: len(table), Added: added})
	return added, nil
}

// ClearFormulas drops the original and modified formulas together with the
// selection and targets that referred to them.
func (s *Session) ClearFormulas() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.formulas.Clear(); err != nil {
		return fmt.Errorf("failed to clear formulas: %w", err)
	}
	s.resetModifiedLocked()
	s.order = nil
	s.expected = entities.ExpectedCapacities{}
	s.emit(events.FormulasClearedEvent, events.TableLoaded{})
	return nil
}

func (s *Session) resetModifiedLocked() {
	s.modified = nil
	s.replacementApplied = false
	s.dilutionApplied = false
}

// LoadReplacementRules replaces the replacement rule set
func (s *Session) LoadReplacementRules(rules []entities.ReplacementRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.rules.LoadReplacementRules(rules); err != nil {
		return fmt.Errorf("failed to load replacement rules: %w", err)
	}
	s.emit(events.ReplacementRulesLoadedEvent, events.TableLoaded{Rows: len(rules)})
	return nil
}

// ClearReplacementRules drops the replacement rule set
func (s *Session) ClearReplacementRules() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rules.ClearReplacementRules()
}

// LoadDilutionRules replaces the dilution rule set and returns the
// percentage warning for it, "" when every RM sums to 100.
func (s *Session) LoadDilutionRules(rules []entities.DilutionRule) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.rules.LoadDilutionRules(rules); err != nil {
		return "", fmt.Errorf("failed to load dilution rules: %w", err)
	}
	warning := orchestration.DilutionWarning(rules)
	if warning != "" {
		s.log.Warn().Msg(warning)
	}
	s.emit(events.DilutionRulesLoadedEvent, events.TableLoaded{Rows: len(rules)})
	return warning, nil
}

// ClearDilutionRules drops the dilution rule set
func (s *Session) ClearDilutionRules() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rules.ClearDilutionRules()
}

// ApplyReplacement rewrites the original formulas with the replacement
// rules. Any earlier dilution is discarded.
func (s *Session) ApplyReplacement() (events.RulesApplied, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	originals, err := s.formulas.GetAllFormulas()
	if err != nil {
		return events.RulesApplied{}, err
	}
	rules, err := s.rules.GetReplacementRules()
	if err != nil {
		return events.RulesApplied{}, err
	}
	if len(originals) == 0 || len(rules) == 0 {
		return events.RulesApplied{}, apperrors.BadRequest("load FG formulas and RM replacement rules first")
	}

	s.modified = services.NewRMReplacer(rules).Apply(originals)
	s.replacementApplied = true
	s.dilutionApplied = false

	applied := events.RulesApplied{Rules: len(rules), FormulasIn: len(originals), FormulasOut: len(s.modified)}
	s.log.Info().Int("rules", applied.Rules).Int("formulas", applied.FormulasOut).Msg("replacement applied")
	s.emit(events.ReplacementAppliedEvent, applied)
	return applied, nil
}

// ApplyDilution expands diluted RMs into their components. It builds on
// the replaced formulas when replacement was applied, otherwise on the
// originals. The returned warnings are also reported through the log.
func (s *Session) ApplyDilution() (events.RulesApplied, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := s.modified
	if !s.replacementApplied {
		originals, err := s.formulas.GetAllFormulas()
		if err != nil {
			return events.RulesApplied{}, nil, err
		}
		base = originals
	}
	rules, err := s.rules.GetDilutionRules()
	if err != nil {
		return events.RulesApplied{}, nil, err
	}
	if len(base) == 0 || len(rules) == 0 {
		return events.RulesApplied{}, nil, apperrors.BadRequest("load FG formulas and RM dilution rules first")
	}

	var warnings []string
	if w := orchestration.DilutionWarning(rules); w != "" {
		s.log.Warn().Msg(w)
		warnings = append(warnings, w)
	}

	s.modified = services.NewDiluter(rules).Apply(base)
	s.dilutionApplied = true

	applied := events.RulesApplied{
		Rules:        len(rules),
		FormulasIn:   len(base),
		FormulasOut:  len(s.modified),
		WarningCount: len(warnings),
	}
	s.log.Info().Int("rules", applied.Rules).Int("formulas", applied.FormulasOut).Msg("dilution applied")
	s.emit(events.DilutionAppliedEvent, applied)
	return applied, warnings, nil
}

// activeFormulasLocked returns the modified formulas when there are any,
// otherwise the originals, with the matching source name.
func (s *Session) activeFormulasLocked() (entities.FormulaTable, string, error) {
	if len(s.modified) > 0 {
		return s.modified.Clone(), entities.SourceModifiedFormulas, nil
	}
	originals, err := s.formulas.GetAllFormulas()
	if err != nil {
		return nil, "", err
	}
	return originals, entities.SourceOriginalFormulas, nil
}

// AvailableFGs lists the FG codes of the active formula table
func (s *Session) AvailableFGs() ([]entities.Code, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	formulas, _, err := s.activeFormulasLocked()
	if err != nil {
		return nil, err
	}
	return formulas.FGCodes(), nil
}

// Select replaces the selection. The FIFO order is rebuilt as the sorted,
// de-duplicated selection. Codes not present in the active formulas are rejected.
func (s *Session) Select(fgs []entities.Code) (entities.FIFOOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	formulas, _, err := s.activeFormulasLocked()
	if err != nil {
		return nil, err
	}
	var unknown []string
	for _, fg := range fgs {
		if !fg.IsEmpty() && !formulas.HasFG(fg) {
			unknown = append(unknown, fg.String())
		}
	}
	if len(unknown) > 0 {
		return nil, apperrors.Validation(map[string]string{
			"fg_codes": fmt.Sprintf("unknown FG codes: %v", unknown),
		})
	}

	s.setOrderLocked(entities.NewFIFOOrder(fgs))
	return append(entities.FIFOOrder(nil), s.order...), nil
}

// SelectAll selects every FG of the active formula table
func (s *Session) SelectAll() (entities.FIFOOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	formulas, _, err := s.activeFormulasLocked()
	if err != nil {
		return nil, err
	}
	s.setOrderLocked(entities.NewFIFOOrder(formulas.FGCodes()))
	return append(entities.FIFOOrder(nil), s.order...), nil
}

func (s *Session) setOrderLocked(order entities.FIFOOrder) {
	s.order = order
	codes := make([]string, 0, len(order))
	for _, c := range order {
		codes = append(codes, c.String())
	}
	s.emit(events.SelectionChangedEvent, events.SelectionChanged{Order: codes})
}

// Order returns the current FIFO order
func (s *Session) Order() entities.FIFOOrder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(entities.FIFOOrder(nil), s.order...)
}

// DeleteFGs removes FGs from the original and modified formulas, the
// selection and the capacity targets. Returns the original formula rows removed.
func (s *Session) DeleteFGs(fgs ...entities.Code) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.formulas.DeleteFGs(fgs...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete FGs: %w", err)
	}
	if len(s.modified) > 0 {
		s.modified = s.modified.Without(fgs...)
	}
	for _, fg := range fgs {
		delete(s.expected, fg)
	}
	codes := make([]string, 0, len(fgs))
	for _, fg := range fgs {
		codes = append(codes, fg.String())
	}
	s.log.Info().Strs("fgs", codes).Int("rows", removed).Msg("FGs deleted")
	s.emit(events.FGsDeletedEvent, events.FGsDeleted{FGs: codes, Rows: removed})
	s.setOrderLocked(s.order.Without(fgs...))
	return removed, nil
}

// SetExpectedCapacity sets the target kg for fg. A zero or negative value
// returns the FG to automatic mode.
func (s *Session) SetExpectedCapacity(fg entities.Code, kg decimal.Decimal) error {
	if fg.IsEmpty() {
		return apperrors.Validation(map[string]string{"fg_code": "cannot be blank"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if kg.IsPositive() {
		s.expected[fg] = kg
	} else {
		delete(s.expected, fg)
	}
	s.emitSettingsLocked()
	return nil
}

// Expected returns a copy of the capacity targets
func (s *Session) Expected() entities.ExpectedCapacities {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expected.Clone()
}

// SetDecimalPlaces changes the rounding precision, 0 to 6.
func (s *Session) SetDecimalPlaces(places int) error {
	err := validation.Validate(places,
		validation.Min(entities.MinDecimalPlaces),
		validation.Max(entities.MaxDecimalPlaces),
	)
	if err != nil {
		return apperrors.Validation(map[string]string{"decimal_places": err.Error()})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.decimalPlaces = places
	s.emitSettingsLocked()
	return nil
}

// DecimalPlaces returns the rounding precision
func (s *Session) DecimalPlaces() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.decimalPlaces
}

func (s *Session) emitSettingsLocked() {
	expected := make(map[string]string, len(s.expected))
	for fg, kg := range s.expected {
		expected[fg.String()] = kg.String()
	}
	s.emit(events.SettingsChangedEvent, events.SettingsChanged{DecimalPlaces: s.decimalPlaces, Expected: expected})
}

// Reset clears every table, rule set, selection and result. Precision is kept.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, clearFn := range []func() error{
		s.stock.Clear,
		s.orders.Clear,
		s.formulas.Clear,
		s.rules.ClearReplacementRules,
		s.rules.ClearDilutionRules,
	} {
		if err := clearFn(); err != nil {
			return fmt.Errorf("failed to reset session: %w", err)
		}
	}
	s.resetModifiedLocked()
	s.order = nil
	s.expected = entities.ExpectedCapacities{}
	s.lastPlan = nil
	s.log.Info().Msg("session reset")
	return nil
}

// Input snapshots everything a planning run needs. The returned bundle
// shares no state with the session.
func (s *Session) Input(productionDate time.Time) (entities.PlanningInput, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stock, err := s.stock.GetSnapshot()
	if err != nil {
		return entities.PlanningInput{}, err
	}
	orders, err := s.orders.GetAllPurchaseOrders()
	if err != nil {
		return entities.PlanningInput{}, err
	}
	formulas, source, err := s.activeFormulasLocked()
	if err != nil {
		return entities.PlanningInput{}, err
	}

	return entities.PlanningInput{
		Stock:          stock,
		PurchaseOrders: orders,
		Formulas:       formulas,
		FormulaSource:  source,
		Order:          append(entities.FIFOOrder(nil), s.order...),
		Expected:       s.expected.Clone(),
		DecimalPlaces:  s.decimalPlaces,
		ProductionDate: productionDate,
	}, nil
}

// Warnings returns the business warnings that apply to the active formulas
func (s *Session) Warnings() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.dilutionApplied {
		return nil
	}
	rules, err := s.rules.GetDilutionRules()
	if err != nil {
		return nil
	}
	if w := orchestration.DilutionWarning(rules); w != "" {
		return []string{w}
	}
	return nil
}

// SetLastPlan stores the most recent planning result
func (s *Session) SetLastPlan(result *dto.PlanResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPlan = result
}

// LastPlan returns the most recent planning result
func (s *Session) LastPlan() (*dto.PlanResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastPlan == nil {
		return nil, apperrors.NotFound("plan")
	}
	return s.lastPlan, nil
}

// State is a read-only overview of a session
type State struct {
	ID                 string    `json:"id"`
	CreatedAt          time.Time `json:"created_at"`
	StockRows          int       `json:"stock_rows"`
	PurchaseOrderRows  int       `json:"purchase_order_rows"`
	FormulaRows        int       `json:"formula_rows"`
	ModifiedRows       int       `json:"modified_formula_rows"`
	ReplacementRules   int       `json:"replacement_rules"`
	DilutionRules      int       `json:"dilution_rules"`
	ReplacementApplied bool      `json:"replacement_applied"`
	DilutionApplied    bool      `json:"dilution_applied"`
	FormulaSource      string    `json:"formula_source"`
	Selection          []string  `json:"selection"`
	DecimalPlaces      int       `json:"decimal_places"`
	HasPlan            bool      `json:"has_plan"`
}

// State summarizes what has been loaded
func (s *Session) State() (State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stock, err := s.stock.GetAllStock()
	if err != nil {
		return State{}, err
	}
	orders, err := s.orders.GetAllPurchaseOrders()
	if err != nil {
		return State{}, err
	}
	formulas, err := s.formulas.GetAllFormulas()
	if err != nil {
		return State{}, err
	}
	replacements, err := s.rules.GetReplacementRules()
	if err != nil {
		return State{}, err
	}
	dilutions, err := s.rules.GetDilutionRules()
	if err != nil {
		return State{}, err
	}

	source := entities.SourceOriginalFormulas
	if len(s.modified) > 0 {
		source = entities.SourceModifiedFormulas
	}
	selection := make([]string, 0, len(s.order))
	for _, c := range s.order {
		selection = append(selection, c.String())
	}

	return State{
		ID:                 s.id,
		CreatedAt:          s.createdAt,
		StockRows:          len(stock),
		PurchaseOrderRows:  len(orders),
		FormulaRows:        len(formulas),
		ModifiedRows:       len(s.modified),
		ReplacementRules:   len(replacements),
		DilutionRules:      len(dilutions),
		ReplacementApplied: s.replacementApplied,
		DilutionApplied:    s.dilutionApplied,
		FormulaSource:      source,
		Selection:          selection,
		DecimalPlaces:      s.decimalPlaces,
		HasPlan:            s.lastPlan != nil,
	}, nil
}

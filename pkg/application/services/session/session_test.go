package session

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/fgplan/pkg/domain/entities"
	apperrors "github.com/vsinha/fgplan/pkg/errors"
	"github.com/vsinha/fgplan/pkg/infrastructure/events"
	"github.com/vsinha/fgplan/pkg/logger"
)

func code(raw string) entities.Code {
	return entities.NormalizeCode(raw)
}

func kg(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func row(fg, rm, qty string) entities.FormulaEntry {
	return entities.FormulaEntry{FGCode: code(fg), RMCode: code(rm), Quantity: kg(qty)}
}

func newTestManager(t *testing.T) (*Manager, *events.InMemoryEventStore) {
	t.Helper()
	store := events.NewInMemoryEventStore(logger.Nop())
	return NewManager(logger.Nop(), store, time.Hour, 3), store
}

func loadedSession(t *testing.T) *Session {
	t.Helper()
	m, _ := newTestManager(t)
	s := m.Create()
	require.NoError(t, s.LoadStock([]entities.StockLine{
		{RMCode: code("RM1"), Quantity: kg("100")},
		{RMCode: code("RM2"), Quantity: kg("50")},
	}))
	_, err := s.LoadFormulas(entities.FormulaTable{
		row("FG1", "RM1", "2"),
		row("FG1", "OLD", "1"),
		row("FG2", "RM2", "5"),
	})
	require.NoError(t, err)
	return s
}

func TestSession_LoadFormulasKeepsFirst(t *testing.T) {
	s := loadedSession(t)

	added, err := s.LoadFormulas(entities.FormulaTable{
		row("FG1", "RM1", "9"),
		row("FG3", "RM1", "1"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	input, err := s.Input(time.Now())
	require.NoError(t, err)
	assert.True(t, input.Formulas.ForFG(code("FG1"))[0].Quantity.Equal(kg("2")))
}

func TestSession_InputRequiresParts(t *testing.T) {
	m, _ := newTestManager(t)
	s := m.Create()

	input, err := s.Input(time.Now())
	require.NoError(t, err)
	assert.Equal(t, []string{"RM Stock", "FG Formulas", "FG selection for analysis"}, input.MissingParts())
}

func TestSession_SelectBuildsSortedOrder(t *testing.T) {
	s := loadedSession(t)

	order, err := s.Select([]entities.Code{code("FG2"), code("FG1"), code("FG2")})
	require.NoError(t, err)
	assert.Equal(t, entities.FIFOOrder{code("FG1"), code("FG2")}, order)

	_, err = s.Select([]entities.Code{code("NOPE")})
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
	assert.Equal(t, order, s.Order(), "failed selection keeps the previous order")
}

func TestSession_ApplyReplacementThenDilution(t *testing.T) {
	s := loadedSession(t)

	_, err := s.ApplyReplacement()
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest), "no rules loaded yet")

	require.NoError(t, s.LoadReplacementRules([]entities.ReplacementRule{
		{OldRMCode: code("OLD"), NewRMCode: code("NEW")},
	}))
	applied, err := s.ApplyReplacement()
	require.NoError(t, err)
	assert.Equal(t, 1, applied.Rules)

	warning, err := s.LoadDilutionRules([]entities.DilutionRule{
		{RMCode: code("NEW"), ComponentRMCode: code("C1"), Percentage: kg("70")},
	})
	require.NoError(t, err)
	assert.Equal(t, "Some RMs don't sum to 100%: NEW00000", warning)

	assert.Empty(t, s.Warnings(), "warnings apply only once dilution is applied")
	_, warnings, err := s.ApplyDilution()
	require.NoError(t, err)
	assert.Len(t, warnings, 1)
	assert.Equal(t, warnings, s.Warnings())

	input, err := s.Input(time.Now())
	require.NoError(t, err)
	assert.Equal(t, entities.SourceModifiedFormulas, input.FormulaSource)

	fg1 := input.Formulas.ForFG(code("FG1"))
	rms := map[entities.Code]decimal.Decimal{}
	for _, f := range fg1 {
		rms[f.RMCode] = f.Quantity
	}
	assert.True(t, rms[code("C1")].Equal(kg("0.7")), "dilution builds on the replaced table")
	assert.NotContains(t, rms, code("NEW"))
	assert.NotContains(t, rms, code("OLD"))

	state, err := s.State()
	require.NoError(t, err)
	assert.True(t, state.ReplacementApplied)
	assert.True(t, state.DilutionApplied)

	// Reapplying replacement starts again from the originals.
	_, err = s.ApplyReplacement()
	require.NoError(t, err)
	state, err = s.State()
	require.NoError(t, err)
	assert.False(t, state.DilutionApplied)
}

func TestSession_ApplyDilutionWithoutReplacementUsesOriginals(t *testing.T) {
	s := loadedSession(t)
	_, err := s.LoadDilutionRules([]entities.DilutionRule{
		{RMCode: code("RM2"), ComponentRMCode: code("C1"), Percentage: kg("50")},
		{RMCode: code("RM2"), ComponentRMCode: code("C2"), Percentage: kg("50")},
	})
	require.NoError(t, err)

	_, warnings, err := s.ApplyDilution()
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Empty(t, s.Warnings())

	input, err := s.Input(time.Now())
	require.NoError(t, err)
	fg2 := input.Formulas.ForFG(code("FG2"))
	require.Len(t, fg2, 2)
	assert.True(t, fg2[0].Quantity.Equal(kg("2.5")))
}

func TestSession_DeleteFGs(t *testing.T) {
	s := loadedSession(t)
	_, err := s.SelectAll()
	require.NoError(t, err)
	require.NoError(t, s.SetExpectedCapacity(code("FG1"), kg("100")))

	removed, err := s.DeleteFGs(code("FG1"))
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, entities.FIFOOrder{code("FG2")}, s.Order())
	assert.Empty(t, s.Expected())

	fgs, err := s.AvailableFGs()
	require.NoError(t, err)
	assert.Equal(t, []entities.Code{code("FG2")}, fgs)
}

func TestSession_ExpectedCapacity(t *testing.T) {
	s := loadedSession(t)

	require.NoError(t, s.SetExpectedCapacity(code("FG1"), kg("250")))
	assert.True(t, s.Expected().Get(code("FG1")).Equal(kg("250")))

	require.NoError(t, s.SetExpectedCapacity(code("FG1"), decimal.Zero))
	assert.NotContains(t, s.Expected(), code("FG1"), "zero returns to auto mode")

	err := s.SetExpectedCapacity("", kg("1"))
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestSession_DecimalPlaces(t *testing.T) {
	s := loadedSession(t)
	assert.Equal(t, 3, s.DecimalPlaces())

	require.NoError(t, s.SetDecimalPlaces(0))
	assert.Equal(t, 0, s.DecimalPlaces())

	for _, bad := range []int{-1, 7} {
		err := s.SetDecimalPlaces(bad)
		assert.True(t, apperrors.Is(err, apperrors.ErrValidation), "places %d", bad)
	}
}

func TestSession_Reset(t *testing.T) {
	s := loadedSession(t)
	_, err := s.SelectAll()
	require.NoError(t, err)

	require.NoError(t, s.Reset())
	state, err := s.State()
	require.NoError(t, err)
	assert.Zero(t, state.StockRows)
	assert.Zero(t, state.FormulaRows)
	assert.Empty(t, state.Selection)
	assert.False(t, state.HasPlan)
}

func TestSession_LastPlan(t *testing.T) {
	s := loadedSession(t)
	_, err := s.LastPlan()
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestSession_RecordsEvents(t *testing.T) {
	m, store := newTestManager(t)
	s := m.Create()
	require.NoError(t, s.LoadStock([]entities.StockLine{{RMCode: code("RM1"), Quantity: kg("1")}}))

	recorded, err := store.ReadEvents(s.ID(), 0)
	require.NoError(t, err)
	require.Len(t, recorded, 2)
	assert.Equal(t, events.SessionCreatedEvent, recorded[0].Type())
	assert.Equal(t, events.StockLoadedEvent, recorded[1].Type())
}

func TestSession_LogsWithSessionID(t *testing.T) {
	var buf bytes.Buffer
	m := NewManager(logger.NewWithWriter("test", &buf), nil, 0, 3)
	s := m.Create()
	require.NoError(t, s.LoadStock([]entities.StockLine{{RMCode: code("RM1"), Quantity: kg("1")}}))

	assert.True(t, strings.Contains(buf.String(), s.ID()))
}

package orchestration

import (
	"context"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/vsinha/fgplan/pkg/application/dto"
	"github.com/vsinha/fgplan/pkg/application/services/aggregation"
	"github.com/vsinha/fgplan/pkg/application/services/allocation"
	"github.com/vsinha/fgplan/pkg/domain/entities"
	"github.com/vsinha/fgplan/pkg/domain/services"
	apperrors "github.com/vsinha/fgplan/pkg/errors"
	"github.com/vsinha/fgplan/pkg/infrastructure/events"
	"github.com/vsinha/fgplan/pkg/logger"
)

// PlanningOrchestrator coordinates formula transforms, allocation and aggregation
type PlanningOrchestrator struct {
	log         *logger.Logger
	events      events.EventStore
	companyName string
	flights     singleflight.Group
	now         func() time.Time
}

// NewPlanningOrchestrator creates a new planning orchestrator. store may be nil.
func NewPlanningOrchestrator(log *logger.Logger, store events.EventStore, companyName string) *PlanningOrchestrator {
	if log == nil {
		log = logger.Nop()
	}
	return &PlanningOrchestrator{
		log:         log.WithComponent("planning_orchestrator"),
		events:      store,
		companyName: companyName,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// FormulaPreparation is the outcome of running the formula transforms
type FormulaPreparation struct {
	Formulas           entities.FormulaTable
	Source             string
	ReplacementApplied bool
	DilutionApplied    bool
	Warnings           []string
}

// PrepareFormulas applies replacement rules and then dilution rules to the
// loaded formulas. Either rule set may be empty. The source is reported as
// modified as soon as one transform ran.
func (po *PlanningOrchestrator) PrepareFormulas(
	formulas entities.FormulaTable,
	replacements []entities.ReplacementRule,
	dilutions []entities.DilutionRule,
) FormulaPreparation {
	prep := FormulaPreparation{Formulas: formulas.Clone(), Source: entities.SourceOriginalFormulas}

	if len(replacements) > 0 {
		prep.Formulas = services.NewRMReplacer(replacements).Apply(prep.Formulas)
		prep.ReplacementApplied = true
	}
	if len(dilutions) > 0 {
		if w := DilutionWarning(dilutions); w != "" {
			po.log.Warn().Msg(w)
			prep.Warnings = append(prep.Warnings, w)
		}
		prep.Formulas = services.NewDiluter(dilutions).Apply(prep.Formulas)
		prep.DilutionApplied = true
	}
	if prep.ReplacementApplied || prep.DilutionApplied {
		prep.Source = entities.SourceModifiedFormulas
	}
	return prep
}

// DilutionWarning describes rule sets whose percentages do not sum to 100.
// It returns "" when every diluted RM is consistent.
func DilutionWarning(rules []entities.DilutionRule) string {
	deviations := services.CheckDilutionPercentages(rules)
	if len(deviations) == 0 {
		return ""
	}
	codes := make([]string, 0, len(deviations))
	for _, d := range deviations {
		codes = append(codes, d.RMCode.String())
	}
	return fmt.Sprintf("Some RMs don't sum to 100%%: %s", strings.Join(codes, ", "))
}

// RunPlanning validates input, allocates stock in FIFO order and summarizes
// the outcome. Concurrent calls for the same streamID and identical input are
// collapsed into one run and all of them receive its result. A call whose
// input differs gets its own run.
func (po *PlanningOrchestrator) RunPlanning(ctx context.Context, streamID string, input entities.PlanningInput) (*dto.PlanResult, error) {
	if missing := input.MissingParts(); len(missing) > 0 {
		return nil, apperrors.MissingInput(missing)
	}
	if err := input.Validate(); err != nil {
		var fields validation.Errors
		if apperrors.As(err, &fields) {
			return nil, apperrors.FromValidation(fields)
		}
		return nil, apperrors.Wrap(err, "VALIDATION_ERROR", "invalid planning input", 400)
	}

	ch := po.flights.DoChan(streamID+"/"+input.Fingerprint(), func() (any, error) {
		return po.plan(streamID, input), nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("planning cancelled: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			po.log.Debug().Str("stream_id", streamID).Msg("joined in-flight planning run")
		}
		return res.Val.(*dto.PlanResult), nil
	}
}

func (po *PlanningOrchestrator) plan(streamID string, input entities.PlanningInput) *dto.PlanResult {
	started := po.now()
	runID := uuid.NewString()
	log := po.log.WithRunID(runID)

	engine := allocation.NewEngineWithConfig(allocation.EngineConfig{DecimalPlaces: input.DecimalPlaces})
	run := engine.Allocate(input.Order, input.Formulas, input.Stock, input.Expected)
	summary := aggregation.NewAggregator(engine.DecimalPlaces()).
		Summarize(run, input.Formulas, input.PurchaseOrders, input.ProductionDate)

	result := &dto.PlanResult{
		RunID:       runID,
		GeneratedAt: started,
		Order:       append(entities.FIFOOrder(nil), input.Order...),
		Expected:    input.Expected.Clone(),
		Settings: dto.PlanSettings{
			DecimalPlaces:  engine.DecimalPlaces(),
			ProductionDate: input.ProductionDate,
			FormulaSource:  input.FormulaSource,
			CompanyName:    po.companyName,
		},
		Allocation: run,
		Summary:    summary,
	}
	if result.Settings.FormulaSource == "" {
		result.Settings.FormulaSource = entities.SourceOriginalFormulas
	}

	elapsed := po.now().Sub(started)
	log.Info().
		Str("stream_id", streamID).
		Int("fgs", len(run.Results)).
		Int("ready", summary.ReadyCount()).
		Int64("batches", summary.TotalBatches).
		Str("volume_kg", summary.TotalVolume.String()).
		Dur("elapsed", elapsed).
		Msg("planning run completed")

	if po.events != nil {
		event := events.NewEvent(events.PlanGeneratedEvent, streamID, events.PlanGenerated{
			RunID:         runID,
			FormulaSource: result.Settings.FormulaSource,
			FGs:           len(run.Results),
			ReadyFGs:      summary.ReadyCount(),
			TotalBatches:  summary.TotalBatches,
			Duration:      elapsed,
		})
		if err := po.events.AppendEvent(streamID, event); err != nil {
			log.Warn().Err(err).Msg("failed to record plan event")
		}
	}
	return result
}

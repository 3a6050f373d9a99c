package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vsinha/fgplan/pkg/domain/entities"
	apperrors "github.com/vsinha/fgplan/pkg/errors"
	"github.com/vsinha/fgplan/pkg/httputil"
	"github.com/vsinha/fgplan/pkg/infrastructure/tables"
	"github.com/vsinha/fgplan/pkg/interfaces/report"
)

type selectionResponse struct {
	FIFOOrder []string `json:"fifo_order"`
}

// SetSelection replaces the FGs to plan. The FIFO order is the sorted selection.
func (h *Handler) SetSelection(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	var req SelectionRequest
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	var order entities.FIFOOrder
	if req.All {
		order, err = s.SelectAll()
	} else {
		order, err = s.Select(entities.NormalizeCodes(req.FGCodes))
	}
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, selectionResponse{FIFOOrder: codeStrings(order)})
}

type deleteFGsResponse struct {
	RowsRemoved int      `json:"rows_removed"`
	FIFOOrder   []string `json:"fifo_order"`
}

// DeleteFGs removes FGs from the loaded formulas
func (h *Handler) DeleteFGs(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	var req DeleteFGsRequest
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	removed, err := s.DeleteFGs(entities.NormalizeCodes(req.FGCodes)...)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, deleteFGsResponse{RowsRemoved: removed, FIFOOrder: codeStrings(s.Order())})
}

// SetExpectedCapacity sets or clears one FG's target capacity
func (h *Handler) SetExpectedCapacity(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	var req ExpectedCapacityRequest
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := s.SetExpectedCapacity(entities.NormalizeCode(req.FGCode), req.Kg); err != nil {
		httputil.Error(w, err)
		return
	}

	expected := s.Expected()
	out := make(map[string]string, len(expected))
	for fg, kg := range expected {
		out[fg.String()] = kg.String()
	}
	httputil.JSON(w, http.StatusOK, map[string]any{"expected": out})
}

// UpdateSettings changes the decimal precision
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	var req SettingsRequest
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := s.SetDecimalPlaces(*req.DecimalPlaces); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, map[string]any{"decimal_places": s.DecimalPlaces()})
}

func (h *Handler) productionDate(raw string) time.Time {
	if d, ok := tables.ParseDate(raw); ok {
		return d
	}
	now := h.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// Plan runs the allocation for the session and keeps the result for reports
func (h *Handler) Plan(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	var req PlanRequest
	if r.ContentLength != 0 {
		if err := httputil.DecodeAndValidate(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}
	}

	input, err := s.Input(h.productionDate(req.ProductionDate))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	result, err := h.planner.RunPlanning(r.Context(), s.ID(), input)
	if err != nil {
		h.logger.Warn().Err(err).Str("session_id", s.ID()).Msg("planning failed")
		httputil.Error(w, err)
		return
	}
	// Concurrent callers may share result.
	plan := *result
	plan.Warnings = append(append([]string(nil), result.Warnings...), s.Warnings()...)
	s.SetLastPlan(&plan)

	httputil.JSON(w, http.StatusOK, report.NewView(&plan))
}

// GetPlan returns the most recent planning result
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	result, err := s.LastPlan()
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, report.NewView(result))
}

// DownloadReport renders the most recent plan as xlsx, xlsx-basic,
// xlsx-summary, pdf or html
func (h *Handler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	format, err := report.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		httputil.Error(w, apperrors.BadRequest(err.Error()))
		return
	}
	result, err := s.LastPlan()
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var buf bytes.Buffer
	if err := report.Render(&buf, format, report.NewView(result)); err != nil {
		h.logger.Error().Err(err).Str("session_id", s.ID()).Str("format", string(format)).Msg("failed to render report")
		httputil.Error(w, apperrors.Internal("failed to render report"))
		return
	}

	filename := format.FileName(result.GeneratedAt)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

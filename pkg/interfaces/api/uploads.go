package api

import (
	"net/http"

	"github.com/vsinha/fgplan/pkg/application/services/session"
	"github.com/vsinha/fgplan/pkg/domain/entities"
	apperrors "github.com/vsinha/fgplan/pkg/errors"
	"github.com/vsinha/fgplan/pkg/httputil"
	"github.com/vsinha/fgplan/pkg/infrastructure/events"
	"github.com/vsinha/fgplan/pkg/infrastructure/repositories/files"
	"github.com/vsinha/fgplan/pkg/infrastructure/tables"
)

// Upload table kinds, also the last path segment of their routes
const (
	TableStock          = "stock"
	TablePurchaseOrders = "po"
	TableFormulas       = "formulas"
	TableReplacements   = "replacements"
	TableDilutions      = "dilutions"
)

// uploadResult describes what an upload changed
type uploadResult struct {
	Table   string   `json:"table"`
	Files   int      `json:"files"`
	Rows    int      `json:"rows"`
	Added   int      `json:"added,omitempty"`
	FGs     []string `json:"fgs,omitempty"`
	Warning string   `json:"warning,omitempty"`
}

type tableKind struct {
	load  func(s *session.Session, sheets []tables.Table) (uploadResult, error)
	clear func(s *session.Session) error
}

var tableKinds = map[string]tableKind{
	TableStock:          {load: loadStock, clear: (*session.Session).ClearStock},
	TablePurchaseOrders: {load: loadPurchaseOrders, clear: (*session.Session).ClearPurchaseOrders},
	TableFormulas:       {load: loadFormulas, clear: (*session.Session).ClearFormulas},
	TableReplacements:   {load: loadReplacements, clear: (*session.Session).ClearReplacementRules},
	TableDilutions:      {load: loadDilutions, clear: (*session.Session).ClearDilutionRules},
}

// Only formulas accept several files; the other tables read the first one.

func loadStock(s *session.Session, sheets []tables.Table) (uploadResult, error) {
	lines, err := tables.ParseStock(sheets[0])
	if err != nil {
		return uploadResult{}, err
	}
	if err := s.LoadStock(lines); err != nil {
		return uploadResult{}, err
	}
	return uploadResult{Rows: len(lines)}, nil
}

func loadPurchaseOrders(s *session.Session, sheets []tables.Table) (uploadResult, error) {
	lines, err := tables.ParsePurchaseOrders(sheets[0])
	if err != nil {
		return uploadResult{}, err
	}
	if err := s.LoadPurchaseOrders(lines); err != nil {
		return uploadResult{}, err
	}
	return uploadResult{Rows: len(lines)}, nil
}

func loadFormulas(s *session.Session, sheets []tables.Table) (uploadResult, error) {
	var combined entities.FormulaTable
	for _, sheet := range sheets {
		formulas, err := tables.ParseFormulas(sheet)
		if err != nil {
			return uploadResult{}, err
		}
		combined = combined.MergeKeepFirst(formulas)
	}
	added, err := s.LoadFormulas(combined)
	if err != nil {
		return uploadResult{}, err
	}
	fgs, err := s.AvailableFGs()
	if err != nil {
		return uploadResult{}, err
	}
	return uploadResult{Rows: len(combined), Added: added, FGs: codeStrings(fgs)}, nil
}

func loadReplacements(s *session.Session, sheets []tables.Table) (uploadResult, error) {
	rules, err := tables.ParseReplacementRules(sheets[0])
	if err != nil {
		return uploadResult{}, err
	}
	if err := s.LoadReplacementRules(rules); err != nil {
		return uploadResult{}, err
	}
	return uploadResult{Rows: len(rules)}, nil
}

func loadDilutions(s *session.Session, sheets []tables.Table) (uploadResult, error) {
	rules, err := tables.ParseDilutionRules(sheets[0])
	if err != nil {
		return uploadResult{}, err
	}
	warning, err := s.LoadDilutionRules(rules)
	if err != nil {
		return uploadResult{}, err
	}
	return uploadResult{Rows: len(rules), Warning: warning}, nil
}

// readSheets parses every "file" part of a multipart request as a .csv or
// .xlsx table.
func (h *Handler) readSheets(w http.ResponseWriter, r *http.Request) ([]tables.Table, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		return nil, apperrors.BadRequest("file too large or invalid multipart form")
	}
	defer r.MultipartForm.RemoveAll()

	parts := r.MultipartForm.File["file"]
	if len(parts) == 0 {
		return nil, apperrors.Validation(map[string]string{"file": "cannot be blank"})
	}

	sheets := make([]tables.Table, 0, len(parts))
	for _, part := range parts {
		f, err := part.Open()
		if err != nil {
			return nil, apperrors.BadRequest("failed to read uploaded file " + part.Filename)
		}
		sheet, err := files.ReadTable(part.Filename, f)
		f.Close()
		if err != nil {
			return nil, err
		}
		sheets = append(sheets, sheet)
	}
	return sheets, nil
}

// Upload returns the handler that loads one kind of table into a session
func (h *Handler) Upload(table string) http.HandlerFunc {
	kind := tableKinds[table]
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := h.session(r)
		if err != nil {
			httputil.Error(w, err)
			return
		}
		sheets, err := h.readSheets(w, r)
		if err != nil {
			httputil.Error(w, err)
			return
		}

		result, err := kind.load(s, sheets)
		if err != nil {
			h.logger.Warn().Err(err).Str("session_id", s.ID()).Str("table", table).Msg("upload rejected")
			httputil.Error(w, err)
			return
		}
		result.Table = table
		result.Files = len(sheets)
		httputil.JSON(w, http.StatusOK, result)
	}
}

// Clear returns the handler that drops one kind of table from a session
func (h *Handler) Clear(table string) http.HandlerFunc {
	kind := tableKinds[table]
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := h.session(r)
		if err != nil {
			httputil.Error(w, err)
			return
		}
		if err := kind.clear(s); err != nil {
			httputil.Error(w, err)
			return
		}
		httputil.NoContent(w)
	}
}

// ApplyReplacement rewrites the original formulas with the loaded replacement rules
func (h *Handler) ApplyReplacement(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	applied, err := s.ApplyReplacement()
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, applied)
}

type dilutionResponse struct {
	events.RulesApplied
	Warnings []string `json:"warnings"`
}

// ApplyDilution expands diluted RMs into their components
func (h *Handler) ApplyDilution(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	applied, warnings, err := s.ApplyDilution()
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if warnings == nil {
		warnings = []string{}
	}
	httputil.JSON(w, http.StatusOK, dilutionResponse{RulesApplied: applied, Warnings: warnings})
}

package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/fgplan/pkg/application/services/orchestration"
	"github.com/vsinha/fgplan/pkg/application/services/session"
	"github.com/vsinha/fgplan/pkg/httputil"
	"github.com/vsinha/fgplan/pkg/infrastructure/events"
	"github.com/vsinha/fgplan/pkg/logger"
)

const (
	stockCSV    = "RM Code,Quantity\nRM1,1000\n"
	formulasCSV = "FG Code,RM Code,Quantity\nFG1,RM1,30\nFG2,RM2,5\n"
	ordersCSV   = "RM Code,Qty,Arrival Date\nRM2,1500,28/02/2024\nRM2,10,06/03/2024\n"
)

type envelope struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *httputil.ErrorBody `json:"error"`
	Meta    *httputil.Meta      `json:"meta"`
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	log := logger.Nop()
	store := events.NewInMemoryEventStore(log)
	sessions := session.NewManager(log, store, time.Hour, 3)
	planner := orchestration.NewPlanningOrchestrator(log, store, "Acme Flavours")
	h := NewHandler(sessions, planner, store, 1, log)
	return NewRouter(h, log, []string{"http://localhost:3000"})
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func upload(t *testing.T, router http.Handler, path string, files map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, content := range files {
		part, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func createSession(t *testing.T, router http.Handler) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var state map[string]any
	decode(t, rec, &state)
	return state["id"].(string)
}

func sessionPath(id, rest string) string {
	return "/api/v1/sessions/" + id + rest
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	var body map[string]any
	env := decode(t, rec, &body)
	assert.True(t, env.Success)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, map[string]any{"session.created": float64(0), "plan.generated": float64(0)}, body["events"])
}

func TestHealthCountsSessionsAndPlans(t *testing.T) {
	router := newTestRouter(t)
	id := createSession(t, router)
	createSession(t, router)
	upload(t, router, sessionPath(id, "/stock"), map[string]string{"stock.csv": stockCSV})
	upload(t, router, sessionPath(id, "/formulas"), map[string]string{"formulas.csv": formulasCSV})
	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPut, sessionPath(id, "/selection"), map[string]any{"all": true}).Code)
	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPost, sessionPath(id, "/plan"), nil).Code)

	var body struct {
		Sessions int            `json:"sessions"`
		Events   map[string]int `json:"events"`
	}
	decode(t, doJSON(t, router, http.MethodGet, "/health", nil), &body)
	assert.Equal(t, 2, body.Sessions)
	assert.Equal(t, 2, body.Events["session.created"])
	assert.Equal(t, 1, body.Events["plan.generated"])
}

func TestRequestIDIsEchoed(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}

func TestSessionLifecycle(t *testing.T) {
	router := newTestRouter(t)
	id := createSession(t, router)

	rec := doJSON(t, router, http.MethodGet, sessionPath(id, ""), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var state map[string]any
	decode(t, rec, &state)
	assert.Equal(t, id, state["id"])
	assert.Equal(t, float64(3), state["decimal_places"])

	rec = doJSON(t, router, http.MethodDelete, sessionPath(id, ""), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, sessionPath(id, ""), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decode(t, rec, nil)
	assert.False(t, env.Success)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestPlanFlow(t *testing.T) {
	router := newTestRouter(t)
	id := createSession(t, router)

	rec := upload(t, router, sessionPath(id, "/stock"), map[string]string{"stock.csv": stockCSV})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = upload(t, router, sessionPath(id, "/po"), map[string]string{"po.csv": ordersCSV})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = upload(t, router, sessionPath(id, "/formulas"), map[string]string{"formulas.csv": formulasCSV})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var loaded uploadResult
	decode(t, rec, &loaded)
	assert.Equal(t, TableFormulas, loaded.Table)
	assert.Equal(t, 2, loaded.Added)
	assert.Equal(t, []string{"FG100000", "FG200000"}, loaded.FGs)

	rec = doJSON(t, router, http.MethodPut, sessionPath(id, "/selection"), SelectionRequest{All: true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var selection selectionResponse
	decode(t, rec, &selection)
	assert.Equal(t, []string{"FG100000", "FG200000"}, selection.FIFOOrder)

	rec = doJSON(t, router, http.MethodPost, sessionPath(id, "/plan"), PlanRequest{ProductionDate: "01/03/2024"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var view map[string]any
	decode(t, rec, &view)
	assert.Equal(t, "01/03/2024", view["production_date"])
	assert.Equal(t, "Acme Flavours", view["company"])

	production := view["production"].([]any)
	require.Len(t, production, 2)
	fg1 := production[0].(map[string]any)
	assert.Equal(t, "825.0 Kg", fg1["actual"])
	assert.Equal(t, float64(33), fg1["batches"])
	assert.Equal(t, true, fg1["ready"])
	fg2 := production[1].(map[string]any)
	assert.Equal(t, false, fg2["ready"])

	rec = doJSON(t, router, http.MethodGet, sessionPath(id, "/plan"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var again map[string]any
	decode(t, rec, &again)
	assert.Equal(t, view["run_id"], again["run_id"])

	rec = doJSON(t, router, http.MethodGet, sessionPath(id, "/events"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	env := decode(t, rec, &list)
	require.NotEmpty(t, list)
	assert.Equal(t, len(list), env.Meta.Total)
	assert.Equal(t, events.SessionCreatedEvent, list[0]["type"])
	assert.Equal(t, events.PlanGeneratedEvent, list[len(list)-1]["type"])
}

func TestDownloadReport(t *testing.T) {
	router := newTestRouter(t)
	id := createSession(t, router)
	require.Equal(t, http.StatusOK, upload(t, router, sessionPath(id, "/stock"), map[string]string{"stock.csv": stockCSV}).Code)
	require.Equal(t, http.StatusOK, upload(t, router, sessionPath(id, "/formulas"), map[string]string{"f.csv": formulasCSV}).Code)

	rec := doJSON(t, router, http.MethodGet, sessionPath(id, "/plan/report.pdf"), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "no plan yet")

	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPut, sessionPath(id, "/selection"), SelectionRequest{FGCodes: []string{"FG1"}}).Code)
	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPost, sessionPath(id, "/plan"), nil).Code)

	tests := []struct {
		format      string
		contentType string
		prefix      string
	}{
		{"xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "MRP_Detailed_Report_"},
		{"xlsx-summary", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "MRP_Summary_Report_"},
		{"pdf", "application/pdf", "MRP_Production_Report_"},
		{"html", "text/html; charset=utf-8", "MRP_Production_Report_"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodGet, sessionPath(id, "/plan/report."+tt.format), nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Header().Get("Content-Disposition"), tt.prefix)
			assert.NotZero(t, rec.Body.Len())
		})
	}

	rec = doJSON(t, router, http.MethodGet, sessionPath(id, "/plan/report.docx"), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlanMissingInput(t *testing.T) {
	router := newTestRouter(t)
	id := createSession(t, router)

	rec := doJSON(t, router, http.MethodPost, sessionPath(id, "/plan"), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decode(t, rec, nil)
	assert.Equal(t, "MISSING_INPUT", env.Error.Code)
	assert.Contains(t, env.Error.Details["missing"], "RM Stock")

	rec = doJSON(t, router, http.MethodPost, sessionPath(id, "/plan"), PlanRequest{ProductionDate: "someday"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env = decode(t, rec, nil)
	assert.Contains(t, env.Error.Details, "production_date")
}

func TestUploadErrors(t *testing.T) {
	router := newTestRouter(t)
	id := createSession(t, router)

	rec := upload(t, router, sessionPath(id, "/formulas"), map[string]string{"f.csv": "Product,RM Code\nFG1,RM1\n"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decode(t, rec, nil)
	assert.Equal(t, "MISSING_COLUMNS", env.Error.Code)
	assert.Equal(t, "FG Code, Quantity", env.Error.Details["columns"])

	rec = upload(t, router, sessionPath(id, "/stock"), map[string]string{"stock.txt": stockCSV})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = upload(t, router, sessionPath(id, "/stock"), map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env = decode(t, rec, nil)
	assert.Contains(t, env.Error.Details, "file")

	req := httptest.NewRequest(http.MethodPost, sessionPath(id, "/stock"), strings.NewReader("not multipart"))
	req.Header.Set("Content-Type", "text/plain")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFormulaUploadMergesFiles(t *testing.T) {
	router := newTestRouter(t)
	id := createSession(t, router)

	rec := upload(t, router, sessionPath(id, "/formulas"), map[string]string{
		"a.csv": "FG Code,RM Code,Quantity\nFG1,RM1,30\n",
		"b.csv": "FG Code,RM Code,Quantity\nFG3,RM1,10\n",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var loaded uploadResult
	decode(t, rec, &loaded)
	assert.Equal(t, 2, loaded.Files)
	assert.Equal(t, []string{"FG100000", "FG300000"}, loaded.FGs)

	rec = doJSON(t, router, http.MethodDelete, sessionPath(id, "/formulas"), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = doJSON(t, router, http.MethodGet, sessionPath(id, ""), nil)
	var state map[string]any
	decode(t, rec, &state)
	assert.Equal(t, float64(0), state["formula_rows"])
}

func TestSelectionValidation(t *testing.T) {
	router := newTestRouter(t)
	id := createSession(t, router)
	require.Equal(t, http.StatusOK, upload(t, router, sessionPath(id, "/formulas"), map[string]string{"f.csv": formulasCSV}).Code)

	rec := doJSON(t, router, http.MethodPut, sessionPath(id, "/selection"), map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec, nil)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Details, "fg_codes")

	rec = doJSON(t, router, http.MethodPut, sessionPath(id, "/selection"), SelectionRequest{FGCodes: []string{"NOPE"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPut, sessionPath(id, "/selection"), strings.NewReader("{"))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSettingsAndExpectedCapacity(t *testing.T) {
	router := newTestRouter(t)
	id := createSession(t, router)

	rec := doJSON(t, router, http.MethodPut, sessionPath(id, "/settings"), map[string]any{"decimal_places": 7})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = doJSON(t, router, http.MethodPut, sessionPath(id, "/settings"), map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPut, sessionPath(id, "/settings"), map[string]any{"decimal_places": 0})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var settings map[string]any
	decode(t, rec, &settings)
	assert.Equal(t, float64(0), settings["decimal_places"])

	rec = doJSON(t, router, http.MethodPut, sessionPath(id, "/expected-capacity"), map[string]any{"fg_code": "FG1", "kg": 250})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var expected struct {
		Expected map[string]string `json:"expected"`
	}
	decode(t, rec, &expected)
	assert.Equal(t, map[string]string{"FG100000": "250"}, expected.Expected)

	rec = doJSON(t, router, http.MethodPut, sessionPath(id, "/expected-capacity"), map[string]any{"fg_code": "FG1", "kg": 0})
	require.Equal(t, http.StatusOK, rec.Code)
	var cleared struct {
		Expected map[string]string `json:"expected"`
	}
	decode(t, rec, &cleared)
	assert.Empty(t, cleared.Expected)

	rec = doJSON(t, router, http.MethodPut, sessionPath(id, "/expected-capacity"), map[string]any{"kg": 10})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReplacementAndDilution(t *testing.T) {
	router := newTestRouter(t)
	id := createSession(t, router)
	require.Equal(t, http.StatusOK, upload(t, router, sessionPath(id, "/stock"), map[string]string{"s.csv": "RM Code,Quantity\nC1,1000\n"}).Code)
	require.Equal(t, http.StatusOK, upload(t, router, sessionPath(id, "/formulas"), map[string]string{"f.csv": "FG Code,RM Code,Quantity\nFG1,OLD,10\n"}).Code)

	rec := doJSON(t, router, http.MethodPost, sessionPath(id, "/replacements/apply"), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "no rules loaded")

	require.Equal(t, http.StatusOK, upload(t, router, sessionPath(id, "/replacements"), map[string]string{"r.csv": "Old RM Code,New RM Code\nOLD,NEW\n"}).Code)
	rec = doJSON(t, router, http.MethodPost, sessionPath(id, "/replacements/apply"), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var applied events.RulesApplied
	decode(t, rec, &applied)
	assert.Equal(t, 1, applied.Rules)

	rec = upload(t, router, sessionPath(id, "/dilutions"), map[string]string{"d.csv": "RM Code,Component RM Code,Percentage\nNEW,C1,70\n"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var loaded uploadResult
	decode(t, rec, &loaded)
	assert.Equal(t, "Some RMs don't sum to 100%: NEW00000", loaded.Warning)

	rec = doJSON(t, router, http.MethodPost, sessionPath(id, "/dilutions/apply"), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var diluted dilutionResponse
	decode(t, rec, &diluted)
	assert.Len(t, diluted.Warnings, 1)

	rec = doJSON(t, router, http.MethodGet, sessionPath(id, ""), nil)
	var state map[string]any
	decode(t, rec, &state)
	assert.Equal(t, true, state["replacement_applied"])
	assert.Equal(t, true, state["dilution_applied"])
	assert.Equal(t, []any{"FG100000"}, state["available_fgs"])

	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPut, sessionPath(id, "/selection"), SelectionRequest{All: true}).Code)
	rec = doJSON(t, router, http.MethodPost, sessionPath(id, "/plan"), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var view map[string]any
	decode(t, rec, &view)
	assert.Equal(t, []any{"Some RMs don't sum to 100%: NEW00000"}, view["warnings"])
}

func TestDeleteFGs(t *testing.T) {
	router := newTestRouter(t)
	id := createSession(t, router)
	require.Equal(t, http.StatusOK, upload(t, router, sessionPath(id, "/formulas"), map[string]string{"f.csv": formulasCSV}).Code)
	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPut, sessionPath(id, "/selection"), SelectionRequest{All: true}).Code)

	rec := doJSON(t, router, http.MethodPost, sessionPath(id, "/formulas/delete"), DeleteFGsRequest{FGCodes: []string{"FG2"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var deleted deleteFGsResponse
	decode(t, rec, &deleted)
	assert.Equal(t, 1, deleted.RowsRemoved)
	assert.Equal(t, []string{"FG100000"}, deleted.FIFOOrder)

	rec = doJSON(t, router, http.MethodPost, sessionPath(id, "/formulas/delete"), DeleteFGsRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResetSessionKeepsPrecision(t *testing.T) {
	router := newTestRouter(t)
	id := createSession(t, router)
	require.Equal(t, http.StatusOK, upload(t, router, sessionPath(id, "/stock"), map[string]string{"s.csv": stockCSV}).Code)
	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPut, sessionPath(id, "/settings"), map[string]any{"decimal_places": 5}).Code)

	rec := doJSON(t, router, http.MethodPost, sessionPath(id, "/reset"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var state map[string]any
	decode(t, rec, &state)
	assert.Equal(t, float64(0), state["stock_rows"])
	assert.Equal(t, float64(5), state["decimal_places"])
}

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vsinha/fgplan/pkg/application/services/orchestration"
	"github.com/vsinha/fgplan/pkg/application/services/session"
	"github.com/vsinha/fgplan/pkg/domain/entities"
	apperrors "github.com/vsinha/fgplan/pkg/errors"
	"github.com/vsinha/fgplan/pkg/httputil"
	"github.com/vsinha/fgplan/pkg/infrastructure/events"
	"github.com/vsinha/fgplan/pkg/logger"
)

// Handler serves the planning workspace API
type Handler struct {
	sessions  *session.Manager
	planner   *orchestration.PlanningOrchestrator
	events    events.EventStore
	activity  *events.TypeCounter
	maxUpload int64
	logger    *logger.Logger
	now       func() time.Time
}

// NewHandler creates a new handler. maxUploadMB caps each multipart request.
func NewHandler(
	sessions *session.Manager,
	planner *orchestration.PlanningOrchestrator,
	store events.EventStore,
	maxUploadMB int64,
	log *logger.Logger,
) *Handler {
	if maxUploadMB <= 0 {
		maxUploadMB = 20
	}
	h := &Handler{
		sessions:  sessions,
		planner:   planner,
		events:    store,
		maxUpload: maxUploadMB << 20,
		logger:    log.WithComponent("api"),
		now:       time.Now,
	}
	if store != nil {
		counter := events.NewTypeCounter(events.SessionCreatedEvent, events.PlanGeneratedEvent)
		if err := store.Subscribe(counter.Types(), counter); err != nil {
			h.logger.Warn().Err(err).Msg("event counter not subscribed")
		} else {
			h.activity = counter
		}
	}
	return h
}

func (h *Handler) session(r *http.Request) (*session.Session, error) {
	return h.sessions.Get(chi.URLParam(r, "id"))
}

// sessionResponse is the session state plus the FGs that can be selected
type sessionResponse struct {
	session.State
	AvailableFGs []string `json:"available_fgs"`
}

func describe(s *session.Session) (sessionResponse, error) {
	state, err := s.State()
	if err != nil {
		return sessionResponse{}, err
	}
	fgs, err := s.AvailableFGs()
	if err != nil {
		return sessionResponse{}, err
	}
	return sessionResponse{State: state, AvailableFGs: codeStrings(fgs)}, nil
}

func codeStrings(codes []entities.Code) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		out = append(out, c.String())
	}
	return out
}

// Health reports liveness, open sessions and how many sessions and plans
// were created since startup.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	activity := map[string]int{}
	if h.activity != nil {
		activity = h.activity.Counts()
	}
	httputil.JSON(w, http.StatusOK, map[string]any{
		"status":   "healthy",
		"service":  "fgplan",
		"sessions": h.sessions.Count(),
		"events":   activity,
	})
}

// CreateSession opens a new planning workspace
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create()
	resp, err := describe(s)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, resp)
}

// GetSession returns what a session has loaded
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	resp, err := describe(s)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, resp)
}

// DeleteSession closes a workspace and drops its events
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(chi.URLParam(r, "id")); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}

// ResetSession clears every table and selection but keeps the precision
func (h *Handler) ResetSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if err := s.Reset(); err != nil {
		httputil.Error(w, err)
		return
	}
	resp, err := describe(s)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, resp)
}

// ListEvents returns the session's activity stream starting at version ?from=
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	from := 0
	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err = strconv.Atoi(raw)
		if err != nil || from < 0 {
			httputil.Error(w, apperrors.Validation(map[string]string{"from": "must be a non-negative integer"}))
			return
		}
	}

	list := []events.Event{}
	if h.events != nil {
		list, err = h.events.ReadEvents(s.ID(), from)
		if err != nil {
			httputil.Error(w, err)
			return
		}
	}
	httputil.JSONWithMeta(w, http.StatusOK, list, &httputil.Meta{Total: len(list)})
}

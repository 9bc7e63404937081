package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"cprcli/internal/config"
	apperrors "cprcli/internal/errors"
	"cprcli/internal/infrastructure"
	mw "cprcli/internal/middleware"
	"cprcli/internal/services"
)

// defaultRunListLimit is how many runs GET /api/v1/runs returns when the
// caller does not say.
const defaultRunListLimit = 20

// RunsHandler exposes run coordination over HTTP.
type RunsHandler struct {
	service *services.RunService
	respond func(w http.ResponseWriter, r *http.Request, err error)
	logger  *slog.Logger
}

// NewRunsHandler creates a new runs handler
func NewRunsHandler(service *services.RunService, logger *slog.Logger) *RunsHandler {
	return &RunsHandler{
		service: service,
		respond: mw.NewErrorResponder(logger),
		logger:  logger.With(slog.String("handler", "runs")),
	}
}

// TriggerRequest is the POST /api/v1/runs payload.
type TriggerRequest struct {
	Reports string `json:"reports,omitempty"`
}

// Bind validates the trigger payload after decoding. The reports selector
// follows the same grammar as the fetch configuration.
func (t *TriggerRequest) Bind(r *http.Request) error {
	if t.Reports == "" {
		return nil
	}
	if _, _, _, err := (config.FetchConfig{Reports: t.Reports}).ReportsRange(); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	return nil
}

// RunListResponse is the GET /api/v1/runs payload.
type RunListResponse struct {
	Runs  []services.RunRecord `json:"runs"`
	Count int                  `json:"count"`
}

// Status handles GET /api/v1/status
func (h *RunsHandler) Status(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Status())
}

// List handles GET /api/v1/runs
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.respond(w, r, apperrors.NewValidationError(
				fmt.Sprintf("limit %q is not a positive integer", raw)))
			return
		}
		limit = parsed
	}

	runs := h.service.History(limit)
	render.JSON(w, r, RunListResponse{Runs: runs, Count: len(runs)})
}

// Get handles GET /api/v1/runs/{runID}
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "runID")

	rec, err := h.service.Get(id)
	if err != nil {
		if errors.Is(err, services.ErrRunNotFound) {
			render.Render(w, r, mw.ProblemFromStatus(http.StatusNotFound,
				fmt.Sprintf("run %s not found", id), infrastructure.GetTraceID(r.Context())))
			return
		}
		h.respond(w, r, err)
		return
	}

	render.JSON(w, r, rec)
}

// Trigger handles POST /api/v1/runs
func (h *RunsHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data := &TriggerRequest{}
	if err := render.Bind(r, data); err != nil {
		if apperrors.TypeOf(err) == "" {
			err = apperrors.NewAppError(apperrors.ErrTypeValidation, "undecodable trigger request", err)
		}
		h.respond(w, r, err)
		return
	}

	req := services.RunRequest{Reports: data.Reports, Source: services.SourceAPI}
	if err := h.service.TryTrigger(ctx, req); err != nil {
		h.logger.WarnContext(ctx, "run trigger rejected",
			slog.String("reports", data.Reports),
			slog.String("error", err.Error()))
		render.Render(w, r, mw.ProblemFromStatus(http.StatusConflict,
			err.Error(), infrastructure.GetTraceID(ctx)))
		return
	}

	response := map[string]interface{}{
		"status":   "accepted",
		"message":  "Run queued for processing",
		"poll_url": config.StatusEndpoint,
	}
	if data.Reports != "" {
		response["reports"] = data.Reports
	}

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, response)
}

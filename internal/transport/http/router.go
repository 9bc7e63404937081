package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"cprcli/internal/config"
	"cprcli/internal/infrastructure"
	mw "cprcli/internal/middleware"
	"cprcli/internal/services"
)

// RouterDeps carries everything the status API needs.
type RouterDeps struct {
	Logger  *slog.Logger
	Runs    *services.RunService
	Metrics http.Handler // Prometheus scrape handler, nil disables the endpoint
	Version string
}

// Rate limit sized for operator polling, not public traffic.
const (
	apiRateLimit = 10.0
	apiRateBurst = 20
	apiTimeout   = 30 * time.Second
)

// NewRouter assembles the status API router. Middleware order matters here:
// request IDs come first so every later log line carries the trace, and the
// metrics endpoint stays outside the JSON group so scrapes skip the rate
// limiter and timeout.
func NewRouter(deps RouterDeps) chi.Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.RealIP)
	r.Use(mw.StructuredLogger(logger))
	r.Use(mw.Recoverer(logger))

	if deps.Metrics != nil {
		r.Handle(config.MetricsEndpoint, deps.Metrics)
	}

	health := NewHealthHandler(deps.Version, logger)
	r.Get(config.HealthEndpoint, health.Healthz)

	runs := NewRunsHandler(deps.Runs, logger)
	limiter := mw.NewRateLimiter(apiRateLimit, apiRateBurst, logger)

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(mw.Timeout(apiTimeout, logger))
		r.Use(limiter.Handler)

		r.Get(config.StatusEndpoint, runs.Status)
		r.Route(config.RunsEndpoint, func(r chi.Router) {
			r.Get("/", runs.List)
			r.Post("/", runs.Trigger)
			r.Get("/{runID}", runs.Get)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.Render(w, r, mw.ProblemFromStatus(http.StatusNotFound,
			"no such endpoint", infrastructure.GetTraceID(r.Context())))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		render.Render(w, r, mw.ProblemFromStatus(http.StatusMethodNotAllowed,
			r.Method+" is not supported here", infrastructure.GetTraceID(r.Context())))
	})

	return r
}

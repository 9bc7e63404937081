package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	apperrors "cprcli/internal/errors"
	"cprcli/internal/infrastructure"
)

// Problem represents an RFC 7807 problem details object
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	Trace  string `json:"trace_id,omitempty"`
}

// Render implements the chi render.Renderer interface. It only records the
// status code; chi writes the body, so handlers can pass a Problem straight
// to render.Render.
func (p Problem) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, p.Status)
	return nil
}

// writeProblem writes a problem document with the RFC 7807 media type.
func writeProblem(w http.ResponseWriter, p Problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	json.NewEncoder(w).Encode(p)
}

// NewErrorResponder creates a function handlers use to answer with an RFC
// 7807 response derived from a pipeline error.
func NewErrorResponder(logger *slog.Logger) func(w http.ResponseWriter, r *http.Request, err error) {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		ctx := r.Context()
		traceID := infrastructure.GetTraceID(ctx)

		logger.ErrorContext(ctx, "request error",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
		)

		writeProblem(w, mapErrorToProblem(err, traceID))
	}
}

// mapErrorToProblem maps pipeline errors to RFC 7807 problem details.
// Validation and input identity failures are the caller's fault; retrieval
// and schema drift mean the upstream catalog let us down; everything else
// is on us.
func mapErrorToProblem(err error, traceID string) Problem {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrTypeValidation:
		return Problem{
			Type:   "/errors/validation-failed",
			Title:  "Validation Failed",
			Status: http.StatusBadRequest,
			Detail: err.Error(),
			Trace:  traceID,
		}
	case apperrors.ErrTypeInputIdentity:
		return Problem{
			Type:   "/errors/bad-request",
			Title:  "Bad Request",
			Status: http.StatusBadRequest,
			Detail: err.Error(),
			Trace:  traceID,
		}
	case apperrors.ErrTypeRetrieval:
		return Problem{
			Type:   "/errors/upstream-unavailable",
			Title:  "Bad Gateway",
			Status: http.StatusBadGateway,
			Detail: "The report catalog is unavailable",
			Trace:  traceID,
		}
	case apperrors.ErrTypeSchemaDrift:
		return Problem{
			Type:   "/errors/schema-drift",
			Title:  "Bad Gateway",
			Status: http.StatusBadGateway,
			Detail: "The upstream report layout is no longer recognized",
			Trace:  traceID,
		}
	}

	return Problem{
		Type:   "/errors/internal-server-error",
		Title:  "Internal Server Error",
		Status: http.StatusInternalServerError,
		Detail: "An unexpected error occurred",
		Trace:  traceID,
	}
}

// ProblemFromStatus creates a Problem from an HTTP status code
func ProblemFromStatus(status int, detail string, traceID string) Problem {
	var title, problemType string

	switch status {
	case http.StatusBadRequest:
		title = "Bad Request"
		problemType = "/errors/bad-request"
	case http.StatusNotFound:
		title = "Not Found"
		problemType = "/errors/not-found"
	case http.StatusMethodNotAllowed:
		title = "Method Not Allowed"
		problemType = "/errors/method-not-allowed"
	case http.StatusConflict:
		title = "Conflict"
		problemType = "/errors/conflict"
	case http.StatusTooManyRequests:
		title = "Too Many Requests"
		problemType = "/errors/rate-limit-exceeded"
	case http.StatusInternalServerError:
		title = "Internal Server Error"
		problemType = "/errors/internal-server-error"
	case http.StatusServiceUnavailable:
		title = "Service Unavailable"
		problemType = "/errors/service-unavailable"
	case http.StatusGatewayTimeout:
		title = "Gateway Timeout"
		problemType = "/errors/gateway-timeout"
	default:
		title = http.StatusText(status)
		problemType = "/errors/unknown"
	}

	return Problem{
		Type:   problemType,
		Title:  title,
		Status: status,
		Detail: detail,
		Trace:  traceID,
	}
}

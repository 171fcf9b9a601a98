package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"qsignal/internal/access"
	apperrors "qsignal/internal/errors"
	"qsignal/internal/middleware"
	"qsignal/pkg/contracts/domain"
)

// AccessHandler exposes the access gate at the HTTP boundary.
type AccessHandler struct {
	gate   *access.Gate
	limits domain.Limits
	logger *slog.Logger
}

// NewAccessHandler creates an access handler.
func NewAccessHandler(gate *access.Gate, limits domain.Limits, logger *slog.Logger) *AccessHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccessHandler{
		gate:   gate,
		limits: limits,
		logger: logger.With(slog.String("handler", "access")),
	}
}

// AccessRequest is the credential submission payload.
type AccessRequest struct {
	AccessCode string `json:"access_code"`
}

// Bind implements render.Binder.
func (a *AccessRequest) Bind(r *http.Request) error {
	if a.AccessCode == "" {
		return errors.New("access_code is required")
	}
	return nil
}

// AccessStatusResponse reports the session's gate state and the demo
// limits for display.
type AccessStatusResponse struct {
	Authenticated bool          `json:"authenticated"`
	Limits        domain.Limits `json:"limits"`
	Timestamp     time.Time     `json:"timestamp"`
}

// Routes returns the access endpoints.
func (h *AccessHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Check)
	r.Get("/status", h.Status)
	return r
}

// Check handles POST /api/access.
func (h *AccessHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data := &AccessRequest{}
	if err := render.Bind(r, data); err != nil {
		h.logger.WarnContext(ctx, "invalid access request",
			slog.String("error", err.Error()))
		render.Render(w, r, apperrors.NewProblemDetails(
			http.StatusBadRequest,
			apperrors.TypeInvalidRequest,
			"Invalid Request",
			err.Error(),
			r.URL.Path,
		))
		return
	}

	sess := middleware.SessionFromContext(ctx)
	if err := h.gate.Check(sess, data.AccessCode); err != nil {
		render.Render(w, r, apperrors.ToProblem(err, r.URL.Path))
		return
	}

	render.JSON(w, r, AccessStatusResponse{
		Authenticated: true,
		Limits:        h.limits,
		Timestamp:     time.Now(),
	})
}

// Status handles GET /api/access/status.
func (h *AccessHandler) Status(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())

	render.JSON(w, r, AccessStatusResponse{
		Authenticated: sess != nil && sess.Authenticated(),
		Limits:        h.limits,
		Timestamp:     time.Now(),
	})
}

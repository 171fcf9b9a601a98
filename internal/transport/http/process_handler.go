package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apperrors "qsignal/internal/errors"
	"qsignal/internal/middleware"
	"qsignal/internal/services"
	"qsignal/pkg/contracts/domain"
)

// multipartOverhead is slack for form boundaries and parameter fields on
// top of the file byte ceiling.
const multipartOverhead = 64 * 1024

// ProcessHandler drives the demo pipeline over uploaded files. All routes
// assume the access middleware already admitted the session.
type ProcessHandler struct {
	service      *services.ProcessingService
	validate     *validator.Validate
	sampleRateHz float64
	logger       *slog.Logger
}

// NewProcessHandler creates a process handler. The sample rate is fixed by
// server configuration and not caller-supplied.
func NewProcessHandler(service *services.ProcessingService, sampleRateHz float64, logger *slog.Logger) *ProcessHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessHandler{
		service:      service,
		validate:     validator.New(),
		sampleRateHz: sampleRateHz,
		logger:       logger.With(slog.String("handler", "process")),
	}
}

// ProcessResponse is the JSON body returned after a pipeline run.
type ProcessResponse struct {
	Success         bool          `json:"success"`
	Watermark       string        `json:"watermark"`
	Truncation      string        `json:"truncation,omitempty"`
	Warnings        []string      `json:"warnings,omitempty"`
	OriginalPreview *domain.Table `json:"original_preview"`
	EnhancedPreview *domain.Table `json:"enhanced_preview"`
	Filename        string        `json:"filename"`
	DownloadPath    string        `json:"download_path"`
}

// Routes returns the gated processing endpoints.
func (h *ProcessHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Process)
	r.Get("/download", h.Download)
	return r
}

// Process handles POST /api/process: a multipart upload with boost, lowcut
// and highcut form parameters.
func (h *ProcessHandler) Process(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limits := h.service.Limits()

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFileBytes+multipartOverhead)
	if err := r.ParseMultipartForm(limits.MaxFileBytes + multipartOverhead); err != nil {
		h.logger.WarnContext(ctx, "multipart parse failed",
			slog.String("error", err.Error()))
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			render.Render(w, r, apperrors.ToProblem(
				fmt.Errorf("%w: request body exceeds %d bytes", apperrors.ErrFileTooLarge, maxBytesErr.Limit), r.URL.Path))
			return
		}
		render.Render(w, r, apperrors.NewProblemDetails(
			http.StatusBadRequest,
			apperrors.TypeInvalidRequest,
			"Invalid Request",
			"request body is not valid multipart form data",
			r.URL.Path,
		))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		render.Render(w, r, apperrors.NewProblemDetails(
			http.StatusBadRequest,
			apperrors.TypeInvalidRequest,
			"Invalid Request",
			"multipart field \"file\" is required",
			r.URL.Path,
		))
		return
	}
	defer file.Close()

	cfg, err := h.bindConfig(r)
	if err != nil {
		render.Render(w, r, apperrors.NewProblemDetails(
			http.StatusBadRequest,
			apperrors.TypeInvalidRequest,
			"Invalid Processing Parameters",
			err.Error(),
			r.URL.Path,
		))
		return
	}

	raw, err := io.ReadAll(file)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read upload",
			slog.String("error", err.Error()))
		render.Render(w, r, apperrors.ToProblem(err, r.URL.Path))
		return
	}

	result, err := h.service.Process(ctx, raw, header.Size, cfg)
	if err != nil {
		render.Render(w, r, apperrors.ToProblem(err, r.URL.Path))
		return
	}

	sess := middleware.SessionFromContext(ctx)
	sess.SetExport(result.Artifact)

	resp := ProcessResponse{
		Success:         true,
		Watermark:       result.Marker,
		OriginalPreview: result.OriginalPreview,
		EnhancedPreview: result.EnhancedPreview,
		Filename:        result.Artifact.Filename,
		DownloadPath:    "/api/process/download",
	}
	if result.Notice != nil {
		resp.Truncation = result.Notice.Message()
	}
	for _, warning := range result.Warnings {
		resp.Warnings = append(resp.Warnings,
			fmt.Sprintf("column %q passed through unchanged: %s", warning.Column, warning.Reason))
	}

	render.JSON(w, r, resp)
}

// Download handles GET /api/process/download: streams the last artifact
// produced in this session.
func (h *ProcessHandler) Download(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())

	artifact := sess.Export()
	if artifact == nil {
		render.Render(w, r, apperrors.ToProblem(apperrors.ErrNoExport, r.URL.Path))
		return
	}

	w.Header().Set("Content-Type", artifact.MediaType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(artifact.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(artifact.Data)
}

// bindConfig assembles and validates the per-invocation processing
// parameters from form values.
func (h *ProcessHandler) bindConfig(r *http.Request) (domain.ProcessingConfig, error) {
	var cfg domain.ProcessingConfig

	boost, err := strconv.ParseFloat(r.FormValue("boost"), 64)
	if err != nil {
		return cfg, fmt.Errorf("boost must be a number between 1.0 and 2.0")
	}
	lowcut, err := strconv.ParseFloat(r.FormValue("lowcut"), 64)
	if err != nil {
		return cfg, fmt.Errorf("lowcut must be a number between 1.0 and 20.0")
	}
	highcut, err := strconv.ParseFloat(r.FormValue("highcut"), 64)
	if err != nil {
		return cfg, fmt.Errorf("highcut must be a number between 10.0 and 50.0")
	}

	cfg = domain.ProcessingConfig{
		BoostFactor:  boost,
		LowCutHz:     lowcut,
		HighCutHz:    highcut,
		SampleRateHz: h.sampleRateHz,
	}
	if err := h.validate.Struct(cfg); err != nil {
		return cfg, fmt.Errorf("processing parameters out of range: %v", err)
	}
	return cfg, nil
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"qsignal/internal/enhance"
	"qsignal/internal/exporter"
	"qsignal/internal/validation"
	"qsignal/internal/watermark"
	"qsignal/pkg/contracts/domain"
)

// previewRows bounds the before/after comparison returned to the caller.
const previewRows = 5

// ProcessResult is the outcome of one pipeline run.
type ProcessResult struct {
	Marker          string                       `json:"watermark"`
	Notice          *validation.TruncationNotice `json:"truncation,omitempty"`
	Warnings        []enhance.ColumnWarning      `json:"warnings,omitempty"`
	OriginalPreview *domain.Table                `json:"original_preview"`
	EnhancedPreview *domain.Table                `json:"enhanced_preview"`
	Artifact        *domain.ExportArtifact       `json:"artifact"`
}

// ProcessingService runs the demo pipeline: validate the upload, enhance
// the signal columns, watermark the result, and encode it for download.
// Stages run to completion in order within one request; each consumes a
// table and produces a new one, so the original stays available for the
// before/after preview.
type ProcessingService struct {
	validator         *validation.UploadValidator
	enhancer          *enhance.Enhancer
	watermarkTemplate string
	logger            *slog.Logger
	now               func() time.Time
}

// NewProcessingService wires the pipeline stages together.
func NewProcessingService(
	validator *validation.UploadValidator,
	enhancer *enhance.Enhancer,
	watermarkTemplate string,
	logger *slog.Logger,
) *ProcessingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessingService{
		validator:         validator,
		enhancer:          enhancer,
		watermarkTemplate: watermarkTemplate,
		logger:            logger.With(slog.String("component", "processing_service")),
		now:               time.Now,
	}
}

// Limits returns the demo ceilings for display at the boundary.
func (s *ProcessingService) Limits() domain.Limits {
	return s.validator.Limits()
}

// Process runs the full pipeline over one uploaded file. Validation errors
// abort immediately; column-level transform failures degrade gracefully
// and are reported as warnings.
func (s *ProcessingService) Process(ctx context.Context, raw []byte, declaredSize int64, cfg domain.ProcessingConfig) (*ProcessResult, error) {
	start := s.now()

	validated, err := s.validator.Validate(raw, declaredSize)
	if err != nil {
		return nil, err
	}

	enhanced, warnings := s.enhancer.Enhance(validated.Table, cfg)

	stamped, marker, err := watermark.Stamp(enhanced, s.watermarkTemplate, start)
	if err != nil {
		return nil, fmt.Errorf("watermarking failed: %w", err)
	}

	artifact, err := exporter.Encode(stamped, start, s.logger)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "processing completed",
		slog.Int("rows", validated.Table.RowCount()),
		slog.Int("columns", len(validated.Table.Columns)),
		slog.Int("column_warnings", len(warnings)),
		slog.Bool("truncated", validated.Notice != nil),
		slog.Duration("elapsed", s.now().Sub(start)))

	return &ProcessResult{
		Marker:          marker,
		Notice:          validated.Notice,
		Warnings:        warnings,
		OriginalPreview: validated.Table.Head(previewRows),
		EnhancedPreview: stamped.Head(previewRows),
		Artifact:        artifact,
	}, nil
}

package validation

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"

	apperrors "qsignal/internal/errors"
	"qsignal/pkg/contracts/domain"
)

// TruncationNotice is the non-fatal warning emitted when an upload exceeds
// the row ceiling. Processing continues on the truncated table.
type TruncationNotice struct {
	KeptRows    int `json:"kept_rows"`
	DroppedRows int `json:"dropped_rows"`
}

// Message renders the notice for display.
func (n *TruncationNotice) Message() string {
	return fmt.Sprintf("demo limited to first %d rows (%d rows dropped)", n.KeptRows, n.DroppedRows)
}

// Result is a validated upload: the parsed table and, when the row ceiling
// was exceeded, a truncation notice.
type Result struct {
	Table  *domain.Table
	Notice *TruncationNotice
}

// UploadValidator enforces the demo size and row ceilings on uploaded
// tabular files before any processing occurs.
type UploadValidator struct {
	limits domain.Limits
	logger *slog.Logger
}

// NewUploadValidator creates a validator for the configured limits.
func NewUploadValidator(limits domain.Limits, logger *slog.Logger) *UploadValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadValidator{
		limits: limits,
		logger: logger.With(slog.String("component", "upload_validator")),
	}
}

// Limits returns the ceilings this validator enforces.
func (v *UploadValidator) Limits() domain.Limits {
	return v.limits
}

// Validate checks the declared size against the byte ceiling before
// touching the content, parses the bytes as header-row CSV, and truncates
// to the row ceiling. Truncation is a warning, not an error.
func (v *UploadValidator) Validate(raw []byte, declaredSize int64) (*Result, error) {
	if declaredSize > v.limits.MaxFileBytes {
		v.logger.Warn("upload rejected: size ceiling exceeded",
			slog.Int64("declared_size", declaredSize),
			slog.Int64("max_file_bytes", v.limits.MaxFileBytes))
		return nil, fmt.Errorf("%w: declared size %d exceeds limit of %d bytes",
			apperrors.ErrFileTooLarge, declaredSize, v.limits.MaxFileBytes)
	}

	table, err := parseCSV(raw)
	if err != nil {
		v.logger.Warn("upload rejected: parse failure",
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedInput, err)
	}

	result := &Result{Table: table}
	if truncated, dropped := table.Truncated(v.limits.MaxRows); dropped > 0 {
		result.Table = truncated
		result.Notice = &TruncationNotice{
			KeptRows:    v.limits.MaxRows,
			DroppedRows: dropped,
		}
		v.logger.Info("upload truncated to row ceiling",
			slog.Int("kept_rows", v.limits.MaxRows),
			slog.Int("dropped_rows", dropped))
	}

	v.logger.Debug("upload validated",
		slog.Int("columns", len(result.Table.Columns)),
		slog.Int("rows", result.Table.RowCount()))
	return result, nil
}

// parseCSV reads delimited UTF-8 text with a required header row into a
// column-oriented table.
func parseCSV(raw []byte) (*domain.Table, error) {
	reader := csv.NewReader(bytes.NewReader(raw))
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("file is empty, header row required")
	}

	header := records[0]
	if len(header) == 0 {
		return nil, fmt.Errorf("header row has no columns")
	}

	table := &domain.Table{Columns: make([]domain.Column, len(header))}
	rows := len(records) - 1
	for c, name := range header {
		cells := make([]string, rows)
		for r := 0; r < rows; r++ {
			cells[r] = records[r+1][c]
		}
		table.Columns[c] = domain.Column{Name: name, Cells: cells}
	}
	return table, nil
}

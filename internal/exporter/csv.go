package exporter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"time"

	apperrors "qsignal/internal/errors"
	"qsignal/pkg/contracts/domain"
)

const (
	// MediaType identifies the export format for delivery headers.
	MediaType = "text/csv"

	filenameTemplate = "demo_signal_enhancement_%s.csv"
	dateLayout       = "20060102"
)

// Encode serializes a table to CSV bytes with a header row matching column
// order and one record per row. Numeric cells were already rendered with a
// round-trip representation upstream, so encoding is lossless. The filename
// embeds the current date.
func Encode(table *domain.Table, now time.Time, logger *slog.Logger) (*domain.ExportArtifact, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(table.ColumnNames()); err != nil {
		return nil, fmt.Errorf("%w: header: %v", apperrors.ErrEncodingFailure, err)
	}
	for i, record := range table.Records() {
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", apperrors.ErrEncodingFailure, i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrEncodingFailure, err)
	}

	artifact := &domain.ExportArtifact{
		Data:      buf.Bytes(),
		Filename:  fmt.Sprintf(filenameTemplate, now.Format(dateLayout)),
		MediaType: MediaType,
		CreatedAt: now,
	}

	logger.Debug("table encoded for export",
		slog.String("filename", artifact.Filename),
		slog.Int("bytes", len(artifact.Data)),
		slog.Int("rows", table.RowCount()))
	return artifact, nil
}

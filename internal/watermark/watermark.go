package watermark

import (
	"fmt"
	"time"

	"qsignal/pkg/contracts/domain"
)

// ColumnName is the reserved name of the provenance column prepended to
// every exported table. Uploads must not already carry a column with this
// name.
const ColumnName = "DEMO_WATERMARK"

// timestampLayout gives second resolution in server-local time.
const timestampLayout = "2006-01-02 15:04:05"

// Stamp returns a new table with a provenance column prepended at position
// 0, every row carrying the same marker string, plus the marker itself for
// display. Given the same table and a fixed now, the output is
// deterministic.
func Stamp(table *domain.Table, labelTemplate string, now time.Time) (*domain.Table, string, error) {
	if table.HasColumn(ColumnName) {
		return nil, "", fmt.Errorf("input already contains reserved column %q", ColumnName)
	}

	marker := fmt.Sprintf(labelTemplate, now.Format(timestampLayout))

	cells := make([]string, table.RowCount())
	for i := range cells {
		cells[i] = marker
	}

	out := table.Clone()
	out.Columns = append([]domain.Column{{Name: ColumnName, Cells: cells}}, out.Columns...)
	return out, marker, nil
}

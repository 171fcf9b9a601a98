package domain

import "strings"

// TimeColumnName is the conventional name of the column that is never
// transformed. Comparison is case-insensitive.
const TimeColumnName = "Time"

// Column is a named, ordered sequence of raw cell values.
type Column struct {
	Name  string   `json:"name"`
	Cells []string `json:"cells"`
}

// Table is an ordered set of columns sharing a common row count. Pipeline
// stages treat tables as values: each stage returns a new table and leaves
// its input untouched so the caller can render a before/after comparison.
type Table struct {
	Columns []Column `json:"columns"`
}

// RowCount returns the number of rows. All columns share this count.
func (t *Table) RowCount() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Cells)
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// HasColumn reports whether a column with the exact name exists.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// IsTimeColumn reports whether name identifies the untransformed time axis.
func IsTimeColumn(name string) bool {
	return strings.EqualFold(name, TimeColumnName)
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := &Table{Columns: make([]Column, len(t.Columns))}
	for i, c := range t.Columns {
		cells := make([]string, len(c.Cells))
		copy(cells, c.Cells)
		out.Columns[i] = Column{Name: c.Name, Cells: cells}
	}
	return out
}

// Head returns a copy limited to the first n rows. For n larger than the
// row count the whole table is copied.
func (t *Table) Head(n int) *Table {
	if n > t.RowCount() {
		n = t.RowCount()
	}
	out := &Table{Columns: make([]Column, len(t.Columns))}
	for i, c := range t.Columns {
		cells := make([]string, n)
		copy(cells, c.Cells[:n])
		out.Columns[i] = Column{Name: c.Name, Cells: cells}
	}
	return out
}

// Truncated returns a copy limited to the first maxRows rows, along with
// the number of rows that were dropped.
func (t *Table) Truncated(maxRows int) (*Table, int) {
	dropped := t.RowCount() - maxRows
	if dropped <= 0 {
		return t.Clone(), 0
	}
	return t.Head(maxRows), dropped
}

// Records renders the table row-major for serialization, one record per
// row, cells ordered by column.
func (t *Table) Records() [][]string {
	rows := t.RowCount()
	records := make([][]string, rows)
	for r := 0; r < rows; r++ {
		record := make([]string, len(t.Columns))
		for c := range t.Columns {
			record[c] = t.Columns[c].Cells[r]
		}
		records[r] = record
	}
	return records
}

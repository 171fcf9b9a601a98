package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() *Table {
	return &Table{Columns: []Column{
		{Name: "Time", Cells: []string{"0", "1", "2", "3"}},
		{Name: "ch1", Cells: []string{"1.0", "2.0", "3.0", "4.0"}},
	}}
}

func TestTable_RowCount(t *testing.T) {
	assert.Equal(t, 4, sampleTable().RowCount())
	assert.Equal(t, 0, (&Table{}).RowCount())
}

func TestTable_ColumnNames(t *testing.T) {
	assert.Equal(t, []string{"Time", "ch1"}, sampleTable().ColumnNames())
}

func TestTable_HasColumn(t *testing.T) {
	tbl := sampleTable()
	assert.True(t, tbl.HasColumn("ch1"))
	assert.False(t, tbl.HasColumn("CH1"), "lookup is exact, not case-insensitive")
	assert.False(t, tbl.HasColumn("missing"))
}

func TestIsTimeColumn(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"Time", true},
		{"time", true},
		{"TIME", true},
		{"timestamp", false},
		{"ch1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTimeColumn(tt.name))
		})
	}
}

func TestTable_Clone(t *testing.T) {
	original := sampleTable()
	clone := original.Clone()

	require.Equal(t, original, clone)

	// Mutating the clone must not reach the original.
	clone.Columns[1].Cells[0] = "changed"
	clone.Columns[0].Name = "renamed"
	assert.Equal(t, "1.0", original.Columns[1].Cells[0])
	assert.Equal(t, "Time", original.Columns[0].Name)
}

func TestTable_Head(t *testing.T) {
	tbl := sampleTable()

	head := tbl.Head(2)
	assert.Equal(t, 2, head.RowCount())
	assert.Equal(t, []string{"0", "1"}, head.Columns[0].Cells)

	// n beyond the row count copies everything.
	all := tbl.Head(100)
	assert.Equal(t, 4, all.RowCount())
}

func TestTable_Truncated(t *testing.T) {
	tbl := sampleTable()

	truncated, dropped := tbl.Truncated(3)
	assert.Equal(t, 1, dropped)
	assert.Equal(t, 3, truncated.RowCount())
	assert.Equal(t, []string{"1.0", "2.0", "3.0"}, truncated.Columns[1].Cells)

	same, dropped := tbl.Truncated(10)
	assert.Zero(t, dropped)
	assert.Equal(t, tbl, same)
}

func TestTable_Records(t *testing.T) {
	records := sampleTable().Records()
	require.Len(t, records, 4)
	assert.Equal(t, []string{"0", "1.0"}, records[0])
	assert.Equal(t, []string{"3", "4.0"}, records[3])
}

package enhance

import (
	"math"
	"math/rand"
	"strconv"
	"sync"
	"testing"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design/pass"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qsignal/pkg/contracts/domain"
)

func demoConfig() domain.ProcessingConfig {
	return domain.ProcessingConfig{
		BoostFactor:  1.5,
		LowCutHz:     1.0,
		HighCutHz:    40.0,
		SampleRateHz: 256,
	}
}

func signalTable() *domain.Table {
	return &domain.Table{Columns: []domain.Column{
		{Name: "Time", Cells: []string{"0", "1", "2", "3", "4"}},
		{Name: "ch1", Cells: []string{"1.0", "2.0", "3.0", "4.0", "5.0"}},
	}}
}

func seededEnhancer(maxRows int, seed int64) *Enhancer {
	return NewEnhancer(maxRows, nil, WithSource(rand.NewSource(seed)))
}

func parseCells(t *testing.T, cells []string) []float64 {
	t.Helper()
	out := make([]float64, len(cells))
	for i, cell := range cells {
		v, err := strconv.ParseFloat(cell, 64)
		require.NoError(t, err, "cell %d should be numeric", i)
		out[i] = v
	}
	return out
}

// referenceBoosted computes the noise-free filtered-and-boosted signal the
// same way the enhancer does, for bound checks.
func referenceBoosted(signal []float64, cfg domain.ProcessingConfig) []float64 {
	sections := pass.ButterworthHP(cfg.LowCutHz, bandpassOrder, cfg.SampleRateHz)
	sections = append(sections, pass.ButterworthLP(cfg.HighCutHz, bandpassOrder, cfg.SampleRateHz)...)
	chain := biquad.NewChain(sections)

	out := make([]float64, len(signal))
	copy(out, signal)
	chain.ProcessBlock(out)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	chain.Reset()
	chain.ProcessBlock(out)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	for i := range out {
		out[i] *= cfg.BoostFactor
	}
	return out
}

func TestEnhancer_ShapePreservation(t *testing.T) {
	e := seededEnhancer(500, 1)
	input := signalTable()

	out, warnings := e.Enhance(input, demoConfig())
	assert.Empty(t, warnings)

	assert.Equal(t, input.ColumnNames(), out.ColumnNames())
	assert.Equal(t, input.RowCount(), out.RowCount())
	assert.Equal(t, input.Columns[0].Cells, out.Columns[0].Cells,
		"time column must pass through byte-identical")

	// The input table itself is untouched.
	assert.Equal(t, signalTable(), input)
}

func TestEnhancer_TimeColumnCaseInsensitive(t *testing.T) {
	e := seededEnhancer(500, 1)
	input := &domain.Table{Columns: []domain.Column{
		{Name: "TIME", Cells: []string{"0", "1", "2"}},
		{Name: "ch1", Cells: []string{"1.0", "2.0", "3.0"}},
	}}

	out, warnings := e.Enhance(input, demoConfig())
	assert.Empty(t, warnings)
	assert.Equal(t, input.Columns[0].Cells, out.Columns[0].Cells)
	assert.NotEqual(t, input.Columns[1].Cells, out.Columns[1].Cells)
}

func TestEnhancer_ColumnIsolation(t *testing.T) {
	e := seededEnhancer(500, 7)
	input := &domain.Table{Columns: []domain.Column{
		{Name: "Time", Cells: []string{"0", "1", "2", "3", "4"}},
		{Name: "ch1", Cells: []string{"1.0", "2.0", "3.0", "4.0", "5.0"}},
		{Name: "label", Cells: []string{"a", "b", "c", "d", "e"}},
		{Name: "ch2", Cells: []string{"5.0", "4.0", "3.0", "2.0", "1.0"}},
	}}

	out, warnings := e.Enhance(input, demoConfig())

	require.Len(t, warnings, 1)
	assert.Equal(t, "label", warnings[0].Column)
	assert.Contains(t, warnings[0].Reason, "non-numeric")

	// The malformed column passes through unchanged; numeric columns are
	// still transformed.
	assert.Equal(t, input.Columns[2].Cells, out.Columns[2].Cells)
	assert.NotEqual(t, input.Columns[1].Cells, out.Columns[1].Cells)
	assert.NotEqual(t, input.Columns[3].Cells, out.Columns[3].Cells)
}

func TestEnhancer_InvalidBandSurfacesPerColumn(t *testing.T) {
	e := seededEnhancer(500, 7)
	input := signalTable()

	cfg := demoConfig()
	cfg.HighCutHz = 200 // above nyquist (128)

	out, warnings := e.Enhance(input, cfg)

	require.Len(t, warnings, 1)
	assert.Equal(t, "ch1", warnings[0].Column)
	assert.Contains(t, warnings[0].Reason, "invalid band")
	assert.Equal(t, input.Columns[1].Cells, out.Columns[1].Cells)
}

func TestEnhancer_SeededDeterminism(t *testing.T) {
	first, _ := seededEnhancer(500, 42).Enhance(signalTable(), demoConfig())
	second, _ := seededEnhancer(500, 42).Enhance(signalTable(), demoConfig())
	assert.Equal(t, first, second, "same seed must reproduce the same output")

	third, _ := seededEnhancer(500, 43).Enhance(signalTable(), demoConfig())
	assert.NotEqual(t, first, third, "different seeds must diverge")
}

func TestEnhancer_NoiseBound(t *testing.T) {
	cfg := demoConfig()
	input := signalTable()
	reference := referenceBoosted([]float64{1, 2, 3, 4, 5}, cfg)
	sigma := 0.03 * stddev(reference)

	// Repeated seeds stand in for repeated runs of the unseeded path.
	for seed := int64(0); seed < 20; seed++ {
		out, warnings := seededEnhancer(500, seed).Enhance(input, cfg)
		require.Empty(t, warnings)

		values := parseCells(t, out.Columns[1].Cells)
		for i, v := range values {
			require.False(t, math.IsNaN(v) || math.IsInf(v, 0), "value %d must be finite", i)
			assert.InDelta(t, reference[i], v, 5*sigma+1e-12,
				"seed %d row %d outside the statistical bound", seed, i)
		}
	}
}

func TestEnhancer_ProcessingWindowCeiling(t *testing.T) {
	// Only the first maxRows samples are processed when an oversized table
	// reaches the enhancer; the tail passes through unchanged.
	e := seededEnhancer(3, 11)
	input := &domain.Table{Columns: []domain.Column{
		{Name: "Time", Cells: []string{"0", "1", "2", "3", "4"}},
		{Name: "ch1", Cells: []string{"1.0", "2.0", "3.0", "4.0", "5.0"}},
	}}

	out, warnings := e.Enhance(input, demoConfig())
	assert.Empty(t, warnings)

	assert.NotEqual(t, input.Columns[1].Cells[:3], out.Columns[1].Cells[:3])
	assert.Equal(t, input.Columns[1].Cells[3:], out.Columns[1].Cells[3:])
}

func TestEnhancer_ConcurrentEnhance(t *testing.T) {
	// One enhancer instance serves every request, so concurrent Enhance
	// calls share the noise source. Run under the race detector.
	e := NewEnhancer(500, nil)
	cfg := demoConfig()

	var wg sync.WaitGroup
	results := make([]*domain.Table, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, warnings := e.Enhance(signalTable(), cfg)
			assert.Empty(t, warnings)
			results[i] = out
		}(i)
	}
	wg.Wait()

	for i, out := range results {
		require.NotNil(t, out, "call %d produced no table", i)
		assert.Equal(t, []string{"Time", "ch1"}, out.ColumnNames())
		values := parseCells(t, out.Columns[1].Cells)
		for _, v := range values {
			require.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		}
	}
}

func TestStddev(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want float64
	}{
		{name: "empty", in: nil, want: 0},
		{name: "constant", in: []float64{2, 2, 2}, want: 0},
		{name: "known spread", in: []float64{1, 2, 3, 4, 5}, want: math.Sqrt(2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, stddev(tt.in), 1e-12)
		})
	}
}

func TestFormatSampleRoundTrips(t *testing.T) {
	for _, v := range []float64{0, 1.5, -3.25, 1e-9, 123456.789012345, math.Pi} {
		parsed, err := strconv.ParseFloat(formatSample(v), 64)
		require.NoError(t, err)
		assert.Equal(t, v, parsed)
	}
}

package enhance

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design/pass"

	"qsignal/pkg/contracts/domain"
)

const bandpassOrder = 4

// ColumnWarning reports a column that could not be enhanced. The column's
// values pass through unchanged and processing continues for the rest.
type ColumnWarning struct {
	Column string `json:"column"`
	Reason string `json:"reason"`
}

// lockedSource serializes access to a rand.Source. One enhancer instance
// serves every request, so the noise source must be safe for concurrent
// Enhance calls.
type lockedSource struct {
	mu  sync.Mutex
	src rand.Source
}

func (s *lockedSource) Int63() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Int63()
}

func (s *lockedSource) Seed(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.src.Seed(seed)
}

// Enhancer applies the demo transform to each signal column: a 4th-order
// Butterworth bandpass applied zero-phase, a linear boost, and additive
// Gaussian noise scaled to the boosted signal. The noise source is injected
// so tests can pin a seed; production leaves it unseeded. Every source is
// wrapped in a lock, so one Enhancer may serve concurrent requests.
type Enhancer struct {
	maxRows int
	rng     *rand.Rand
	logger  *slog.Logger
}

// Option configures an Enhancer.
type Option func(*Enhancer)

// WithSource sets the noise source. Used by tests to pin a seed.
func WithSource(src rand.Source) Option {
	return func(e *Enhancer) { e.rng = rand.New(&lockedSource{src: src}) }
}

// NewEnhancer creates an enhancer bounded by the demo row ceiling.
func NewEnhancer(maxRows int, logger *slog.Logger, opts ...Option) *Enhancer {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Enhancer{
		maxRows: maxRows,
		rng:     rand.New(&lockedSource{src: rand.NewSource(time.Now().UnixNano())}),
		logger:  logger.With(slog.String("component", "enhancer")),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enhance returns a new table with every non-time column transformed. The
// output has the same column names, order, and row count as the input.
// Failures are isolated per column: a failed column keeps its original
// values and contributes one warning.
func (e *Enhancer) Enhance(table *domain.Table, cfg domain.ProcessingConfig) (*domain.Table, []ColumnWarning) {
	out := table.Clone()
	var warnings []ColumnWarning

	for i := range out.Columns {
		col := &out.Columns[i]
		if domain.IsTimeColumn(col.Name) {
			continue
		}

		if err := e.enhanceColumn(col, cfg); err != nil {
			warnings = append(warnings, ColumnWarning{
				Column: col.Name,
				Reason: err.Error(),
			})
			// Restore the original values for this column.
			copy(col.Cells, table.Columns[i].Cells)
			e.logger.Warn("column enhancement failed, passing through unchanged",
				slog.String("column", col.Name),
				slog.String("reason", err.Error()))
		}
	}

	return out, warnings
}

// enhanceColumn transforms one column in place.
func (e *Enhancer) enhanceColumn(col *domain.Column, cfg domain.ProcessingConfig) error {
	if err := validateBand(cfg); err != nil {
		return err
	}

	// The transform never processes more than maxRows samples, even when
	// an untruncated table reaches it.
	window := len(col.Cells)
	if window > e.maxRows {
		window = e.maxRows
	}

	signal := make([]float64, window)
	for i := 0; i < window; i++ {
		v, err := strconv.ParseFloat(col.Cells[i], 64)
		if err != nil {
			return fmt.Errorf("non-numeric value %q at row %d", col.Cells[i], i+1)
		}
		signal[i] = v
	}

	filtered := bandpassZeroPhase(signal, cfg)

	boosted := filtered
	for i := range boosted {
		boosted[i] *= cfg.BoostFactor
	}

	// Noise sigma tracks the boosted signal's spread, so a higher boost
	// also means proportionally more noise.
	sigma := 0.03 * stddev(boosted)
	for i := range boosted {
		boosted[i] += e.rng.NormFloat64() * sigma
	}

	for i := 0; i < window; i++ {
		col.Cells[i] = formatSample(boosted[i])
	}
	return nil
}

// validateBand enforces 0 < lowcut < highcut < nyquist.
func validateBand(cfg domain.ProcessingConfig) error {
	nyquist := cfg.Nyquist()
	if cfg.LowCutHz <= 0 || cfg.LowCutHz >= cfg.HighCutHz || cfg.HighCutHz >= nyquist {
		return fmt.Errorf("invalid band [%g, %g] Hz for nyquist %g Hz",
			cfg.LowCutHz, cfg.HighCutHz, nyquist)
	}
	return nil
}

// bandpassZeroPhase applies a 4th-order Butterworth bandpass (highpass at
// the low cutoff cascaded with lowpass at the high cutoff) forward and
// backward so the output stays time-aligned with the input.
func bandpassZeroPhase(signal []float64, cfg domain.ProcessingConfig) []float64 {
	sections := pass.ButterworthHP(cfg.LowCutHz, bandpassOrder, cfg.SampleRateHz)
	sections = append(sections, pass.ButterworthLP(cfg.HighCutHz, bandpassOrder, cfg.SampleRateHz)...)
	chain := biquad.NewChain(sections)

	out := make([]float64, len(signal))
	copy(out, signal)

	chain.ProcessBlock(out)
	reverse(out)
	chain.Reset()
	chain.ProcessBlock(out)
	reverse(out)
	return out
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}

// stddev computes the population standard deviation.
func stddev(x []float64) float64 {
	n := float64(len(x))
	if n == 0 {
		return 0
	}
	sum, sumSq := 0.0, 0.0
	for _, v := range x {
		sum += v
		sumSq += v * v
	}
	mean := sum / n
	variance := sumSq/n - mean*mean
	if variance < 0 {
		return 0
	}
	return math.Sqrt(variance)
}

// formatSample renders a float with the shortest representation that
// round-trips exactly through strconv.ParseFloat.
func formatSample(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

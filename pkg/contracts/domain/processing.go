package domain

import "time"

// ProcessingConfig is the immutable parameter set for one enhancement run.
// It is supplied per invocation and never stored. Bounds match the demo
// sliders; the sample rate comes from server configuration, not the caller.
type ProcessingConfig struct {
	BoostFactor  float64 `json:"boost_factor" validate:"required,gte=1,lte=2"`
	LowCutHz     float64 `json:"lowcut_hz" validate:"required,gte=1,lte=20"`
	HighCutHz    float64 `json:"highcut_hz" validate:"required,gte=10,lte=50,gtfield=LowCutHz"`
	SampleRateHz float64 `json:"sample_rate_hz" validate:"required,gt=0"`
}

// Nyquist returns half the sample rate, the upper bound for cutoffs.
func (c ProcessingConfig) Nyquist() float64 {
	return 0.5 * c.SampleRateHz
}

// ExportArtifact is a downloadable rendering of a processed table.
type ExportArtifact struct {
	Data      []byte    `json:"-"`
	Filename  string    `json:"filename"`
	MediaType string    `json:"media_type"`
	CreatedAt time.Time `json:"created_at"`
}

// Limits are the process-wide demo ceilings, fixed at startup.
type Limits struct {
	MaxFileBytes int64 `json:"max_file_bytes"`
	MaxRows      int   `json:"max_rows"`
}

// Package gain provides amplitude and gain-related DSP operations.
package gain

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// MinDB is the minimum dB value (effectively -infinity)
const MinDB = -200.0

// LinearToDb converts a linear amplitude value to decibels.
// Returns MinDB for values <= 0.
func LinearToDb(linear float64) float64 {
	if linear <= 0 {
		return MinDB
	}
	return 20.0 * math.Log10(linear)
}

// DbToLinear converts a decibel value to linear amplitude.
// Values <= MinDB return 0.
func DbToLinear(db float64) float64 {
	if db <= MinDB {
		return 0
	}
	return math.Pow(10.0, db/20.0)
}

// HardClip applies hard clipping to limit signal amplitude.
func HardClip(input, threshold float32) float32 {
	if input > threshold {
		return threshold
	}
	if input < -threshold {
		return -threshold
	}
	return input
}

// Stage is a linear gain stage. Gain changes are applied as steps; callers
// only set a new gain when the controlling value actually changed.
type Stage struct {
	gain float64
}

// NewStage creates a stage at the given linear gain.
func NewStage(linear float64) *Stage {
	return &Stage{gain: linear}
}

// SetGainLinear sets the linear gain factor.
func (s *Stage) SetGainLinear(linear float64) {
	s.gain = linear
}

// Gain returns the linear gain factor.
func (s *Stage) Gain() float64 {
	return s.gain
}

// Process applies the gain to one sample.
func (s *Stage) Process(sample float32) float32 {
	return float32(float64(sample) * s.gain)
}

// ProcessBlock writes src scaled by the gain into dst - no allocations.
// dst and src may be the same slice.
func (s *Stage) ProcessBlock(dst, src []float64) {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	vecmath.ScaleBlock(dst[:n], src[:n], s.gain)
}

// Reset clears any per-stream state. The gain value itself is kept.
func (s *Stage) Reset() {}

// Package mix provides audio mixing operations.
package mix

import (
	"github.com/cwbudde/algo-vecmath"

	"github.com/justyntemme/ghostline/pkg/dsp/gain"
)

// WetDry combines an unprocessed and a processed signal through two
// independent gain stages: out = dry*Dry + wet*Wet.
type WetDry struct {
	Dry gain.Stage
	Wet gain.Stage
}

// NewWetDry creates a mixer with the given linear levels.
func NewWetDry(dry, wet float64) *WetDry {
	m := &WetDry{}
	m.Dry.SetGainLinear(dry)
	m.Wet.SetGainLinear(wet)
	return m
}

// Process mixes one sample pair.
func (m *WetDry) Process(dry, wet float32) float32 {
	return float32(float64(dry)*m.Dry.Gain() + float64(wet)*m.Wet.Gain())
}

// ProcessBlock writes the mix of dry and wet into out - no allocations.
// wet is scaled in place and used as scratch. out may alias dry.
func (m *WetDry) ProcessBlock(out, dry, wet []float64) {
	n := len(out)
	if len(dry) < n {
		n = len(dry)
	}
	if len(wet) < n {
		n = len(wet)
	}
	m.Dry.ProcessBlock(out[:n], dry[:n])
	m.Wet.ProcessBlock(wet[:n], wet[:n])
	vecmath.AddBlockInPlace(out[:n], wet[:n])
}

// Reset resets both gain stages.
func (m *WetDry) Reset() {
	m.Dry.Reset()
	m.Wet.Reset()
}

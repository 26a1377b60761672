// Package modulation provides low-frequency modulation sources.
package modulation

import "math"

// MaxRateHz is the oscillator frequency reached at a normalized rate of 1.
const MaxRateHz = 10.0

// Oscillator is a bank of sine LFO phase accumulators, one per channel.
// Each phase stays in [0, 1).
type Oscillator struct {
	phases []float64
}

// NewOscillator creates an oscillator with the given number of channels.
func NewOscillator(channels int) *Oscillator {
	o := &Oscillator{}
	o.Resize(channels)
	return o
}

// Resize sets the channel count and resets every phase to zero.
func (o *Oscillator) Resize(channels int) {
	if channels < 0 {
		channels = 0
	}
	o.phases = make([]float64, channels)
}

// Channels returns the number of phase accumulators.
func (o *Oscillator) Channels() int {
	return len(o.phases)
}

// Increment returns the per-sample phase step for a normalized rate (0-1
// mapped to 0-MaxRateHz).
func Increment(rate, sampleRate float64) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return rate * MaxRateHz / sampleRate
}

// Advance moves a channel's phase forward. The increment is always below
// one cycle per sample, so a single subtraction wraps it.
func (o *Oscillator) Advance(ch int, increment float64) {
	if ch < 0 || ch >= len(o.phases) {
		return
	}
	o.phases[ch] += increment
	if o.phases[ch] >= 1.0 {
		o.phases[ch] -= 1.0
	}
}

// Value returns sin(2π·phase) for a channel, in [-1, 1].
func (o *Oscillator) Value(ch int) float64 {
	if ch < 0 || ch >= len(o.phases) {
		return 0
	}
	return math.Sin(2.0 * math.Pi * o.phases[ch])
}

// Phase returns a channel's current phase (0-1).
func (o *Oscillator) Phase(ch int) float64 {
	if ch < 0 || ch >= len(o.phases) {
		return 0
	}
	return o.phases[ch]
}

// Reset returns every phase to zero.
func (o *Oscillator) Reset() {
	for i := range o.phases {
		o.phases[i] = 0
	}
}

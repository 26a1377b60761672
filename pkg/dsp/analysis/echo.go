package analysis

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// EchoTap is one echo found in an impulse response.
type EchoTap struct {
	// Position is the magnitude-weighted sample index of the echo. A tap
	// split across two samples by a fractional delay lands between them.
	Position float64
	// Amplitude is the summed amplitude of the samples forming the tap.
	Amplitude float64
	// Ratio is Amplitude relative to the previous tap, 0 for the first.
	Ratio float64
}

// FindEchoTaps groups consecutive samples whose magnitude exceeds threshold
// into taps. Interpolated reads spread each repeat over neighbouring
// samples; grouping restores one tap per echo. maxTaps <= 0 means no limit.
func FindEchoTaps(ir []float32, threshold float64, maxTaps int) []EchoTap {
	var taps []EchoTap

	inTap := false
	var sum, weight, weighted float64

	flush := func() {
		tap := EchoTap{Amplitude: sum}
		if weight > 0 {
			tap.Position = weighted / weight
		}
		if n := len(taps); n > 0 && taps[n-1].Amplitude != 0 {
			tap.Ratio = tap.Amplitude / taps[n-1].Amplitude
		}
		taps = append(taps, tap)
		inTap = false
		sum, weight, weighted = 0, 0, 0
	}

	for i, s := range ir {
		v := float64(s)
		if math.Abs(v) > threshold {
			inTap = true
			sum += v
			weight += math.Abs(v)
			weighted += float64(i) * math.Abs(v)
			continue
		}
		if inTap {
			flush()
			if maxTaps > 0 && len(taps) >= maxTaps {
				return taps
			}
		}
	}
	if inTap && (maxTaps <= 0 || len(taps) < maxTaps) {
		flush()
	}
	return taps
}

// DecayRatio returns the mean ratio between successive taps, or 0 when
// there are fewer than two.
func DecayRatio(taps []EchoTap) float64 {
	if len(taps) < 2 {
		return 0
	}
	var total float64
	for _, tap := range taps[1:] {
		total += tap.Ratio
	}
	return total / float64(len(taps)-1)
}

// Spacing returns the mean distance in samples between successive taps.
func Spacing(taps []EchoTap) float64 {
	if len(taps) < 2 {
		return 0
	}
	return (taps[len(taps)-1].Position - taps[0].Position) / float64(len(taps)-1)
}

// Energy returns the sum of squares of samples.
func Energy(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	squares := make([]float64, len(samples))
	vecmath.MulBlock(squares, samples, samples)

	var total float64
	for _, sq := range squares {
		total += sq
	}
	return total
}

// ToFloat64 widens src into dst over their common length.
func ToFloat64(dst []float64, src []float32) {
	n := min(len(dst), len(src))
	for i := 0; i < n; i++ {
		dst[i] = float64(src[i])
	}
}

package param

import "math"

// rampDecay is ln(1000): after the ramp time the remaining distance to the
// target is below -60 dB of the original jump.
const rampDecay = 6.907755278982137

// Smoother ramps a control value towards its target with a one-pole
// exponential approach, one step per sample.
//
// Next must be called exactly once per sample of the stream it follows.
// Reset may only be called while processing is stopped.
type Smoother struct {
	current     float64
	target      float64
	coeff       float64
	threshold   float64
	isSmoothing bool
}

// NewSmoother creates a smoother ramping over rampSeconds at sampleRate.
func NewSmoother(sampleRate, rampSeconds float64) *Smoother {
	s := &Smoother{threshold: 1e-7}
	s.Reset(sampleRate, rampSeconds)
	return s
}

// Reset reconfigures the ramp speed and finishes any ramp in progress.
func (s *Smoother) Reset(sampleRate, rampSeconds float64) {
	rampSamples := sampleRate * rampSeconds
	if rampSamples <= 1 || math.IsNaN(rampSamples) || math.IsInf(rampSamples, 0) {
		s.coeff = 0 // jump straight to the target
	} else {
		s.coeff = math.Exp(-rampDecay / rampSamples)
	}
	if s.threshold == 0 {
		s.threshold = 1e-7
	}
	s.current = s.target
	s.isSmoothing = false
}

// SetCurrentAndTarget jumps to value without ramping.
func (s *Smoother) SetCurrentAndTarget(value float64) {
	s.current = value
	s.target = value
	s.isSmoothing = false
}

// SetTarget sets the target value for smoothing. Setting the same target
// again does not disturb the ramp in progress.
func (s *Smoother) SetTarget(target float64) {
	if target == s.target {
		return
	}
	s.target = target
	s.isSmoothing = s.current != target
}

// Next advances one sample and returns the smoothed value.
func (s *Smoother) Next() float64 {
	if !s.isSmoothing {
		return s.current
	}

	// One-pole filter: y = y + a * (x - y)
	s.current += (s.target - s.current) * (1.0 - s.coeff)

	if math.Abs(s.current-s.target) < s.threshold {
		s.current = s.target
		s.isSmoothing = false
	}

	return s.current
}

// Current returns the value without advancing.
func (s *Smoother) Current() float64 {
	return s.current
}

// Target returns the value being approached.
func (s *Smoother) Target() float64 {
	return s.target
}

// IsSmoothing returns true if the smoother is currently smoothing.
func (s *Smoother) IsSmoothing() bool {
	return s.isSmoothing
}

// StepBound returns the largest per-sample change a jump of the given size
// can produce.
func (s *Smoother) StepBound(jump float64) float64 {
	return math.Abs(jump) * (1.0 - s.coeff)
}

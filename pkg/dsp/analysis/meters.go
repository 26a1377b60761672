package analysis

import (
	"math"
	"sync"

	"github.com/justyntemme/ghostline/pkg/dsp/gain"
)

// PeakMeter measures peak signal levels
type PeakMeter struct {
	peak       float64
	hold       float64
	holdTime   float64
	decayRate  float64
	sampleRate float64
	holdCount  int
	mu         sync.Mutex
}

// NewPeakMeter creates a new peak meter
func NewPeakMeter(sampleRate float64) *PeakMeter {
	return &PeakMeter{
		sampleRate: sampleRate,
		holdTime:   3.0,  // 3 seconds default
		decayRate:  20.0, // 20 dB/second
	}
}

// SetHoldTime sets the peak hold time in seconds
func (pm *PeakMeter) SetHoldTime(seconds float64) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.holdTime = seconds
}

// Process updates the meter with a block of samples.
func (pm *PeakMeter) Process(samples []float32) {
	blockPeak := 0.0
	for _, sample := range samples {
		if abs := math.Abs(float64(sample)); abs > blockPeak {
			blockPeak = abs
		}
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()

	decayPerSample := pm.decayRate / pm.sampleRate / 20.0 * math.Ln10
	pm.peak *= math.Exp(-decayPerSample * float64(len(samples)))
	if blockPeak > pm.peak {
		pm.peak = blockPeak
	}

	if blockPeak > pm.hold {
		pm.hold = blockPeak
		pm.holdCount = int(pm.holdTime * pm.sampleRate)
	} else {
		pm.holdCount -= len(samples)
		if pm.holdCount <= 0 {
			pm.hold = pm.peak
			pm.holdCount = 0
		}
	}
}

// Peak returns the current peak level (linear)
func (pm *PeakMeter) Peak() float64 {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return pm.peak
}

// PeakDB returns the current peak level in decibels
func (pm *PeakMeter) PeakDB() float64 {
	return gain.LinearToDb(pm.Peak())
}

// Hold returns the held peak level (linear)
func (pm *PeakMeter) Hold() float64 {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return pm.hold
}

// HoldDB returns the held peak level in decibels
func (pm *PeakMeter) HoldDB() float64 {
	return gain.LinearToDb(pm.Hold())
}

// Reset clears the peak and hold values
func (pm *PeakMeter) Reset() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.peak = 0
	pm.hold = 0
	pm.holdCount = 0
}

// RMSMeter measures RMS (Root Mean Square) levels over a sliding window.
type RMSMeter struct {
	buffer   []float64
	writePos int
	sum      float64
	count    int
	mu       sync.Mutex
}

// NewRMSMeter creates a new RMS meter with specified window size
func NewRMSMeter(windowSizeSamples int) *RMSMeter {
	return &RMSMeter{
		buffer: make([]float64, max(1, windowSizeSamples)),
	}
}

// Process updates the RMS meter with new samples
func (rm *RMSMeter) Process(samples []float32) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	for _, sample := range samples {
		s := float64(sample)
		old := rm.buffer[rm.writePos]
		rm.sum += s*s - old*old
		rm.buffer[rm.writePos] = s

		rm.writePos++
		if rm.writePos == len(rm.buffer) {
			rm.writePos = 0
		}
		if rm.count < len(rm.buffer) {
			rm.count++
		}
	}
	// running sums drift below zero on silence
	if rm.sum < 0 {
		rm.sum = 0
	}
}

// RMS returns the current RMS level (linear)
func (rm *RMSMeter) RMS() float64 {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.count == 0 {
		return 0
	}
	return math.Sqrt(rm.sum / float64(rm.count))
}

// RMSDB returns the current RMS level in decibels
func (rm *RMSMeter) RMSDB() float64 {
	return gain.LinearToDb(rm.RMS())
}

// Reset clears the RMS buffer
func (rm *RMSMeter) Reset() {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	clear(rm.buffer)
	rm.sum = 0
	rm.count = 0
	rm.writePos = 0
}

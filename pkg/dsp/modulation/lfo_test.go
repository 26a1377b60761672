package modulation

import (
	"math"
	"testing"
)

func TestIncrement(t *testing.T) {
	tests := []struct {
		name       string
		rate       float64
		sampleRate float64
		expected   float64
	}{
		{"Half rate at 44.1k", 0.5, 44100, 5.0 / 44100},
		{"Full rate at 48k", 1.0, 48000, 10.0 / 48000},
		{"Stopped", 0, 48000, 0},
		{"Invalid sample rate", 1, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Increment(tt.rate, tt.sampleRate); math.Abs(got-tt.expected) > 1e-15 {
				t.Errorf("Increment(%f, %f) = %g, want %g", tt.rate, tt.sampleRate, got, tt.expected)
			}
		})
	}
}

func TestOscillatorValues(t *testing.T) {
	osc := NewOscillator(1)

	testCases := []struct {
		name      string
		phase     float64
		expected  float64
		tolerance float64
	}{
		{"sine at 0.25", 0.25, 1.0, 1e-9},
		{"sine at 0.5", 0.5, 0.0, 1e-9},
		{"sine at 0.75", 0.75, -1.0, 1e-9},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			osc.Reset()
			osc.Advance(0, tc.phase)
			if got := osc.Value(0); math.Abs(got-tc.expected) > tc.tolerance {
				t.Errorf("Value at phase %f = %f, want %f", tc.phase, got, tc.expected)
			}
		})
	}
}

func TestOscillatorWrap(t *testing.T) {
	osc := NewOscillator(2)
	inc := Increment(1.0, 1000) // 0.01 per sample

	for i := 0; i < 250; i++ {
		osc.Advance(0, inc)
		p := osc.Phase(0)
		if p < 0 || p >= 1 {
			t.Fatalf("Sample %d: phase %f escaped [0, 1)", i, p)
		}
	}
	if math.Abs(osc.Phase(0)-0.5) > 1e-9 {
		t.Errorf("Expected phase 0.5 after 2.5 cycles, got %f", osc.Phase(0))
	}
	if osc.Phase(1) != 0 {
		t.Error("Channels must advance independently")
	}
}

func TestOscillatorFrequency(t *testing.T) {
	// 5 Hz at 1 kHz: one cycle every 200 samples
	osc := NewOscillator(1)
	inc := Increment(0.5, 1000)

	crossings := 0
	prev := osc.Value(0)
	for i := 0; i < 1000; i++ {
		osc.Advance(0, inc)
		v := osc.Value(0)
		if prev < 0 && v >= 0 {
			crossings++
		}
		prev = v
	}
	if crossings < 4 || crossings > 5 {
		t.Errorf("Expected ~5 rising zero crossings in one second, got %d", crossings)
	}
}

func TestOscillatorOutOfRangeChannel(t *testing.T) {
	osc := NewOscillator(2)
	osc.Advance(5, 0.5)
	if osc.Value(5) != 0 || osc.Phase(-1) != 0 {
		t.Error("Unknown channels should read as zero")
	}
	if osc.Channels() != 2 {
		t.Errorf("Expected 2 channels, got %d", osc.Channels())
	}
}

package utility

import (
	"math"
	"testing"
)

func TestScaleParameter(t *testing.T) {
	tests := []struct {
		name       string
		normalized float64
		min        float64
		max        float64
		expected   float64
	}{
		{"Zero to min", 0.0, 0.01, 1.0, 0.01},
		{"One to max", 1.0, 0.01, 1.0, 1.0},
		{"Half", 0.5, 0.0, 0.95, 0.475},
		{"Quarter", 0.25, 0.0, 100.0, 25.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ScaleParameter(tt.normalized, tt.min, tt.max)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("ScaleParameter(%f, %f, %f) = %f, want %f",
					tt.normalized, tt.min, tt.max, result, tt.expected)
			}
			back := UnscaleParameter(result, tt.min, tt.max)
			if math.Abs(back-tt.normalized) > 1e-9 {
				t.Errorf("UnscaleParameter(%f) = %f, want %f", result, back, tt.normalized)
			}
		})
	}
}

func TestUnscaleParameterDegenerateRange(t *testing.T) {
	if got := UnscaleParameter(3, 1, 1); got != 0 {
		t.Errorf("expected 0 for empty range, got %f", got)
	}
}

func TestClampParameter(t *testing.T) {
	if got := ClampParameter(1.2, 0, 0.95); got != 0.95 {
		t.Errorf("expected upper clamp, got %f", got)
	}
	if got := ClampParameter(-0.1, 0, 0.95); got != 0 {
		t.Errorf("expected lower clamp, got %f", got)
	}
	if got := ClampParameter(0.5, 0, 0.95); got != 0.5 {
		t.Errorf("expected value untouched, got %f", got)
	}
}

func TestSkewRoundTrip(t *testing.T) {
	for _, skew := range []float64{0.3, 1.0, 2.0} {
		for _, n := range []float64{0, 0.1, 0.25, 0.5, 0.9, 1} {
			p := SkewParameter(n, skew)
			if p < 0 || p > 1 {
				t.Fatalf("skew %f: proportion %f out of range", skew, p)
			}
			back := UnskewParameter(p, skew)
			if math.Abs(back-n) > 1e-9 {
				t.Errorf("skew %f: round trip of %f gave %f", skew, n, back)
			}
		}
	}

	// A skew below one compresses the top of the plain range.
	if SkewParameter(0.5, 0.3) >= 0.5 {
		t.Error("skew 0.3 should map the normalized midpoint below the plain midpoint")
	}
}

func TestSnapParameter(t *testing.T) {
	tests := []struct {
		value, min, step, want float64
	}{
		{0.304, 0.01, 0.01, 0.30},
		{0.306, 0.01, 0.01, 0.31},
		{0.5, 0, 0, 0.5},
	}
	for _, tt := range tests {
		got := SnapParameter(tt.value, tt.min, tt.step)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("SnapParameter(%f, %f, %f) = %f, want %f", tt.value, tt.min, tt.step, got, tt.want)
		}
	}
}

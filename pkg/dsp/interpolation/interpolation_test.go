package interpolation

import (
	"math"
	"testing"
)

func TestLinear(t *testing.T) {
	tests := []struct {
		name     string
		y0, y1   float32
		frac     float32
		expected float32
	}{
		{"Start", 1, 3, 0, 1},
		{"End", 1, 3, 1, 3},
		{"Middle", 1, 3, 0.5, 2},
		{"Quarter", 0, 1, 0.25, 0.25},
		{"Descending", 1, -1, 0.75, -0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Linear(tt.y0, tt.y1, tt.frac)
			if math.Abs(float64(got-tt.expected)) > 1e-6 {
				t.Errorf("Linear(%f, %f, %f) = %f, want %f", tt.y0, tt.y1, tt.frac, got, tt.expected)
			}
		})
	}
}

func TestLinearEndpointsExact(t *testing.T) {
	// Integer positions must reproduce the stored sample exactly
	if Linear(0.123, 0.987, 0) != 0.123 {
		t.Error("frac 0 should return y0 exactly")
	}
	if Linear(0.123, 0.987, 1) != 0.987 {
		t.Error("frac 1 should return y1 exactly")
	}
}

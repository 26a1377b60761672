package debug

import (
	"bytes"
	"math"
	"strings"
	"testing"
)

func TestAudioAnalyzer(t *testing.T) {
	analyzer := NewAudioAnalyzer()

	t.Run("Sine", func(t *testing.T) {
		buffer := make([]float32, 1000)
		for i := range buffer {
			buffer[i] = 0.5 * float32(math.Sin(2*math.Pi*float64(i)/100))
		}
		result := analyzer.Analyze(buffer)
		if math.Abs(float64(result.Peak)-0.5) > 0.001 {
			t.Errorf("Expected peak 0.5, got %f", result.Peak)
		}
		if math.Abs(float64(result.RMS)-0.5/math.Sqrt2) > 0.001 {
			t.Errorf("Expected RMS %f, got %f", 0.5/math.Sqrt2, result.RMS)
		}
		if result.Silent || result.Clipping || result.HasNaN {
			t.Errorf("Unexpected flags %+v", result)
		}
	})

	t.Run("Silence", func(t *testing.T) {
		result := analyzer.Analyze(make([]float32, 64))
		if !result.Silent {
			t.Error("Zero buffer should be silent")
		}
	})

	t.Run("ClippingAndNaN", func(t *testing.T) {
		buffer := []float32{1.0, -1.2, float32(math.NaN()), float32(math.Inf(1)), 0}
		result := analyzer.Analyze(buffer)
		if !result.Clipping || result.ClippedSamples != 2 {
			t.Errorf("Expected 2 clipped samples, got %d", result.ClippedSamples)
		}
		if !result.HasNaN || result.NaNCount != 2 {
			t.Errorf("Expected 2 non-finite samples, got %d", result.NaNCount)
		}
		issues := CheckBuffer(buffer, "out")
		if len(issues) < 3 {
			t.Errorf("Expected NaN, clipping and peak issues, got %v", issues)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		if r := analyzer.Analyze(nil); r.Peak != 0 || r.RMS != 0 {
			t.Error("Empty buffer should produce zero result")
		}
	})
}

func TestAnalysisMerge(t *testing.T) {
	analyzer := NewAudioAnalyzer()
	a := []float32{0.5, 0.5}
	b := []float32{-1, -1, -1, -1}

	merged := analyzer.Analyze(a).Merge(analyzer.Analyze(b), len(a), len(b))
	whole := analyzer.Analyze(append(append([]float32{}, a...), b...))

	if merged.Peak != whole.Peak || merged.ClippedSamples != whole.ClippedSamples {
		t.Errorf("Merged %+v differs from whole %+v", merged, whole)
	}
	if math.Abs(float64(merged.RMS-whole.RMS)) > 1e-6 || math.Abs(float64(merged.DC-whole.DC)) > 1e-6 {
		t.Errorf("Merged levels %+v differ from whole %+v", merged, whole)
	}
}

func TestLogBufferStats(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "info")
	if err != nil {
		t.Fatal(err)
	}
	LogBufferStats(logger, "render", AnalysisResult{Peak: 0.25, RMS: 0.1})
	if !strings.Contains(buf.String(), "buffer=render") || !strings.Contains(buf.String(), "peak=0.250") {
		t.Errorf("Unexpected log output %q", buf.String())
	}
}

package debug

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// AudioAnalyzer provides utilities for analyzing audio buffers.
type AudioAnalyzer struct {
	clippingThreshold float32
	dcThreshold       float32
	silenceThreshold  float32
}

// NewAudioAnalyzer creates a new audio analyzer with default settings.
func NewAudioAnalyzer() *AudioAnalyzer {
	return &AudioAnalyzer{
		clippingThreshold: 0.99,
		dcThreshold:       0.01,
		silenceThreshold:  0.0001,
	}
}

// AnalysisResult contains the results of audio buffer analysis.
type AnalysisResult struct {
	Peak           float32
	RMS            float32
	DC             float32
	Clipping       bool
	ClippedSamples int
	Silent         bool
	HasNaN         bool
	NaNCount       int
}

// Analyze performs analysis on an audio buffer. NaN and Inf samples are
// counted and excluded from the level statistics.
func (a *AudioAnalyzer) Analyze(buffer []float32) AnalysisResult {
	result := AnalysisResult{}

	if len(buffer) == 0 {
		return result
	}

	var sum, sumSquares float64
	valid := 0

	for _, sample := range buffer {
		if math.IsNaN(float64(sample)) || math.IsInf(float64(sample), 0) {
			result.HasNaN = true
			result.NaNCount++
			continue
		}
		valid++

		absSample := sample
		if absSample < 0 {
			absSample = -absSample
		}
		if absSample > result.Peak {
			result.Peak = absSample
		}
		if absSample >= a.clippingThreshold {
			result.Clipping = true
			result.ClippedSamples++
		}

		sum += float64(sample)
		sumSquares += float64(sample) * float64(sample)
	}

	if valid > 0 {
		result.RMS = float32(math.Sqrt(sumSquares / float64(valid)))
		result.DC = float32(sum / float64(valid))
	}
	result.Silent = result.RMS < a.silenceThreshold

	return result
}

// Merge folds another result into r, as if both buffers had been analyzed
// together. RMS and DC are weighted by the sample counts.
func (r AnalysisResult) Merge(other AnalysisResult, n, otherN int) AnalysisResult {
	out := r
	if other.Peak > out.Peak {
		out.Peak = other.Peak
	}
	out.Clipping = r.Clipping || other.Clipping
	out.ClippedSamples += other.ClippedSamples
	out.HasNaN = r.HasNaN || other.HasNaN
	out.NaNCount += other.NaNCount
	if total := n + otherN; total > 0 {
		ms := (float64(r.RMS)*float64(r.RMS)*float64(n) + float64(other.RMS)*float64(other.RMS)*float64(otherN)) / float64(total)
		out.RMS = float32(math.Sqrt(ms))
		out.DC = float32((float64(r.DC)*float64(n) + float64(other.DC)*float64(otherN)) / float64(total))
	}
	out.Silent = r.Silent && other.Silent
	return out
}

// CheckBuffer performs basic sanity checks on an audio buffer.
func CheckBuffer(buffer []float32, name string) []string {
	analyzer := NewAudioAnalyzer()
	return analyzer.Issues(analyzer.Analyze(buffer), name)
}

// Issues lists the problems found in an analysis result.
func (a *AudioAnalyzer) Issues(result AnalysisResult, name string) []string {
	var issues []string

	if result.HasNaN {
		issues = append(issues, fmt.Sprintf("%s: Contains %d non-finite values", name, result.NaNCount))
	}
	if result.Clipping {
		issues = append(issues, fmt.Sprintf("%s: Clipping detected (%d samples)", name, result.ClippedSamples))
	}
	if math.Abs(float64(result.DC)) > float64(a.dcThreshold) {
		issues = append(issues, fmt.Sprintf("%s: DC offset detected (%.3f)", name, result.DC))
	}
	if result.Peak > 1.0 {
		issues = append(issues, fmt.Sprintf("%s: Peak exceeds 1.0 (%.3f)", name, result.Peak))
	}

	return issues
}

// LogBufferStats logs the statistics of an analysis result.
func LogBufferStats(logger logrus.FieldLogger, name string, result AnalysisResult) {
	entry := logger.WithFields(logrus.Fields{
		"buffer": name,
		"peak":   fmt.Sprintf("%.3f", result.Peak),
		"rms":    fmt.Sprintf("%.3f", result.RMS),
		"dc":     fmt.Sprintf("%.6f", result.DC),
	})
	switch {
	case result.HasNaN:
		entry.WithField("non_finite", result.NaNCount).Error("Audio buffer stats")
	case result.Clipping:
		entry.WithField("clipped", result.ClippedSamples).Warn("Audio buffer stats")
	default:
		entry.WithField("silent", result.Silent).Info("Audio buffer stats")
	}
}

// Package utility provides common DSP utility functions.
package utility

import "math"

// ScaleParameter performs linear scaling of a normalized parameter value (0-1) to a target range.
func ScaleParameter(normalized, min, max float64) float64 {
	return min + normalized*(max-min)
}

// UnscaleParameter performs inverse linear scaling from a target range back to normalized (0-1).
func UnscaleParameter(value, min, max float64) float64 {
	if max == min {
		return 0.0
	}
	return (value - min) / (max - min)
}

// ClampParameter ensures a parameter value stays within the specified range.
func ClampParameter(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// SkewParameter applies a skew factor to a normalized parameter.
// Skew < 1 spends more of the normalized range on the lower end of the plain range.
func SkewParameter(normalized, skew float64) float64 {
	if skew == 1.0 || skew <= 0 || normalized <= 0 {
		if normalized < 0 {
			return 0
		}
		return normalized
	}
	return math.Exp(math.Log(normalized) / skew)
}

// UnskewParameter is the inverse of SkewParameter.
func UnskewParameter(proportion, skew float64) float64 {
	if skew == 1.0 || skew <= 0 || proportion <= 0 {
		if proportion < 0 {
			return 0
		}
		return proportion
	}
	return math.Pow(proportion, skew)
}

// SnapParameter rounds value to the nearest multiple of step above min.
// A non-positive step leaves the value unchanged.
func SnapParameter(value, min, step float64) float64 {
	if step <= 0 {
		return value
	}
	return min + math.Round((value-min)/step)*step
}

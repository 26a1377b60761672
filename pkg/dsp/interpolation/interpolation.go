// Package interpolation provides audio interpolation utilities.
package interpolation

// Linear performs linear interpolation between two samples.
// frac is the fractional position between y0 and y1 (0.0 to 1.0).
func Linear(y0, y1, frac float32) float32 {
	return y0*(1-frac) + y1*frac
}

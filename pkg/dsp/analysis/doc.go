// Package analysis provides measurement tools for delay output.
//
// Level Metering:
//   - Peak meter with hold and decay
//   - RMS (Root Mean Square) meter over a sliding window
//
// Impulse Response:
//   - Echo tap extraction, merging the two-sample split a fractional
//     delay produces into one tap
//   - Energy and decay ratio of the extracted taps
//
// Example usage:
//
//	ir := renderImpulse(engine)
//	taps := analysis.FindEchoTaps(ir, 1e-4, 8)
//	for _, tap := range taps {
//	    fmt.Println(tap.Position, tap.Amplitude, tap.Ratio)
//	}
package analysis

package param

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/justyntemme/ghostline/pkg/dsp/gain"
)

// Common parameter formatters and parsers

// SecondsFormatter formats a time in seconds, switching to ms below one second.
func SecondsFormatter(seconds float64) string {
	if seconds < 1 {
		return fmt.Sprintf("%.0f ms", seconds*1000)
	}
	return fmt.Sprintf("%.2f s", seconds)
}

// SecondsParser parses "300 ms", "0.3 s" or a bare number of seconds.
func SecondsParser(str string) (float64, error) {
	str = strings.TrimSpace(str)

	if strings.HasSuffix(str, "ms") {
		val, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(str, "ms")), 64)
		if err != nil {
			return 0, err
		}
		return val / 1000, nil
	}

	str = strings.TrimSuffix(str, "s")
	return strconv.ParseFloat(strings.TrimSpace(str), 64)
}

// PercentFormatter formats a 0-1 ratio as a percentage.
func PercentFormatter(ratio float64) string {
	return fmt.Sprintf("%.0f%%", ratio*100)
}

// PercentParser parses "30%" or a bare ratio.
func PercentParser(str string) (float64, error) {
	str = strings.TrimSpace(str)
	if strings.HasSuffix(str, "%") {
		val, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(str, "%")), 64)
		if err != nil {
			return 0, err
		}
		return val / 100, nil
	}
	return strconv.ParseFloat(str, 64)
}

// DecibelFormatter formats a linear gain in dB.
func DecibelFormatter(linear float64) string {
	db := gain.LinearToDb(linear)
	if db <= -60 {
		return "-∞ dB"
	}
	return fmt.Sprintf("%.1f dB", db)
}

// DecibelParser parses a dB string into a linear gain.
func DecibelParser(str string) (float64, error) {
	if strings.Contains(str, "∞") || strings.Contains(str, "inf") {
		return 0, nil
	}
	str = strings.TrimSuffix(strings.TrimSpace(str), "dB")
	str = strings.TrimSuffix(strings.TrimSpace(str), "db")
	db, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil {
		return 0, err
	}
	return gain.DbToLinear(db), nil
}

// ScaledFormatter displays a normalized 0-1 value scaled into a unit range,
// e.g. modulation rate 0-1 shown as 0-10 Hz.
func ScaledFormatter(scale float64, unit string) func(float64) string {
	return func(value float64) string {
		return fmt.Sprintf("%.2f %s", value*scale, unit)
	}
}

// ScaledParser is the inverse of ScaledFormatter.
func ScaledParser(scale float64, unit string) func(string) (float64, error) {
	return func(str string) (float64, error) {
		str = strings.TrimSuffix(strings.TrimSpace(str), unit)
		val, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			return 0, err
		}
		return val / scale, nil
	}
}

// Package param provides the lock-free parameter store shared between
// control surfaces and the audio thread.
package param

import (
	"fmt"
	"math"
	"strconv"
	"sync/atomic"

	"github.com/justyntemme/ghostline/pkg/dsp/utility"
)

// Parameter represents a single automatable plugin parameter.
//
// The current value is held in plain units (seconds, ratio, ...) inside an
// atomic word so a control thread can write while the audio thread reads.
// The store never validates writes: callers clamp with Clamp before SetValue
// when the source is untrusted.
type Parameter struct {
	ID           uint32
	Key          string
	Name         string
	Unit         string
	Min          float64
	Max          float64
	Step         float64
	Skew         float64
	DefaultValue float64 // plain units
	Flags        uint32

	// Atomic value for lock-free access in audio thread
	value atomic.Uint64

	// Value formatting
	formatFunc func(float64) string
	parseFunc  func(string) (float64, error)
}

// CanAutomate marks a parameter hosts may automate.
const CanAutomate uint32 = 1 << 0

// Value returns the current plain value.
func (p *Parameter) Value() float64 {
	return math.Float64frombits(p.value.Load())
}

// SetValue stores a plain value without validation.
func (p *Parameter) SetValue(value float64) {
	p.value.Store(math.Float64bits(value))
}

// Reset restores the default value.
func (p *Parameter) Reset() {
	p.SetValue(p.DefaultValue)
}

// Clamp limits a plain value to the parameter range.
func (p *Parameter) Clamp(plain float64) float64 {
	return utility.ClampParameter(plain, p.Min, p.Max)
}

// Snap clamps a plain value and rounds it to the step granularity.
func (p *Parameter) Snap(plain float64) float64 {
	return p.Clamp(utility.SnapParameter(p.Clamp(plain), p.Min, p.Step))
}

// Normalized returns the current value mapped to 0-1 through the skewed range.
func (p *Parameter) Normalized() float64 {
	return p.Normalize(p.Value())
}

// SetNormalized sets the value from a 0-1 control position.
func (p *Parameter) SetNormalized(normalized float64) {
	p.SetValue(p.Denormalize(normalized))
}

// Normalize converts plain value to normalized (0-1)
func (p *Parameter) Normalize(plain float64) float64 {
	if p.Max <= p.Min {
		return 0
	}
	proportion := utility.ClampParameter(utility.UnscaleParameter(plain, p.Min, p.Max), 0, 1)
	return utility.UnskewParameter(proportion, p.skew())
}

// Denormalize converts normalized (0-1) to plain value
func (p *Parameter) Denormalize(normalized float64) float64 {
	normalized = utility.ClampParameter(normalized, 0, 1)
	return utility.ScaleParameter(utility.SkewParameter(normalized, p.skew()), p.Min, p.Max)
}

func (p *Parameter) skew() float64 {
	if p.Skew <= 0 {
		return 1
	}
	return p.Skew
}

// SetFormatter sets custom value formatting
func (p *Parameter) SetFormatter(format func(float64) string, parse func(string) (float64, error)) {
	p.formatFunc = format
	p.parseFunc = parse
}

// FormatValue returns a display string for a plain value.
func (p *Parameter) FormatValue(plain float64) string {
	if p.formatFunc != nil {
		return p.formatFunc(plain)
	}
	return fmt.Sprintf("%.2f", plain)
}

// ParseValue parses a display string into a clamped plain value.
func (p *Parameter) ParseValue(str string) (float64, error) {
	parse := p.parseFunc
	if parse == nil {
		parse = func(s string) (float64, error) { return strconv.ParseFloat(s, 64) }
	}
	plain, err := parse(str)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", p.Key, err)
	}
	return p.Clamp(plain), nil
}

// String returns the formatted current value.
func (p *Parameter) String() string {
	return p.FormatValue(p.Value())
}

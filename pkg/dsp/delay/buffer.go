// Package delay provides the circular sample storage behind delay effects.
package delay

import (
	"math"

	"github.com/justyntemme/ghostline/pkg/dsp/interpolation"
)

// Buffer is a set of equally sized per-channel ring buffers.
//
// Write positions are owned by the caller; the buffer only stores samples
// and resolves fractional read positions. All methods are allocation free
// except Resize.
type Buffer struct {
	data   [][]float32
	length int
}

// NewBuffer creates a zeroed buffer.
func NewBuffer(channels, length int) *Buffer {
	b := &Buffer{}
	b.Resize(channels, length)
	return b
}

// Resize reallocates storage for channels × length samples and zero-fills it.
func (b *Buffer) Resize(channels, length int) {
	if channels < 0 {
		channels = 0
	}
	if length < 0 {
		length = 0
	}
	b.data = make([][]float32, channels)
	for ch := range b.data {
		b.data[ch] = make([]float32, length)
	}
	b.length = length
}

// Clear zeroes every channel without reallocating.
func (b *Buffer) Clear() {
	for ch := range b.data {
		clear(b.data[ch])
	}
}

// Len returns the per-channel length in samples.
func (b *Buffer) Len() int {
	return b.length
}

// Channels returns the number of channels.
func (b *Buffer) Channels() int {
	return len(b.data)
}

// Write stores a sample at an index already normalized into [0, Len()).
// Out of range writes are dropped.
func (b *Buffer) Write(ch, index int, value float32) {
	if ch < 0 || ch >= len(b.data) || index < 0 || index >= b.length {
		return
	}
	b.data[ch][index] = value
}

// Wrap normalizes a fractional position into [0, Len()).
func (b *Buffer) Wrap(pos float64) float64 {
	if b.length == 0 || math.IsNaN(pos) || math.IsInf(pos, 0) {
		return 0
	}
	length := float64(b.length)
	for pos >= length {
		pos -= length
		if pos >= length {
			pos = math.Mod(pos, length)
		}
	}
	for pos < 0 {
		pos += length
		if pos < 0 {
			pos = math.Mod(pos, length) + length
		}
	}
	// Rounding on a tiny negative input can land exactly on length
	if pos >= length {
		pos = 0
	}
	return pos
}

// ReadInterpolated returns the linearly interpolated sample at a fractional
// position. The position may lie outside [0, Len()) in either direction.
// Indices that still fall outside the buffer after wrapping read as silence.
func (b *Buffer) ReadInterpolated(ch int, pos float64) float32 {
	if ch < 0 || ch >= len(b.data) || b.length == 0 {
		return 0
	}
	pos = b.Wrap(pos)

	index := int(pos)
	frac := float32(pos - float64(index))
	next := index + 1
	if next >= b.length {
		next = 0
	}

	if index < 0 || index >= b.length || next < 0 || next >= b.length {
		return 0
	}

	samples := b.data[ch]
	return interpolation.Linear(samples[index], samples[next], frac)
}

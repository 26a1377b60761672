// Package process provides the per-block audio processing context.
package process

// Context carries one block of planar audio through a processor.
//
// Audio is caller-owned and processed in place: on entry each channel slice
// holds input samples, on return it holds output samples. Channels at index
// InputChannels and above carry no input and are cleared by processors.
type Context struct {
	Audio         [][]float32
	InputChannels int
	SampleRate    float64
}

// NewContext wraps audio as a context where every channel carries input.
func NewContext(audio [][]float32, sampleRate float64) *Context {
	return &Context{
		Audio:         audio,
		InputChannels: len(audio),
		SampleRate:    sampleRate,
	}
}

// NumSamples returns the number of samples to process
func (c *Context) NumSamples() int {
	if len(c.Audio) > 0 {
		return len(c.Audio[0])
	}
	return 0
}

// NumInputChannels returns the number of channels that carry input.
func (c *Context) NumInputChannels() int {
	if c.InputChannels < 0 {
		return 0
	}
	if c.InputChannels > len(c.Audio) {
		return len(c.Audio)
	}
	return c.InputChannels
}

// ClearFrom zeroes every channel from index first onwards.
func (c *Context) ClearFrom(first int) {
	if first < 0 {
		first = 0
	}
	for ch := first; ch < len(c.Audio); ch++ {
		clear(c.Audio[ch])
	}
}

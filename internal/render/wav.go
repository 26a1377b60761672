package render

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/justyntemme/ghostline/pkg/dsp/gain"
)

// Errors returned by the WAV codec.
var (
	ErrInvalidWAV        = errors.New("not a valid WAV file")
	ErrUnsupportedFormat = errors.New("unsupported WAV format")
)

// pcmFormat is the WAVE_FORMAT_PCM format tag.
const pcmFormat = 1

// Clip is planar float audio with its sample rate.
type Clip struct {
	SampleRate int
	BitDepth   int
	Channels   [][]float32
}

// NewClip allocates a silent clip.
func NewClip(sampleRate, bitDepth, channels, frames int) *Clip {
	c := &Clip{
		SampleRate: sampleRate,
		BitDepth:   bitDepth,
		Channels:   make([][]float32, channels),
	}
	for ch := range c.Channels {
		c.Channels[ch] = make([]float32, frames)
	}
	return c
}

// Frames returns the clip length in sample frames.
func (c *Clip) Frames() int {
	if len(c.Channels) == 0 {
		return 0
	}
	return len(c.Channels[0])
}

// Decode reads an integer PCM WAV stream into a clip.
func Decode(r io.ReadSeeker) (*Clip, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, ErrInvalidWAV
	}
	if d.WavAudioFormat != pcmFormat {
		return nil, fmt.Errorf("format tag %d: %w", d.WavAudioFormat, ErrUnsupportedFormat)
	}
	bitDepth := int(d.BitDepth)
	if !supportedDepth(bitDepth) {
		return nil, fmt.Errorf("%d-bit samples: %w", bitDepth, ErrUnsupportedFormat)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode PCM: %w", err)
	}

	channels := int(d.NumChans)
	if channels < 1 {
		return nil, fmt.Errorf("%d channels: %w", channels, ErrUnsupportedFormat)
	}
	frames := len(buf.Data) / channels
	clip := NewClip(int(d.SampleRate), bitDepth, channels, frames)

	scale := 1.0 / fullScale(bitDepth)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			clip.Channels[ch][i] = float32(float64(buf.Data[i*channels+ch]) * scale)
		}
	}
	return clip, nil
}

// Encode writes a clip as integer PCM at the given bit depth. Samples
// outside [-1, 1] are clipped.
func Encode(w io.WriteSeeker, clip *Clip, bitDepth int) error {
	if !supportedDepth(bitDepth) {
		return fmt.Errorf("%d-bit samples: %w", bitDepth, ErrUnsupportedFormat)
	}
	channels := len(clip.Channels)
	if channels < 1 {
		return fmt.Errorf("%d channels: %w", channels, ErrUnsupportedFormat)
	}

	frames := clip.Frames()
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  clip.SampleRate,
		},
		Data:           make([]int, frames*channels),
		SourceBitDepth: bitDepth,
	}

	peak := fullScale(bitDepth)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			sample := clip.Channels[ch][i]
			if math.IsNaN(float64(sample)) {
				sample = 0
			}
			s := int(math.Round(float64(gain.HardClip(sample, 1)) * peak))
			if s > int(peak)-1 {
				s = int(peak) - 1
			}
			buf.Data[i*channels+ch] = s
		}
	}

	enc := wav.NewEncoder(w, clip.SampleRate, bitDepth, channels, pcmFormat)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode PCM: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finish WAV: %w", err)
	}
	return nil
}

func supportedDepth(bitDepth int) bool {
	switch bitDepth {
	case 16, 24, 32:
		return true
	}
	return false
}

func fullScale(bitDepth int) float64 {
	return float64(int64(1) << (bitDepth - 1))
}

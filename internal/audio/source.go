package audio

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/justyntemme/ghostline/pkg/dsp/analysis"
	"github.com/justyntemme/ghostline/pkg/framework/debug"
	"github.com/justyntemme/ghostline/pkg/framework/param"
	"github.com/justyntemme/ghostline/pkg/framework/process"
	"github.com/justyntemme/ghostline/pkg/ghostline"
)

// Generator fills planar dry input for the engine.
type Generator interface {
	Generate(left, right []float32)
}

// EngineSource runs a generator through a prepared engine and interleaves
// the result for the stream reader. Process is called from the audio
// goroutine and does not allocate.
type EngineSource struct {
	engine    *ghostline.Engine
	input     Generator
	maxFrames int

	planar [2][]float32
	views  [][]float32
	block  *process.Context

	limit  int64
	played atomic.Int64

	Load  *debug.LoadMeter
	Meter *analysis.PeakMeter
	RMS   *analysis.RMSMeter
}

// NewEngineSource wraps a prepared engine. maxFrames is the largest chunk
// handed to the engine at once; frames <= 0 plays forever.
func NewEngineSource(engine *ghostline.Engine, input Generator, maxFrames int, frames int64) *EngineSource {
	maxFrames = max(maxFrames, 1)
	s := &EngineSource{
		engine:    engine,
		input:     input,
		maxFrames: maxFrames,
		limit:     frames,
		Load:      debug.NewLoadMeter(engine.SampleRate()),
		Meter:     analysis.NewPeakMeter(engine.SampleRate()),
		RMS:       analysis.NewRMSMeter(int(0.3 * engine.SampleRate())),
	}
	// hold peaks across one status report
	s.Meter.SetHoldTime(1)
	s.planar[0] = make([]float32, maxFrames)
	s.planar[1] = make([]float32, maxFrames)
	s.views = make([][]float32, engine.Channels())
	s.block = process.NewContext(s.views, engine.SampleRate())
	return s
}

// Process fills dst with interleaved stereo frames.
func (s *EngineSource) Process(dst []float32) {
	frames := len(dst) / 2
	for pos := 0; pos < frames; pos += s.maxFrames {
		n := min(s.maxFrames, frames-pos)
		left := s.planar[0][:n]
		right := s.planar[1][:n]

		live := n
		if s.limit > 0 {
			live = int(max(0, min(int64(n), s.limit-s.played.Load())))
		}
		s.input.Generate(left[:live], right[:live])
		clear(left[live:])
		clear(right[live:])

		s.views[0] = left
		if len(s.views) > 1 {
			s.views[1] = right
		}

		start := time.Now()
		s.engine.ProcessAudio(s.block)
		s.Load.Observe(time.Since(start), n)

		if len(s.views) == 1 {
			copy(right, left)
		}
		s.Meter.Process(left)
		s.RMS.Process(left)

		out := dst[pos*2 : (pos+n)*2]
		for i := 0; i < n; i++ {
			out[i*2] = left[i]
			out[i*2+1] = right[i]
		}
		s.played.Add(int64(n))
	}
}

// Played returns the number of frames produced so far.
func (s *EngineSource) Played() int64 {
	return s.played.Load()
}

// Finished reports whether the requested length, including the engine's
// tail, has been produced.
func (s *EngineSource) Finished() bool {
	return s.limit > 0 && s.played.Load() >= s.limit+int64(s.engine.GetTailSamples())
}

// Plucks is a repeating decaying sine burst, a simple source that makes the
// echoes easy to hear.
type Plucks struct {
	sampleRate float64
	interval   int
	freqs      []float64
	decay      float64

	pos   int
	note  int
	phase float64
	env   float64
}

// NewPlucks creates a pluck pattern cycling through freqs every interval.
func NewPlucks(sampleRate float64, interval time.Duration, freqs ...float64) *Plucks {
	if len(freqs) == 0 {
		freqs = []float64{220, 330, 440, 294}
	}
	return &Plucks{
		sampleRate: sampleRate,
		interval:   max(1, int(interval.Seconds()*sampleRate)),
		freqs:      freqs,
		// -60 dB after 150 ms
		decay: math.Exp(-6.907755278982137 / (0.15 * sampleRate)),
	}
}

// Generate writes the same pluck to both channels.
func (p *Plucks) Generate(left, right []float32) {
	for i := range left {
		if p.pos == 0 {
			p.env = 0.8
			p.phase = 0
		}
		freq := p.freqs[p.note%len(p.freqs)]
		v := float32(math.Sin(2*math.Pi*p.phase) * p.env)
		left[i] = v
		if i < len(right) {
			right[i] = v
		}

		p.phase += freq / p.sampleRate
		if p.phase >= 1 {
			p.phase -= 1
		}
		p.env *= p.decay

		p.pos++
		if p.pos >= p.interval {
			p.pos = 0
			p.note++
		}
	}
}

// Sweep moves a parameter back and forth between from and to over period
// until ctx is done, writing at the given control rate. It runs on the
// caller's goroutine.
func Sweep(ctx context.Context, p *param.Parameter, from, to float64, period, tick time.Duration) {
	if period <= 0 || tick <= 0 {
		return
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			p.SetValue(p.Clamp(triangle(from, to, now.Sub(start), period)))
		}
	}
}

// triangle returns the position of a from-to-from sweep at elapsed time.
func triangle(from, to float64, elapsed, period time.Duration) float64 {
	x := math.Mod(elapsed.Seconds()/period.Seconds(), 1)
	if x < 0.5 {
		return from + (to-from)*x*2
	}
	return to + (from-to)*(x-0.5)*2
}

// Package ghostline implements a modulated feedback delay.
//
// The Engine keeps one ring buffer, write cursor, smoother and LFO phase per
// channel (at most two channels). Delay time is smoothed per sample and swung
// by a sine LFO, the delay line is read with linear interpolation and written
// with the input plus feedback of the delayed signal, and the output is the
// wet/dry mix of input and delayed signal written back over the input.
package ghostline

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/justyntemme/ghostline/pkg/dsp/delay"
	"github.com/justyntemme/ghostline/pkg/dsp/mix"
	"github.com/justyntemme/ghostline/pkg/dsp/modulation"
	"github.com/justyntemme/ghostline/pkg/framework/debug"
	"github.com/justyntemme/ghostline/pkg/framework/param"
	"github.com/justyntemme/ghostline/pkg/framework/plugin"
	"github.com/justyntemme/ghostline/pkg/framework/process"
)

const (
	// MaxChannels is the number of channels the engine processes.
	MaxChannels = 2

	// MaxDelaySeconds sets the delay buffer length.
	MaxDelaySeconds = 1.0

	// MaxModulationSeconds is the delay swing at full modulation depth.
	MaxModulationSeconds = 0.01

	// SmoothingSeconds is the delay time ramp length.
	SmoothingSeconds = 0.05

	// TailSeconds is reported to hosts as the tail length.
	TailSeconds = 2.0

	// Tolerance is the smallest parameter change the engine reacts to.
	Tolerance = 0.001
)

// Errors returned by Prepare.
var (
	ErrInvalidSampleRate = errors.New("invalid sample rate")
	ErrInvalidBlockSize  = errors.New("invalid block size")
)

// State is the engine lifecycle state.
type State int32

// Lifecycle states
const (
	Unprepared State = iota
	Prepared
	Processing
	Released
)

func (s State) String() string {
	switch s {
	case Unprepared:
		return "unprepared"
	case Prepared:
		return "prepared"
	case Processing:
		return "processing"
	case Released:
		return "released"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Info describes the engine to hosts.
var Info = plugin.Info{
	ID:       "com.justyntemme.ghostline",
	Name:     "Ghostline",
	Version:  "1.0.0",
	Vendor:   "Ghostline",
	Category: "Fx|Delay",
}

// Engine is the delay processor. Parameters may be written from any
// goroutine; Prepare, ProcessAudio, ProcessBlock and Release must be
// serialized by the host.
type Engine struct {
	registry *param.Registry
	params   [numParams]*param.Parameter
	logger   logrus.FieldLogger
	channels int

	state      atomic.Int32
	sampleRate float64
	maxBlock   int

	cache Settings

	buffer    delay.Buffer
	lfo       modulation.Oscillator
	smoothers []param.Smoother
	writePos  []int
	mixer     mix.WetDry

	// Per-block scratch, sized at Prepare
	dryScratch []float64
	wetScratch []float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithChannels sets the processed channel count, clamped to [1, MaxChannels].
func WithChannels(n int) Option {
	return func(e *Engine) {
		e.channels = max(1, min(n, MaxChannels))
	}
}

// WithLogger sets the lifecycle logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRegistry binds the engine to an existing registry. Parameters are
// looked up by key; a missing key leaves that value at its default.
func WithRegistry(r *param.Registry) Option {
	return func(e *Engine) {
		if r != nil {
			e.registry = r
		}
	}
}

// New creates an unprepared engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		channels: MaxChannels,
		cache:    DefaultSettings(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = NewRegistry()
	}
	if e.logger == nil {
		e.logger = debug.Component("ghostline")
	}
	for _, def := range layout {
		e.params[def.ID] = e.registry.Lookup(def.Key)
	}
	e.mixer.Dry.SetGainLinear(e.cache.Dry)
	e.mixer.Wet.SetGainLinear(e.cache.Wet)
	return e
}

// Parameters returns the parameter registry shared with control surfaces.
func (e *Engine) Parameters() *param.Registry {
	return e.registry
}

// GetParameters implements plugin.Processor.
func (e *Engine) GetParameters() *param.Registry {
	return e.registry
}

// Layout returns the parameter definitions.
func (e *Engine) Layout() []ParamDef {
	return Layout()
}

// State returns the lifecycle state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Channels returns the number of processed channels.
func (e *Engine) Channels() int {
	return e.channels
}

// SampleRate returns the prepared sample rate, or 0 before Prepare.
func (e *Engine) SampleRate() float64 {
	return e.sampleRate
}

// BufferLength returns the per-channel delay buffer length in samples.
func (e *Engine) BufferLength() int {
	return e.buffer.Len()
}

// WritePosition returns a channel's write cursor.
func (e *Engine) WritePosition(ch int) int {
	if ch < 0 || ch >= len(e.writePos) {
		return 0
	}
	return e.writePos[ch]
}

// Phase returns a channel's LFO phase.
func (e *Engine) Phase(ch int) float64 {
	return e.lfo.Phase(ch)
}

// Snapshot returns the cached parameter values the audio path is using.
// Call it only from the goroutine that drives processing.
func (e *Engine) Snapshot() Settings {
	return e.cache
}

// GetLatencySamples implements plugin.Processor.
func (e *Engine) GetLatencySamples() int32 {
	return 0
}

// GetTailSamples implements plugin.Processor.
func (e *Engine) GetTailSamples() int32 {
	return int32(math.Round(e.sampleRate * TailSeconds))
}

// Prepare allocates the delay buffers and resets every per-channel state for
// a new stream. The cached parameters are copied from the live values first,
// so the smoothers start at the current delay time without ramping.
func (e *Engine) Prepare(sampleRate float64, maxBlockSize int32) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("prepare at %v Hz: %w", sampleRate, ErrInvalidSampleRate)
	}
	if maxBlockSize <= 0 {
		return fmt.Errorf("prepare with %d samples: %w", maxBlockSize, ErrInvalidBlockSize)
	}

	length := int(math.Round(sampleRate * MaxDelaySeconds))
	// clamping delays into [1, length-1] needs two samples
	length = max(length, 2)

	e.sampleRate = sampleRate
	e.maxBlock = int(maxBlockSize)

	e.buffer.Resize(e.channels, length)
	e.lfo.Resize(e.channels)
	e.writePos = make([]int, e.channels)
	e.smoothers = make([]param.Smoother, e.channels)
	e.dryScratch = make([]float64, e.maxBlock)
	e.wetScratch = make([]float64, e.maxBlock)

	// The live values go into the cache before the smoothers are reset, so a
	// re-prepare starts at the current delay time instead of ramping to it
	// from the previous stream's value.
	for id, p := range e.params {
		if p == nil {
			continue
		}
		if v := p.Value(); isFinite(v) {
			e.cache.set(uint32(id), v)
		}
	}

	for ch := range e.smoothers {
		e.smoothers[ch].Reset(sampleRate, SmoothingSeconds)
		e.smoothers[ch].SetCurrentAndTarget(e.cache.DelayTime)
	}

	e.mixer.Reset()
	e.mixer.Dry.SetGainLinear(e.cache.Dry)
	e.mixer.Wet.SetGainLinear(e.cache.Wet)

	e.state.Store(int32(Prepared))

	e.logger.WithFields(logrus.Fields{
		"sample_rate": sampleRate,
		"block_size":  maxBlockSize,
		"channels":    e.channels,
		"buffer":      length,
		"delay_time":  e.cache.DelayTime,
	}).Debug("Engine prepared")
	return nil
}

// Release ends the stream. Buffers stay allocated but are stale until the
// next Prepare; processing in between is a no-op.
func (e *Engine) Release() {
	e.mixer.Reset()
	e.state.Store(int32(Released))
	e.logger.Debug("Engine released")
}

// ProcessAudio implements plugin.Processor. Channels without input are
// cleared to silence, even when the engine is not prepared.
func (e *Engine) ProcessAudio(ctx *process.Context) {
	inputs := ctx.NumInputChannels()
	ctx.ClearFrom(inputs)
	e.ProcessBlock(ctx.Audio[:inputs])
}

// ProcessBlock processes planar audio in place. Channels beyond the engine's
// channel count are always cleared; the processed channels are left
// untouched until the engine is prepared. Blocks longer than the prepared
// maximum are processed in chunks. It never allocates, blocks or fails.
func (e *Engine) ProcessBlock(channels [][]float32) {
	for ch := e.channels; ch < len(channels); ch++ {
		clear(channels[ch])
	}
	if !e.ready() {
		return
	}
	e.state.Store(int32(Processing))

	e.refresh()

	for ch, samples := range channels[:min(len(channels), e.channels)] {
		for start := 0; start < len(samples); start += e.maxBlock {
			end := min(start+e.maxBlock, len(samples))
			e.processChannel(ch, samples[start:end])
		}
	}
}

func (e *Engine) ready() bool {
	switch e.State() {
	case Prepared, Processing:
		return e.buffer.Len() > 0
	}
	return false
}

// refresh copies live parameter values into the cache when they moved by
// more than Tolerance. Non-finite values and unbound parameters are ignored.
func (e *Engine) refresh() {
	for id, p := range e.params {
		if p == nil {
			continue
		}
		live := p.Value()
		if !isFinite(live) || math.Abs(live-e.cache.get(uint32(id))) <= Tolerance {
			continue
		}
		e.cache.set(uint32(id), live)

		switch uint32(id) {
		case ParamDelayTime:
			for ch := range e.smoothers {
				e.smoothers[ch].SetTarget(live)
			}
		case ParamWet:
			e.mixer.Wet.SetGainLinear(live)
		case ParamDry:
			e.mixer.Dry.SetGainLinear(live)
		}
	}
}

// processChannel runs the per-sample delay loop over at most maxBlock
// samples, collecting input and delayed signal in scratch, then mixes the
// block. The feedback write only depends on input and delayed signal, so
// mixing after the loop gives the same result as mixing per sample.
func (e *Engine) processChannel(ch int, samples []float32) {
	n := len(samples)
	dry := e.dryScratch[:n]
	wet := e.wetScratch[:n]

	smoother := &e.smoothers[ch]
	length := e.buffer.Len()
	maxDelay := float64(length - 1)

	increment := modulation.Increment(e.cache.ModRate, e.sampleRate)
	if !(increment >= 0) || increment >= 1 {
		increment = 0
	}
	depth := e.cache.ModDepth * MaxModulationSeconds
	feedback := float32(e.cache.Feedback)

	pos := e.writePos[ch]
	for i, input := range samples {
		delayTime := smoother.Next()

		e.lfo.Advance(ch, increment)
		modulated := delayTime + e.lfo.Value(ch)*depth

		delaySamples := modulated * e.sampleRate
		if !(delaySamples >= 1) {
			delaySamples = 1
		} else if delaySamples > maxDelay {
			delaySamples = maxDelay
		}

		delayed := e.buffer.ReadInterpolated(ch, float64(pos)-delaySamples)

		dry[i] = float64(input)
		wet[i] = float64(delayed)

		e.buffer.Write(ch, pos, input+delayed*feedback)

		pos++
		if pos >= length {
			pos = 0
		}
	}
	e.writePos[ch] = pos

	e.mixer.ProcessBlock(dry, dry, wet)
	for i := range samples {
		samples[i] = float32(dry[i])
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

var _ plugin.Processor = (*Engine)(nil)

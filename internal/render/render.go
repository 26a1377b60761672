// Package render drives the delay engine offline: WAV in, WAV out, plus
// impulse response rendering.
package render

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/justyntemme/ghostline/pkg/framework/debug"
	"github.com/justyntemme/ghostline/pkg/framework/process"
	"github.com/justyntemme/ghostline/pkg/ghostline"
)

// Options controls an offline render.
type Options struct {
	// BlockSize is the host block size. Zero means 512.
	BlockSize int
	// Tail is the silence appended to let echoes ring out. Negative means
	// none; zero means the engine's reported tail.
	Tail time.Duration
	// BitDepth of the written file. Zero keeps the input depth.
	BitDepth int
	Logger   logrus.FieldLogger
}

func (o Options) withDefaults() Options {
	if o.BlockSize <= 0 {
		o.BlockSize = 512
	}
	if o.Logger == nil {
		o.Logger = debug.Component("render")
	}
	return o
}

// Result summarizes a render.
type Result struct {
	SampleRate int
	Channels   int
	Frames     int
	TailFrames int
	Blocks     int
	Elapsed    time.Duration
	PeakLoad   float64
	// BlockTime holds the per-block processing times.
	BlockTime debug.Measurement
	Analysis  debug.AnalysisResult
	Issues    []string
}

// Process runs a clip through the engine in host-sized blocks and returns a
// new clip holding the input followed by the tail. The engine is prepared
// at the clip's sample rate and released when done.
func Process(ctx context.Context, e *ghostline.Engine, in *Clip, opts Options) (*Clip, *Result, error) {
	opts = opts.withDefaults()

	sampleRate := float64(in.SampleRate)
	if err := e.Prepare(sampleRate, int32(opts.BlockSize)); err != nil {
		return nil, nil, fmt.Errorf("prepare engine: %w", err)
	}
	defer e.Release()

	tail := 0
	switch {
	case opts.Tail == 0:
		tail = int(e.GetTailSamples())
	case opts.Tail > 0:
		tail = int(math.Round(opts.Tail.Seconds() * sampleRate))
	}

	frames := in.Frames()
	out := NewClip(in.SampleRate, in.BitDepth, len(in.Channels), frames+tail)
	for ch, samples := range in.Channels {
		copy(out.Channels[ch], samples)
	}

	res := &Result{
		SampleRate: in.SampleRate,
		Channels:   len(in.Channels),
		Frames:     frames,
		TailFrames: tail,
	}

	load := debug.NewLoadMeter(sampleRate)
	profiler := debug.NewProfiler(4096)
	views := make([][]float32, len(out.Channels))
	block := process.NewContext(views, sampleRate)
	start := time.Now()

	total := out.Frames()
	for pos := 0; pos < total; pos += opts.BlockSize {
		if err := ctx.Err(); err != nil {
			return nil, nil, fmt.Errorf("render interrupted at frame %d: %w", pos, err)
		}
		end := min(pos+opts.BlockSize, total)
		for ch := range views {
			views[ch] = out.Channels[ch][pos:end]
		}

		blockStart := time.Now()
		e.ProcessAudio(block)
		elapsed := time.Since(blockStart)
		profiler.Record("process", elapsed)
		load.Observe(elapsed, block.NumSamples())
		res.Blocks++
	}

	res.Elapsed = time.Since(start)
	res.PeakLoad = load.Peak()

	res.BlockTime, _ = profiler.Measurement("process")

	analyzer := debug.NewAudioAnalyzer()
	profiler.Time("analyze", func() {
		for ch, samples := range out.Channels {
			r := analyzer.Analyze(samples)
			res.Issues = append(res.Issues, analyzer.Issues(r, fmt.Sprintf("channel %d", ch))...)
			if ch == 0 {
				res.Analysis = r
			} else {
				res.Analysis = res.Analysis.Merge(r, ch*total, total)
			}
		}
	})

	opts.Logger.WithFields(logrus.Fields{
		"frames":      frames,
		"tail":        tail,
		"blocks":      res.Blocks,
		"elapsed":     res.Elapsed,
		"peak_load":   fmt.Sprintf("%.2f%%", res.PeakLoad*100),
		"process_avg": res.BlockTime.Average(),
		"process_p99": res.BlockTime.Percentile(99),
	}).Debug("Render finished")
	opts.Logger.Debug(profiler.Report())

	return out, res, nil
}

// File renders inPath into outPath.
func File(ctx context.Context, e *ghostline.Engine, inPath, outPath string, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	inFile, err := os.Open(inPath)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer inFile.Close()

	clip, err := Decode(inFile)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", inPath, err)
	}

	out, res, err := Process(ctx, e, clip, opts)
	if err != nil {
		return nil, err
	}

	bitDepth := opts.BitDepth
	if bitDepth == 0 {
		bitDepth = clip.BitDepth
	}

	outFile, err := os.Create(outPath)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	if err := Encode(outFile, out, bitDepth); err != nil {
		outFile.Close()
		return nil, fmt.Errorf("write %s: %w", outPath, err)
	}
	if err := outFile.Close(); err != nil {
		return nil, fmt.Errorf("close output: %w", err)
	}

	debug.LogBufferStats(opts.Logger.WithField("file", outPath), "output", res.Analysis)
	return res, nil
}

// Impulse renders the engine's response to a unit impulse on every
// channel. The engine is prepared at sampleRate and released when done.
func Impulse(e *ghostline.Engine, sampleRate float64, frames, blockSize int) ([][]float32, error) {
	if frames <= 0 {
		return nil, fmt.Errorf("impulse length %d must be positive", frames)
	}
	clip := NewClip(int(sampleRate), 32, e.Channels(), frames)
	for _, samples := range clip.Channels {
		samples[0] = 1
	}

	// the impulse is rendered at the exact rate, not the rounded clip rate
	if err := e.Prepare(sampleRate, int32(max(blockSize, 1))); err != nil {
		return nil, fmt.Errorf("prepare engine: %w", err)
	}
	defer e.Release()

	views := make([][]float32, len(clip.Channels))
	block := process.NewContext(views, sampleRate)
	step := max(blockSize, 1)
	for pos := 0; pos < frames; pos += step {
		end := min(pos+step, frames)
		for ch := range views {
			views[ch] = clip.Channels[ch][pos:end]
		}
		e.ProcessAudio(block)
	}
	return clip.Channels, nil
}

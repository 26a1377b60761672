package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/justyntemme/ghostline/internal/audio"
	"github.com/justyntemme/ghostline/internal/config"
	"github.com/justyntemme/ghostline/internal/render"
	"github.com/justyntemme/ghostline/pkg/dsp/analysis"
	"github.com/justyntemme/ghostline/pkg/framework/debug"
	"github.com/justyntemme/ghostline/pkg/ghostline"
)

const usage = `usage: ghostline <command> [flags]

commands:
  render   process a WAV file through the delay
  impulse  render the impulse response and list its echo taps
  play     play a pluck pattern through the delay on the sound card
  params   list the parameters; KEY=VALUE arguments show how display values parse

Settings are read from .env and GHOSTLINE_* variables; flags override them.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ghostline: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = run(ctx, os.Args[1], os.Args[2:], cfg, os.Stdout)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ghostline: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd string, args []string, cfg *config.Config, out io.Writer) error {
	switch cmd {
	case "render":
		return runRender(ctx, args, cfg)
	case "impulse":
		return runImpulse(args, cfg, out)
	case "play":
		return runPlay(ctx, args, cfg)
	case "params":
		return runParams(args, out)
	case "help", "-h", "-help", "--help":
		fmt.Fprint(out, usage)
		return nil
	}
	return fmt.Errorf("unknown command %q\n\n%s", cmd, usage)
}

// commonFlags registers the host and parameter flags shared by commands.
// Defaults come from the loaded configuration.
func commonFlags(fs *flag.FlagSet, cfg *config.Config) {
	fs.Float64Var(&cfg.SampleRate, "sample-rate", cfg.SampleRate, "sample rate in Hz (impulse and play)")
	fs.IntVar(&cfg.BlockSize, "block", cfg.BlockSize, "host block size in samples")
	fs.IntVar(&cfg.Channels, "channels", cfg.Channels, "processed channels (1 or 2)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug|info|warn|error")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "append the log to this file instead of stderr")

	fs.Float64Var(&cfg.Params.DelayTime, "delay", cfg.Params.DelayTime, "delay time in seconds (0.01-1)")
	fs.Float64Var(&cfg.Params.Feedback, "feedback", cfg.Params.Feedback, "feedback ratio (0-0.95)")
	fs.Float64Var(&cfg.Params.Wet, "wet", cfg.Params.Wet, "wet level (0-1)")
	fs.Float64Var(&cfg.Params.Dry, "dry", cfg.Params.Dry, "dry level (0-1)")
	fs.Float64Var(&cfg.Params.ModRate, "mod-rate", cfg.Params.ModRate, "modulation rate (0-1, maps to 0-10 Hz)")
	fs.Float64Var(&cfg.Params.ModDepth, "mod-depth", cfg.Params.ModDepth, "modulation depth (0-1, maps to 0-10 ms)")
}

// setup validates the configuration and builds the logger and engine. The
// returned function closes the log file, if any.
func setup(cfg *config.Config) (*logrus.Logger, *ghostline.Engine, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}
	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	engine := ghostline.New(
		ghostline.WithChannels(cfg.Channels),
		ghostline.WithLogger(logger.WithField("component", "engine")),
	)
	cfg.Params.Apply(engine.Parameters())

	params := engine.Parameters()
	fields := logrus.Fields{}
	for key, value := range params.Snapshot() {
		fields[key] = params.Lookup(key).FormatValue(value)
	}
	logger.WithFields(fields).Debug("Parameters")
	return logger, engine, closeLog, nil
}

func newLogger(cfg *config.Config) (*logrus.Logger, func(), error) {
	if cfg.LogFile == "" {
		logger, err := debug.New(os.Stderr, cfg.LogLevel)
		return logger, func() {}, err
	}
	logger, file, err := debug.NewFileLogger(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { file.Close() }, nil
}

func runRender(ctx context.Context, args []string, cfg *config.Config) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	commonFlags(fs, cfg)
	in := fs.String("in", "", "input WAV path")
	outPath := fs.String("out", "", "output WAV path")
	bitDepth := fs.Int("bits", 0, "output bit depth: 16|24|32 (default: same as input)")
	tail := fs.Duration("tail", 0, "tail appended after the input (default: engine tail, negative: none)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *outPath == "" {
		return errors.New("render needs -in and -out")
	}

	logger, engine, closeLog, err := setup(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	res, err := render.File(ctx, engine, *in, *outPath, render.Options{
		BlockSize: cfg.BlockSize,
		Tail:      *tail,
		BitDepth:  *bitDepth,
		Logger:    logger.WithField("component", "render"),
	})
	if err != nil {
		return err
	}

	for _, issue := range res.Issues {
		logger.Warn(issue)
	}
	logger.WithFields(logrus.Fields{
		"in":          *in,
		"out":         *outPath,
		"sample_rate": res.SampleRate,
		"channels":    res.Channels,
		"seconds":     fmt.Sprintf("%.2f", float64(res.Frames+res.TailFrames)/float64(res.SampleRate)),
		"elapsed":     res.Elapsed.Round(time.Millisecond),
	}).Info("Rendered")
	return nil
}

func runImpulse(args []string, cfg *config.Config, out io.Writer) error {
	fs := flag.NewFlagSet("impulse", flag.ContinueOnError)
	commonFlags(fs, cfg)
	seconds := fs.Float64("seconds", ghostline.TailSeconds, "impulse response length")
	maxTaps := fs.Int("taps", 8, "maximum echo taps to list (0 for all)")
	threshold := fs.Float64("threshold", 1e-4, "smallest sample magnitude counted as part of a tap")
	if err := fs.Parse(args); err != nil {
		return err
	}

	_, engine, closeLog, err := setup(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	frames := int(*seconds * cfg.SampleRate)
	ir, err := render.Impulse(engine, cfg.SampleRate, frames, cfg.BlockSize)
	if err != nil {
		return err
	}

	taps := analysis.FindEchoTaps(ir[0], *threshold, *maxTaps)
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "tap\tsample\ttime\tamplitude\tratio")
	for i, tap := range taps {
		fmt.Fprintf(w, "%d\t%.2f\t%.1f ms\t%.4f\t%.3f\n",
			i, tap.Position, tap.Position/cfg.SampleRate*1000, tap.Amplitude, tap.Ratio)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	samples := make([]float64, len(ir[0]))
	analysis.ToFloat64(samples, ir[0])
	fmt.Fprintf(out, "spacing %.2f samples, decay %.3f, energy %.4f\n",
		analysis.Spacing(taps), analysis.DecayRatio(taps), analysis.Energy(samples))
	return nil
}

func runPlay(ctx context.Context, args []string, cfg *config.Config) error {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	commonFlags(fs, cfg)
	seconds := fs.Float64("seconds", 8, "length of the pluck pattern (0 plays until interrupted)")
	interval := fs.Duration("interval", 600*time.Millisecond, "time between plucks")
	sweep := fs.Bool("sweep", false, "sweep the delay time while playing")
	sweepPeriod := fs.Duration("sweep-period", 4*time.Second, "duration of one delay sweep")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger, engine, closeLog, err := setup(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	if err := engine.Prepare(cfg.SampleRate, int32(cfg.BlockSize)); err != nil {
		return err
	}
	defer engine.Release()

	frames := int64(*seconds * cfg.SampleRate)
	source := audio.NewEngineSource(engine, audio.NewPlucks(cfg.SampleRate, *interval), cfg.BlockSize, frames)

	player, err := audio.NewPlayer(int(cfg.SampleRate), source, 0)
	if err != nil {
		return err
	}
	defer player.Stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if *sweep {
		delayParam := engine.Parameters().Lookup(ghostline.KeyDelayTime)
		go audio.Sweep(ctx, delayParam, 0.1, cfg.Params.DelayTime, *sweepPeriod, 20*time.Millisecond)
	}

	player.Play()
	logger.WithFields(logrus.Fields{
		"sample_rate": cfg.SampleRate,
		"seconds":     *seconds,
		"sweep":       *sweep,
	}).Info("Playing")

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("Interrupted")
			return nil
		case <-ticker.C:
			source.Load.Log(logger)
			logger.WithFields(logrus.Fields{
				"position": player.Position().Round(time.Millisecond),
				"frames":   source.Played(),
				"peak_db":  fmt.Sprintf("%.1f", source.Meter.PeakDB()),
				"hold_db":  fmt.Sprintf("%.1f", source.Meter.HoldDB()),
				"rms_db":   fmt.Sprintf("%.1f", source.RMS.RMSDB()),
			}).Debug("Playback")
			if source.Finished() && !player.IsPlaying() {
				logger.Info("Playback completed")
				return nil
			}
		}
	}
}

// runParams lists the parameter table. Arguments of the form KEY=VALUE are
// parsed in display units ("450ms", "40%", "-6 dB"), snapped to the step and
// shown in the value and position columns.
func runParams(args []string, out io.Writer) error {
	registry := ghostline.NewRegistry()
	for _, arg := range args {
		key, text, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("params: %q is not KEY=VALUE", arg)
		}
		p := registry.Lookup(strings.ToUpper(strings.TrimSpace(key)))
		if p == nil {
			return fmt.Errorf("params: unknown parameter %q", key)
		}
		value, err := p.ParseValue(text)
		if err != nil {
			return err
		}
		p.SetValue(p.Snap(value))
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "id\tkey\tname\trange\tdefault\tvalue\tposition\tstep")
	for i := int32(0); i < registry.Count(); i++ {
		p := registry.GetByIndex(i)
		fmt.Fprintf(w, "%d\t%s\t%s\t%s .. %s\t%s\t%s\t%.3f\t%g\n",
			p.ID, p.Key, p.Name, p.FormatValue(p.Min), p.FormatValue(p.Max), p.FormatValue(p.DefaultValue),
			p, p.Normalized(), p.Step)
	}
	return w.Flush()
}

// Package config loads runtime settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/justyntemme/ghostline/pkg/ghostline"
)

// Environment variable names
const (
	EnvSampleRate = "GHOSTLINE_SAMPLE_RATE"
	EnvBlockSize  = "GHOSTLINE_BLOCK_SIZE"
	EnvChannels   = "GHOSTLINE_CHANNELS"
	EnvLogLevel   = "GHOSTLINE_LOG_LEVEL"
	EnvLogFile    = "GHOSTLINE_LOG_FILE"
	EnvDelayTime  = "GHOSTLINE_DELAY_TIME"
	EnvFeedback   = "GHOSTLINE_FEEDBACK"
	EnvWet        = "GHOSTLINE_WET"
	EnvDry        = "GHOSTLINE_DRY"
	EnvModRate    = "GHOSTLINE_MOD_RATE"
	EnvModDepth   = "GHOSTLINE_MOD_DEPTH"
)

// ErrInvalidValue is wrapped by every validation error.
var ErrInvalidValue = errors.New("invalid value")

// Config holds the host and parameter settings.
type Config struct {
	SampleRate float64
	BlockSize  int
	Channels   int
	LogLevel   string
	// LogFile, when set, receives the log instead of stderr.
	LogFile string
	Params  ghostline.Settings
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		SampleRate: 48000,
		BlockSize:  512,
		Channels:   ghostline.MaxChannels,
		LogLevel:   "info",
		Params:     ghostline.DefaultSettings(),
	}
}

// Load reads the given .env files (".env" when none are named; missing
// files are ignored) into the process environment, then builds the
// configuration from GHOSTLINE_* variables.
func Load(envFiles ...string) (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load(envFiles...)
	return fromLookup(os.LookupEnv)
}

// Parse builds the configuration from .env formatted content only.
func Parse(r io.Reader) (*Config, error) {
	values, err := godotenv.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return fromLookup(func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	})
}

func fromLookup(lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if v, ok := lookupTrimmed(lookup, EnvSampleRate); ok {
		rate, err := parseFloat(EnvSampleRate, v)
		if err != nil {
			return nil, err
		}
		if rate <= 0 {
			return nil, fmt.Errorf("%s=%q must be positive: %w", EnvSampleRate, v, ErrInvalidValue)
		}
		cfg.SampleRate = rate
	}

	if v, ok := lookupTrimmed(lookup, EnvBlockSize); ok {
		size, err := strconv.Atoi(v)
		if err != nil || size <= 0 {
			return nil, fmt.Errorf("%s=%q must be a positive integer: %w", EnvBlockSize, v, ErrInvalidValue)
		}
		cfg.BlockSize = size
	}

	if v, ok := lookupTrimmed(lookup, EnvChannels); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > ghostline.MaxChannels {
			return nil, fmt.Errorf("%s=%q must be 1 or 2: %w", EnvChannels, v, ErrInvalidValue)
		}
		cfg.Channels = n
	}

	if v, ok := lookupTrimmed(lookup, EnvLogLevel); ok {
		if _, err := logrus.ParseLevel(v); err != nil {
			return nil, fmt.Errorf("%s=%q: %w", EnvLogLevel, v, ErrInvalidValue)
		}
		cfg.LogLevel = strings.ToLower(v)
	}

	if v, ok := lookupTrimmed(lookup, EnvLogFile); ok {
		cfg.LogFile = v
	}

	params := []struct {
		env string
		key string
		dst *float64
	}{
		{EnvDelayTime, ghostline.KeyDelayTime, &cfg.Params.DelayTime},
		{EnvFeedback, ghostline.KeyFeedback, &cfg.Params.Feedback},
		{EnvWet, ghostline.KeyWet, &cfg.Params.Wet},
		{EnvDry, ghostline.KeyDry, &cfg.Params.Dry},
		{EnvModRate, ghostline.KeyModRate, &cfg.Params.ModRate},
		{EnvModDepth, ghostline.KeyModDepth, &cfg.Params.ModDepth},
	}
	for _, p := range params {
		v, ok := lookupTrimmed(lookup, p.env)
		if !ok {
			continue
		}
		value, err := parseFloat(p.env, v)
		if err != nil {
			return nil, err
		}
		*p.dst = ClampParam(p.key, value)
	}

	return cfg, nil
}

// ClampParam clamps a value into the range of the parameter with key.
// Unknown keys are returned unchanged.
func ClampParam(key string, value float64) float64 {
	for _, def := range ghostline.Layout() {
		if def.Key == key {
			return math.Max(def.Min, math.Min(def.Max, value))
		}
	}
	return value
}

// Validate checks a configuration assembled by hand or modified by flags.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 || math.IsNaN(c.SampleRate) || math.IsInf(c.SampleRate, 0) {
		return fmt.Errorf("sample rate %v: %w", c.SampleRate, ErrInvalidValue)
	}
	if c.BlockSize <= 0 {
		return fmt.Errorf("block size %d: %w", c.BlockSize, ErrInvalidValue)
	}
	if c.Channels < 1 || c.Channels > ghostline.MaxChannels {
		return fmt.Errorf("channels %d: %w", c.Channels, ErrInvalidValue)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level %q: %w", c.LogLevel, ErrInvalidValue)
	}
	return nil
}

func lookupTrimmed(lookup func(string) (string, bool), key string) (string, bool) {
	v, ok := lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func parseFloat(key, v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s=%q is not a finite number: %w", key, v, ErrInvalidValue)
	}
	return f, nil
}

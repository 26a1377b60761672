// Package debug provides logging and diagnostics for hosts and processors.
//
// Logging is built on logrus. Processors receive a logrus.FieldLogger and
// log lifecycle events only; nothing logs from the audio callback.
package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	defaultLogger *logrus.Logger
	once          sync.Once
)

// New creates a text logger writing to output at the given level name
// ("debug", "info", "warn", "error"). An empty level means info.
func New(output io.Writer, level string) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(output)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	lvl := logrus.InfoLevel
	if strings.TrimSpace(level) != "" {
		parsed, err := logrus.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", level, err)
		}
		lvl = parsed
	}
	logger.SetLevel(lvl)
	return logger, nil
}

// NewFileLogger creates a logger that appends to a file. The caller closes
// the returned file when done logging.
func NewFileLogger(filename, level string) (*logrus.Logger, *os.File, error) {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger, err := New(file, level)
	if err != nil {
		file.Close()
		return nil, nil, err
	}
	return logger, file, nil
}

// Default returns the process-wide logger writing to stderr.
func Default() *logrus.Logger {
	once.Do(func() {
		defaultLogger, _ = New(os.Stderr, "info")
	})
	return defaultLogger
}

// SetLevel sets the level of the default logger.
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level %q: %w", level, err)
	}
	Default().SetLevel(lvl)
	return nil
}

// Component returns an entry of the default logger tagged with a component name.
func Component(name string) *logrus.Entry {
	return Default().WithField("component", name)
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

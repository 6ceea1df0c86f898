// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ldi/taskdeck/internal/config"
	"github.com/sirupsen/logrus"
)

// Setup applies cfg to logger and returns a cleanup that closes any log file.
// forceFile redirects output to the configured file, for full-screen modes
// where stderr belongs to the terminal UI.
func Setup(logger *logrus.Logger, cfg config.Logger, forceFile bool) (func(), error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	logger.SetLevel(level)

	switch cfg.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	output := cfg.Output
	if forceFile {
		output = "file"
	}

	cleanup := func() {}
	var w io.Writer
	switch output {
	case "stdout":
		w = os.Stdout
	case "file":
		path := cfg.OutputFile
		if path == "" {
			path = config.DefaultLogFile
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = f
		cleanup = func() { f.Close() }
	default:
		w = os.Stderr
	}
	logger.SetOutput(w)
	return cleanup, nil
}

// Component returns an entry tagged with the component name.
func Component(logger logrus.FieldLogger, name string) *logrus.Entry {
	return logger.WithField("component", name)
}

// Discard returns a logger that drops everything, for tests and defaults.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

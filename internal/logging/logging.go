// Package logging provides the structured logging setup shared by every
// component of the indexing pipeline, following the same shape as
// common/logger.go in the teacher codebase (logrus with a configurable
// level/format and a context-carrying wrapper), adapted to scope fields by
// pipeline component instead of by HTTP request.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Level mirrors the recognized log_level configuration values.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Config configures the root logger.
type Config struct {
	Level      Level     // minimum level emitted
	Format     string    // "json" or "text"
	Service    string    // service name attached to every entry
	AddCaller  bool      // include caller file:line
	Output     io.Writer // defaults to os.Stderr
	TimeFormat string
}

// DefaultConfig returns sensible defaults for local development.
func DefaultConfig() Config {
	return Config{
		Level:      LevelInfo,
		Format:     "text",
		Service:    "delta-indexer",
		TimeFormat: time.RFC3339,
	}
}

// New builds a root *logrus.Logger from Config.
func New(cfg Config) *logrus.Logger {
	logger := logrus.New()

	switch cfg.Level {
	case LevelDebug:
		logger.SetLevel(logrus.DebugLevel)
	case LevelWarn:
		logger.SetLevel(logrus.WarnLevel)
	case LevelError:
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: timeFormat})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: timeFormat})
	}

	logger.SetReportCaller(cfg.AddCaller)

	if cfg.Output != nil {
		logger.SetOutput(cfg.Output)
	} else {
		logger.SetOutput(os.Stderr)
	}

	return logger
}

// ForComponent returns an entry pre-populated with a "component" field
// (e.g. logging.ForComponent(root, "serve"), the entry serve hands to
// every component it builds).
func ForComponent(logger *logrus.Logger, component string) *logrus.Entry {
	return logger.WithField("component", component)
}

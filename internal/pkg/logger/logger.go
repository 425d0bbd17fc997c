// Package logger configures the process wide zerolog logger.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var defaultLogger zerolog.Logger

// LogLevel represents the log level
type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
	FatalLevel LogLevel = "fatal"
)

// Config represents logger configuration
type Config struct {
	Level LogLevel
	// Pretty switches to the human readable console writer
	Pretty bool
	// Output defaults to os.Stdout
	Output io.Writer
	// Service is stamped on every entry when set
	Service string
}

// ParseLevel maps a configured level name onto a LogLevel, defaulting to info.
func ParseLevel(s string) LogLevel {
	switch l := LogLevel(strings.ToLower(strings.TrimSpace(s))); l {
	case DebugLevel, InfoLevel, WarnLevel, ErrorLevel, FatalLevel:
		return l
	}
	return InfoLevel
}

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case DebugLevel:
		return zerolog.DebugLevel
	case WarnLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	case FatalLevel:
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// Configure installs the logger described by config as the package default
// and as zerolog's global log.Logger.
func Configure(config Config) zerolog.Logger {
	if config.Output == nil {
		config.Output = os.Stdout
	}

	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(config.Level.zerolog())

	writer := config.Output
	if config.Pretty {
		writer = zerolog.ConsoleWriter{Out: config.Output, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(writer).With().Timestamp()
	if config.Service != "" {
		ctx = ctx.Str("service", config.Service)
	}
	defaultLogger = ctx.Logger()
	log.Logger = defaultLogger
	return defaultLogger
}

// Get returns the configured logger.
func Get() zerolog.Logger {
	return defaultLogger
}

// Component returns the default logger tagged with a component name.
func Component(name string) zerolog.Logger {
	return defaultLogger.With().Str("component", name).Logger()
}

func Debug() *zerolog.Event {
	return defaultLogger.Debug()
}

func Info() *zerolog.Event {
	return defaultLogger.Info()
}

func Warn() *zerolog.Event {
	return defaultLogger.Warn()
}

func Error() *zerolog.Event {
	return defaultLogger.Error()
}

// Fatal logs and exits the process.
func Fatal() *zerolog.Event {
	return defaultLogger.Fatal()
}

func init() {
	Configure(Config{Level: InfoLevel, Pretty: true})
}

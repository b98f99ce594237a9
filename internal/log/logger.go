// Package log builds the structured loggers used across casegen.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format represents the log output format.
type Format string

const (
	// FormatJSON outputs one JSON object per record.
	FormatJSON Format = "json"
	// FormatText outputs logfmt-style key=value records.
	FormatText Format = "text"
)

// LevelTrace is more verbose than Debug. Property resolution and mock
// installation details are logged at this level.
const LevelTrace = slog.Level(-8)

// Standard field keys.
const (
	ComponentKey = "component"
	FixtureKey   = "fixture"
	SymbolKey    = "symbol"
	SuiteKey     = "suite"
	FunctionKey  = "function"
	DurationKey  = "duration_ms"
)

// Config holds the logging configuration.
type Config struct {
	// Level is one of trace, debug, info, warn, error. Default: info
	Level string

	// Format is json or text. Default: text
	Format Format

	// Output defaults to os.Stderr.
	Output io.Writer

	// AddSource adds file:line to each record.
	AddSource bool
}

// DefaultConfig returns a Config with defaults suited to test output.
func DefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: FormatText,
		Output: os.Stderr,
	}
}

// FromEnv creates a Config from environment variables:
//   - CASEGEN_DEBUG: true/1 enables debug level and source locations
//   - CASEGEN_LOG_LEVEL: trace, debug, info, warn, error (ignored when CASEGEN_DEBUG is set)
//   - CASEGEN_LOG_FORMAT: json, text
//   - CASEGEN_LOG_SOURCE: 1 adds source locations
func FromEnv() *Config {
	cfg := DefaultConfig()

	debug := os.Getenv("CASEGEN_DEBUG")
	if debug == "true" || debug == "1" {
		cfg.Level = "debug"
		cfg.AddSource = true
	}

	if debug == "" {
		if level := os.Getenv("CASEGEN_LOG_LEVEL"); level != "" {
			cfg.Level = strings.ToLower(level)
		}
	}

	if format := os.Getenv("CASEGEN_LOG_FORMAT"); format != "" {
		cfg.Format = Format(strings.ToLower(format))
	}

	if os.Getenv("CASEGEN_LOG_SOURCE") == "1" {
		cfg.AddSource = true
	}

	return cfg
}

// New creates a logger from cfg. A nil cfg uses DefaultConfig.
func New(cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:       ParseLevel(cfg.Level),
		AddSource:   cfg.AddSource,
		ReplaceAttr: replaceLevel,
	}

	var handler slog.Handler
	switch cfg.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel converts a level name to a slog.Level. Unknown names map to
// info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// replaceLevel prints LevelTrace as TRACE instead of DEBUG-4.
func replaceLevel(groups []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey || len(groups) > 0 {
		return a
	}
	if level, ok := a.Value.Any().(slog.Level); ok && level == LevelTrace {
		return slog.String(slog.LevelKey, "TRACE")
	}
	return a
}

// WithComponent returns a logger tagged with a component name.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With(ComponentKey, component)
}

// OrDefault returns logger, or slog.Default() when logger is nil.
func OrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

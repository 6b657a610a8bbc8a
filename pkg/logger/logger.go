// Package logger provides structured logging utilities.
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Output formats accepted by New.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Logger is a wrapper around zap.Logger.
type Logger struct {
	*zap.Logger
}

// New creates a logger writing to stdout. format is FormatJSON or
// FormatConsole; an unknown level falls back to info.
func New(level, format string) (*Logger, error) {
	return build(level, format, "stdout")
}

func build(level, format, output string) (*Logger, error) {
	var config zap.Config
	switch format {
	case FormatJSON, "":
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "ts"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	case FormatConsole:
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	config.Level = zap.NewAtomicLevelAt(ParseLevel(level))
	config.EncoderConfig.EncodeDuration = zapcore.MillisDurationEncoder
	config.Sampling = nil
	config.OutputPaths = []string{output}
	config.ErrorOutputPaths = []string{"stderr"}

	l, err := config.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{Logger: l.Named("inbox")}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// With creates a child logger with additional fields.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{Logger: l.Logger.With(fields...)}
}

// ForRequest returns a child logger tagged with the request identity.
// Empty values are left out.
func (l *Logger) ForRequest(correlationID, workspaceID, agentID string) *Logger {
	fields := make([]zap.Field, 0, 3)
	for _, f := range []struct{ key, value string }{
		{"correlation_id", correlationID},
		{"workspace_id", workspaceID},
		{"agent_id", agentID},
	} {
		if f.value != "" {
			fields = append(fields, zap.String(f.key, f.value))
		}
	}
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}

// ParseLevel maps a level name to a zap level, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		level = "warn"
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

var global = NewNop()

func init() {
	if l, err := build("warn", FormatConsole, "stderr"); err == nil {
		global = l
	}
}

// Global returns the process-wide logger. Until SetGlobal is called it is a
// console logger on stderr at warn level.
func Global() *Logger {
	return global
}

// SetGlobal sets the global logger instance.
func SetGlobal(l *Logger) {
	global = l
}

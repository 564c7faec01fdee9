// Package logging provides structured logging for shiplog on top of zap.
//
// Logs go to stderr so that command output on stdout stays machine-readable.
// A nil *Logger is valid and discards everything.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logging configuration.
type Config struct {
	Level  string `koanf:"level" yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `koanf:"format" yaml:"format" validate:"omitempty,oneof=console json"`
}

// NewDefaultConfig returns the CLI defaults: warnings and above, console encoding.
func NewDefaultConfig() Config {
	return Config{Level: "warn", Format: "console"}
}

// Logger wraps zap with a nil-safe API.
type Logger struct {
	zap *zap.Logger
}

// New creates a logger writing to stderr.
func New(cfg Config) (*Logger, error) {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(cfg Config, w io.Writer) (*Logger, error) {
	level, err := LevelFromString(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	encoder, err := newEncoder(cfg.Format)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), level)
	return &Logger{zap: zap.New(core)}, nil
}

// Nop returns a logger that discards all output.
func Nop() *Logger {
	return &Logger{zap: zap.NewNop()}
}

// LevelFromString parses a level name; empty means warn.
func LevelFromString(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.WarnLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.WarnLevel, err
	}
	return l, nil
}

// newEncoder creates a console or JSON encoder.
func newEncoder(format string) (zapcore.Encoder, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	switch format {
	case "", "console":
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(encoderCfg), nil
	case "json":
		return zapcore.NewJSONEncoder(encoderCfg), nil
	default:
		return nil, fmt.Errorf("log format must be 'console' or 'json', got %q", format)
	}
}

func (l *Logger) core() *zap.Logger {
	if l == nil || l.zap == nil {
		return zap.NewNop()
	}
	return l.zap
}

func (l *Logger) Debug(msg string, fields ...zap.Field) { l.core().Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...zap.Field)  { l.core().Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...zap.Field)  { l.core().Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...zap.Field) { l.core().Error(msg, fields...) }

// With returns a child logger carrying fields.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{zap: l.core().With(fields...)}
}

// Named returns a child logger with a name segment appended.
func (l *Logger) Named(name string) *Logger {
	return &Logger{zap: l.core().Named(name)}
}

// Enabled returns true if the given level is enabled.
func (l *Logger) Enabled(level zapcore.Level) bool {
	return l.core().Core().Enabled(level)
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	err := l.core().Sync()
	// Ignore sync errors on stdout/stderr (common on Linux)
	if err != nil && isStdoutSyncError(err) {
		return nil
	}
	return err
}

// isStdoutSyncError checks if error is harmless stdout/stderr sync error.
func isStdoutSyncError(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EINVAL || errno == syscall.ENOTTY
	}
	return false
}

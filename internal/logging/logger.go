// Package logging builds the zap logger used across Foundry.
package logging

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects level and output format.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // console or json
}

// Logger wraps a zap.Logger whose level can be changed at runtime.
type Logger struct {
	*zap.Logger
	level zap.AtomicLevel
}

// New creates a logger writing to stderr.
func New(cfg Config) (*Logger, error) {
	return NewWithWriter(cfg, zapcore.Lock(os.Stderr))
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(cfg Config, w zapcore.WriteSyncer) (*Logger, error) {
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	format := strings.ToLower(strings.TrimSpace(cfg.Format))
	if format != "" && format != "console" && format != "json" {
		return nil, fmt.Errorf("invalid log format %q: must be console or json", cfg.Format)
	}

	atomic := zap.NewAtomicLevelAt(lvl)
	core := zapcore.NewCore(newEncoder(format), w, atomic)
	return &Logger{
		Logger: zap.New(core),
		level:  atomic,
	}, nil
}

// ParseLevel parses a level name. Empty means info.
func ParseLevel(s string) (zapcore.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return lvl, nil
}

// SetLevel changes the level of this logger and every child derived from it.
func (l *Logger) SetLevel(level string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	l.level.SetLevel(lvl)
	return nil
}

// Level returns the current level.
func (l *Logger) Level() zapcore.Level {
	return l.level.Level()
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	err := l.Logger.Sync()
	// Syncing stdout/stderr returns EINVAL or ENOTTY on Linux.
	if err != nil && isStdoutSyncError(err) {
		return nil
	}
	return err
}

// newEncoder creates JSON or console encoder.
func newEncoder(format string) zapcore.Encoder {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	if format == "json" {
		return zapcore.NewJSONEncoder(encoderCfg)
	}
	return zapcore.NewConsoleEncoder(encoderCfg)
}

func isStdoutSyncError(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EINVAL || errno == syscall.ENOTTY
	}
	return false
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// Package logging builds the service's zap logger. The level lives in a
// zap.AtomicLevel so the admin endpoint can raise verbosity on a running
// instance without a restart.
package logging

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a zap.Logger plus the atomic level it was built with.
type Logger struct {
	*zap.Logger
	level zap.AtomicLevel
}

// Config holds logger settings.
type Config struct {
	// Level is the initial log level (debug, info, warn, error).
	Level string
	// Format is the output format (json, console).
	Format string
	// Environment selects encoder conventions (development, production).
	Environment string
}

// DefaultConfig returns development defaults.
func DefaultConfig() *Config {
	return &Config{Level: "info", Format: "json", Environment: "development"}
}

// New builds a logger writing to stderr.
func New(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	atomicLevel := zap.NewAtomicLevelAt(level)

	core := zapcore.NewCore(newEncoder(cfg), zapcore.Lock(os.Stderr), atomicLevel)

	opts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.Environment == "development" {
		opts = append(opts, zap.Development())
	}

	return &Logger{Logger: zap.New(core, opts...), level: atomicLevel}, nil
}

func newEncoder(cfg *Config) zapcore.Encoder {
	encCfg := zap.NewDevelopmentEncoderConfig()
	if cfg.Environment == "production" {
		encCfg = zap.NewProductionEncoderConfig()
	}
	if cfg.Format == "console" {
		return zapcore.NewConsoleEncoder(encCfg)
	}
	return zapcore.NewJSONEncoder(encCfg)
}

// Zap returns the underlying zap.Logger.
func (l *Logger) Zap() *zap.Logger {
	return l.Logger
}

// AtomicLevel returns the level handle for runtime adjustment.
func (l *Logger) AtomicLevel() zap.AtomicLevel {
	return l.level
}

var levelNames = map[string]zapcore.Level{
	"debug":   zapcore.DebugLevel,
	"info":    zapcore.InfoLevel,
	"warn":    zapcore.WarnLevel,
	"warning": zapcore.WarnLevel,
	"error":   zapcore.ErrorLevel,
	"dpanic":  zapcore.DPanicLevel,
	"panic":   zapcore.PanicLevel,
	"fatal":   zapcore.FatalLevel,
}

// ParseLevel converts a level name into a zapcore.Level. It accepts the
// names zap knows plus "warning" as an alias for "warn".
func ParseLevel(level string) (zapcore.Level, error) {
	if lvl, ok := levelNames[strings.ToLower(strings.TrimSpace(level))]; ok {
		return lvl, nil
	}
	names := make([]string, 0, len(levelNames))
	for name := range levelNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return zapcore.InfoLevel, fmt.Errorf("unknown log level: %s (valid: %s)", level, strings.Join(names, ", "))
}

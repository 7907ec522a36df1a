package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zapcore.Level
		wantErr  bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"DEBUG", zapcore.DebugLevel, false},
		{"info", zapcore.InfoLevel, false},
		{"warn", zapcore.WarnLevel, false},
		{"warning", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"dpanic", zapcore.DPanicLevel, false},
		{"panic", zapcore.PanicLevel, false},
		{"fatal", zapcore.FatalLevel, false},
		{"  info  ", zapcore.InfoLevel, false},
		{"invalid", zapcore.InfoLevel, true},
		{"", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if !tt.wantErr && level != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, level, tt.expected)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Level != "info" {
		t.Errorf("level = %q, want info", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("format = %q, want json", cfg.Format)
	}
}

func TestNew(t *testing.T) {
	t.Run("nil config uses defaults", func(t *testing.T) {
		logger, err := New(nil)
		if err != nil {
			t.Fatalf("New(nil) error = %v", err)
		}
		if logger.AtomicLevel().Level() != zapcore.InfoLevel {
			t.Errorf("level = %v, want info", logger.AtomicLevel().Level())
		}
	})

	t.Run("debug level", func(t *testing.T) {
		logger, err := New(&Config{Level: "debug", Format: "json", Environment: "production"})
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if logger.AtomicLevel().Level() != zapcore.DebugLevel {
			t.Errorf("level = %v, want debug", logger.AtomicLevel().Level())
		}
	})

	t.Run("console format", func(t *testing.T) {
		logger, err := New(&Config{Level: "info", Format: "console", Environment: "development"})
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		logger.Info("console encoder smoke test")
	})

	t.Run("invalid level", func(t *testing.T) {
		if _, err := New(&Config{Level: "loud"}); err == nil {
			t.Error("expected error for invalid level")
		}
	})
}

func TestLogger_Zap(t *testing.T) {
	logger, err := New(nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if logger.Zap() == nil {
		t.Fatal("Zap() returned nil")
	}
}

func TestLogger_AtomicLevel(t *testing.T) {
	logger, err := New(&Config{Level: "info", Format: "json"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	level := logger.AtomicLevel()
	level.SetLevel(zapcore.DebugLevel)

	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("raising the atomic level should enable debug logging")
	}
}

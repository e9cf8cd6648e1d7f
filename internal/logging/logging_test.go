package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"invalid", slog.LevelInfo}, // defaults to info
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := parseLevel(tt.input)
			if result != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Level != "info" {
		t.Errorf("expected level 'info', got %q", cfg.Level)
	}
	if cfg.Format != "text" {
		t.Errorf("expected format 'text', got %q", cfg.Format)
	}
	if cfg.Output != "stdout" {
		t.Errorf("expected output 'stdout', got %q", cfg.Output)
	}
}

func TestInitNilConfig(t *testing.T) {
	if err := Init(nil); err != nil {
		t.Fatalf("Init(nil) failed: %v", err)
	}
	if Default() == nil {
		t.Fatal("Default() returned nil after Init")
	}
}

func TestInitFileOutput(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "logs", "pulsebot.log")

	err := Init(&Config{
		Level:  "debug",
		Format: "json",
		Output: logPath,
	})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	Default().Info("test message")

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		t.Error("log file was not created")
	}

	// Restore stdout logging for other tests
	_ = Init(nil)
}

func TestWithComponent(t *testing.T) {
	logger := WithComponent("executor")
	if logger == nil {
		t.Fatal("WithComponent returned nil")
	}
}

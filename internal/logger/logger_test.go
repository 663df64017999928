package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestInit(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "config")

	err := Init(Config{
		Debug:     false,
		ConfigDir: configDir,
	})
	if err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	logDir := filepath.Join(configDir, "logs")
	if _, err := os.Stat(logDir); os.IsNotExist(err) {
		t.Errorf("Log directory was not created: %s", logDir)
	}

	if Logger == nil {
		t.Fatal("Logger is nil after initialization")
	}
	if Logger.GetLevel() != log.WarnLevel {
		t.Errorf("default level = %v, want %v", Logger.GetLevel(), log.WarnLevel)
	}

	Debug("Test debug message")
	Info("Test info message")
	Warn("Test warning message")
	Error("Test error message")
}

func TestInitLevelOverride(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		level log.Level
	}{
		{"debug flag", Config{Debug: true}, log.DebugLevel},
		{"explicit info", Config{Level: "info"}, log.InfoLevel},
		{"explicit level wins over debug", Config{Debug: true, Level: "ERROR"}, log.ErrorLevel},
		{"unknown level falls back", Config{Level: "chatty"}, log.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.ConfigDir = t.TempDir()
			if err := Init(tt.cfg); err != nil {
				t.Fatalf("Init() error: %v", err)
			}
			if Logger.GetLevel() != tt.level {
				t.Errorf("level = %v, want %v", Logger.GetLevel(), tt.level)
			}
		})
	}
}

func TestInitWriter(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, log.InfoLevel)

	Debug("hidden")
	Info("cache miss", "key", "custom_tasks")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message written at info level: %q", out)
	}
	if !strings.Contains(out, "cache miss") || !strings.Contains(out, "custom_tasks") {
		t.Errorf("output %q missing message or keyvals", out)
	}

	child := With("component", "sync")
	if child == nil {
		t.Fatal("With() returned nil after InitWriter")
	}
}

func TestLogFunctionsWithoutInit(t *testing.T) {
	Logger = nil

	Debug("Test debug message")
	Info("Test info message")
	Warn("Test warning message")
	Error("Test error message")

	if With("k", "v") != nil {
		t.Error("With() should return nil when logger is not initialized")
	}
}

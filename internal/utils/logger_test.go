package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestLogger(t *testing.T, level string) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger, err := NewLogger(&LogCfg{
		LogLevel: level,
		LogDir:   t.TempDir(),
		LogFile:  "test.log",
		Console:  &buf,
	})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	t.Cleanup(func() { logger.Close() })
	return logger, &buf
}

func TestFormatLog(t *testing.T) {
	tests := []struct {
		tag, msg, want string
	}{
		{"BOOT", "server ready", "[BOOT] server ready"},
		{"", "plain", "plain"},
		{"REF", "[HTTP] already tagged", "[HTTP] already tagged"},
		{" MODEL ", " call ", "[MODEL] call"},
	}
	for _, tt := range tests {
		if got := FormatLog(tt.tag, tt.msg); got != tt.want {
			t.Errorf("FormatLog(%q, %q) = %q, want %q", tt.tag, tt.msg, got, tt.want)
		}
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	logger, buf := newTestLogger(t, "info")

	logger.DebugTag("REF", "hidden %d", 1)
	logger.InfoTag("REF", "visible %d", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line written at info level: %q", out)
	}
	if !strings.Contains(out, "[REF] visible 2") {
		t.Errorf("missing tagged info line: %q", out)
	}
}

func TestLogger_WritesJSONFile(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(&LogCfg{LogLevel: "debug", LogDir: dir, LogFile: "app.log", Console: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	logger.WarnFields("cache miss", Fields{"exam_type": "geral", "references": 0})
	logger.Close()

	data, err := os.ReadFile(filepath.Join(dir, "app.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"exam_type":"geral"`) || !strings.Contains(string(data), `"references":0`) {
		t.Errorf("log file missing structured field: %s", data)
	}
}

func TestLogger_NilSafe(t *testing.T) {
	var logger *Logger
	logger.InfoTag("BOOT", "nothing happens")
	logger.Error("still nothing")
	if logger.Slog() == nil {
		t.Fatal("Slog() on nil logger must not return nil")
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() on nil logger = %v", err)
	}
}

func TestLogger_CleanOldLogs(t *testing.T) {
	logger, _ := newTestLogger(t, "info")
	dir := logger.config.LogDir
	now := time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)

	old := filepath.Join(dir, "test-2025-03-01.log")
	recent := filepath.Join(dir, "test-2025-03-18.log")
	for _, p := range []string{old, recent} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	logger.cleanOldLogs(now)

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Errorf("expected %s to be removed", old)
	}
	if _, err := os.Stat(recent); err != nil {
		t.Errorf("expected %s to be kept: %v", recent, err)
	}
}

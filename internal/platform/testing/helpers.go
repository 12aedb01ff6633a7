// Package testing holds fixtures shared by package tests.
package testing

import (
	"io"
	"path/filepath"
	"testing"

	"exam-analyzer-go/internal/platform/config"
	"exam-analyzer-go/internal/utils"
)

// SetupTestConfig returns the default configuration with every writable
// directory moved under t.TempDir and the offline model provider selected.
func SetupTestConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Server.IP = "127.0.0.1"
	cfg.Log.Dir = filepath.Join(dir, "logs")
	cfg.Log.File = "test.log"
	cfg.Reference.CacheDir = filepath.Join(dir, "reference_data")
	cfg.Upload.Dir = filepath.Join(dir, "uploads")
	cfg.Manifest.SQLite.DSN = filepath.Join(dir, "references.db")
	cfg.Model.Provider = config.ProviderStub
	return cfg
}

// SetupTestLogger returns a debug logger writing under t.TempDir with the
// console silenced. It is closed when the test ends.
func SetupTestLogger(t *testing.T) *utils.Logger {
	t.Helper()

	logger, err := utils.NewLogger(&utils.LogCfg{
		LogLevel: "debug",
		LogDir:   t.TempDir(),
		LogFile:  "test.log",
		Console:  io.Discard,
	})
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	t.Cleanup(func() { logger.Close() })
	return logger
}

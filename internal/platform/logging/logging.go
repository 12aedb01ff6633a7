package logging

import (
	"fmt"
	"io"
	"log/slog"

	"exam-analyzer-go/internal/utils"
)

// Config captures logging configuration options.
type Config struct {
	Level    string
	Dir      string
	Filename string
	Console  io.Writer
}

// Logger provides access to both slog and legacy logging APIs.
type Logger struct {
	legacy *utils.Logger
}

// New creates a new Logger instance backed by the utils logger.
func New(cfg Config) (*Logger, error) {
	legacy, err := utils.NewLogger(&utils.LogCfg{
		LogLevel: cfg.Level,
		LogDir:   cfg.Dir,
		LogFile:  cfg.Filename,
		Console:  cfg.Console,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return &Logger{legacy: legacy}, nil
}

// Legacy exposes the tagged printf-style logger used across the service.
func (l *Logger) Legacy() *utils.Logger {
	if l == nil {
		return nil
	}
	return l.legacy
}

// Slog exposes the structured logger for new integrations.
func (l *Logger) Slog() *slog.Logger {
	return l.Legacy().Slog()
}

func (l *Logger) Close() error {
	return l.Legacy().Close()
}

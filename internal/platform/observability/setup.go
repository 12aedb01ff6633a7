package observability

import (
	"context"
	"log/slog"
	"sync"
)

// Config toggles span and datapoint logging.
type Config struct {
	Enabled bool
}

// ShutdownFunc tears down whatever Setup installed.
type ShutdownFunc func(context.Context) error

var (
	loggerMu sync.RWMutex
	spanLog  *slog.Logger
	state    Config
)

func current() (*slog.Logger, Config) {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return spanLog, state
}

// Setup installs logger as the sink for spans and datapoints. When cfg is
// disabled the package stays silent.
func Setup(ctx context.Context, cfg Config, logger *slog.Logger) (ShutdownFunc, error) {
	loggerMu.Lock()
	state = cfg
	if cfg.Enabled {
		spanLog = logger
	} else {
		spanLog = nil
	}
	loggerMu.Unlock()

	if logger != nil {
		if cfg.Enabled {
			logger.InfoContext(ctx, "[OBSERVABILITY] span logging enabled")
		} else {
			logger.InfoContext(ctx, "[OBSERVABILITY] disabled")
		}
	}

	return func(context.Context) error {
		loggerMu.Lock()
		spanLog = nil
		state = Config{}
		loggerMu.Unlock()
		return nil
	}, nil
}

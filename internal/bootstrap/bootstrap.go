package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	_ "exam-analyzer-go/docs"
	"exam-analyzer-go/internal/app/services"
	"exam-analyzer-go/internal/core/providers/genmodel"
	"exam-analyzer-go/internal/domain/eventbus"
	"exam-analyzer-go/internal/domain/exam"
	"exam-analyzer-go/internal/domain/reference"
	"exam-analyzer-go/internal/domain/reference/manifest"
	platformconfig "exam-analyzer-go/internal/platform/config"
	platformerrors "exam-analyzer-go/internal/platform/errors"
	platformlogging "exam-analyzer-go/internal/platform/logging"
	"exam-analyzer-go/internal/platform/metrics"
	platformobservability "exam-analyzer-go/internal/platform/observability"
	platformstorage "exam-analyzer-go/internal/platform/storage"
	httptransport "exam-analyzer-go/internal/transport/http"
	httpexam "exam-analyzer-go/internal/transport/http/exam"
	"exam-analyzer-go/internal/utils"
)

const bootTag = "BOOT"

type stepFn func(context.Context, *appState) error

type initStep struct {
	ID        string
	Title     string
	DependsOn []string
	Kind      platformerrors.Kind
	Execute   stepFn
}

type appState struct {
	loader                *platformconfig.Loader
	config                *platformconfig.Config
	configPath            string
	logProvider           *platformlogging.Logger
	logger                *utils.Logger
	slogger               *slog.Logger
	observabilityShutdown platformobservability.ShutdownFunc
	db                    *gorm.DB
	manifest              manifest.Store
	events                *eventbus.Bus
	catalog               *exam.Catalog
	cache                 *reference.Cache
	model                 genmodel.Client
	analysis              *services.AnalysisService
}

// Run loads configuration, wires the analyzer and serves HTTP until ctx is
// cancelled or SIGINT/SIGTERM arrives.
func Run(ctx context.Context) error {
	state := &appState{}

	steps := InitGraph()
	if err := executeInitSteps(ctx, steps, state); err != nil {
		state.close()
		return err
	}
	defer state.close()

	logger := state.logger
	logBootstrapGraph(steps, logger)

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	if _, err := startHTTPServer(state, group, groupCtx); err != nil {
		cancel()
		return platformerrors.Wrap(platformerrors.KindTransport, "http:start", "failed to start http server", err)
	}

	return waitForShutdown(signalCtx, cancel, logger, group, state.config.Server.ShutdownTimeout)
}

func logBootstrapGraph(steps []initStep, logger *utils.Logger) {
	if logger == nil {
		return
	}
	logger.InfoTag(bootTag, "init graph:")
	for _, step := range steps {
		deps := "-"
		if len(step.DependsOn) > 0 {
			deps = strings.Join(step.DependsOn, ", ")
		}
		logger.InfoTag(bootTag, "  %s (%s) <- %s", step.ID, step.Title, deps)
	}
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	if state == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"execute init steps",
			"nil bootstrap state",
		)
	}

	completed := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				return platformerrors.New(
					platformerrors.KindBootstrap,
					step.ID,
					fmt.Sprintf("dependency %s not satisfied", dep),
				)
			}
		}
		if step.Execute == nil {
			return platformerrors.New(
				platformerrors.KindBootstrap,
				step.ID,
				"missing execute function",
			)
		}
		if err := step.Execute(ctx, state); err != nil {
			kind := step.Kind
			if kind == "" {
				kind = platformerrors.KindBootstrap
			}
			return platformerrors.Wrap(kind, step.ID, "bootstrap step failed", err)
		}
		completed[step.ID] = struct{}{}
	}
	return nil
}

func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load",
			Title:   "Load configuration",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:        "logging:init-provider",
			Title:     "Initialise logging provider",
			DependsOn: []string{"config:load"},
			Execute:   initLoggingStep,
		},
		{
			ID:        "observability:setup-hooks",
			Title:     "Setup observability hooks",
			DependsOn: []string{"logging:init-provider"},
			Execute:   setupObservabilityStep,
		},
		{
			ID:        "metrics:register",
			Title:     "Register Prometheus collectors",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindPlatform,
			Execute:   registerMetricsStep,
		},
		{
			ID:        "storage:init-manifest",
			Title:     "Open reference manifest",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindStorage,
			Execute:   initManifestStep,
		},
		{
			ID:        "events:init-bus",
			Title:     "Start event bus",
			DependsOn: []string{"logging:init-provider", "metrics:register"},
			Execute:   initEventBusStep,
		},
		{
			ID:        "reference:init-cache",
			Title:     "Initialise reference cache",
			DependsOn: []string{"storage:init-manifest", "events:init-bus"},
			Kind:      platformerrors.KindDomain,
			Execute:   initReferenceCacheStep,
		},
		{
			ID:        "model:init-client",
			Title:     "Initialise model client",
			DependsOn: []string{"observability:setup-hooks", "metrics:register"},
			Kind:      platformerrors.KindModel,
			Execute:   initModelClientStep,
		},
		{
			ID:        "analysis:init-service",
			Title:     "Initialise analysis service",
			DependsOn: []string{"reference:init-cache", "model:init-client"},
			Kind:      platformerrors.KindDomain,
			Execute:   initAnalysisStep,
		},
	}
}

func loadConfigStep(_ context.Context, state *appState) error {
	loader := state.loader
	if loader == nil {
		loader = platformconfig.NewLoader()
	}
	result, err := loader.Load()
	if err != nil {
		return err
	}
	state.config = result.Config
	state.configPath = result.Path
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	if state.config == nil {
		return platformerrors.New(platformerrors.KindBootstrap, "logging:init-provider", "config not loaded")
	}

	logProvider, err := platformlogging.New(platformlogging.Config{
		Level:    state.config.Log.Level,
		Dir:      state.config.Log.Dir,
		Filename: state.config.Log.File,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "logging:init-provider", "failed to initialize logging provider", err)
	}

	state.logProvider = logProvider
	state.logger = logProvider.Legacy()
	state.slogger = logProvider.Slog()
	utils.DefaultLogger = state.logger

	source := state.configPath
	if source == "" {
		source = "defaults"
	}
	state.logger.InfoTag(bootTag, "logging ready [%s] config=%s", state.config.Log.Level, source)
	return nil
}

func setupObservabilityStep(ctx context.Context, state *appState) error {
	cfg := platformobservability.Config{
		Enabled: state.config.Observability.Enabled || strings.EqualFold(state.config.Log.Level, "debug"),
	}
	shutdown, err := platformobservability.Setup(ctx, cfg, state.slogger)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "observability:setup-hooks", "failed to setup observability hooks", err)
	}
	state.observabilityShutdown = shutdown
	return nil
}

func registerMetricsStep(_ context.Context, state *appState) error {
	if state.config.Observability.Metrics {
		metrics.Register()
	}
	return nil
}

func initManifestStep(_ context.Context, state *appState) error {
	mc := state.config.Manifest
	cfg := manifest.Config{
		Driver: mc.Driver,
		SQLite: &manifest.SQLiteConfig{DSN: mc.SQLite.DSN},
		Redis: &manifest.RedisConfig{
			Addr:     mc.Redis.Addr,
			Username: mc.Redis.Username,
			Password: mc.Redis.Password,
			DB:       mc.Redis.DB,
			Prefix:   mc.Redis.Prefix,
		},
	}

	var deps manifest.Dependencies
	if mc.Driver == platformconfig.ManifestSQLite {
		db, err := platformstorage.Open(mc.SQLite.DSN)
		if err != nil {
			return platformerrors.Wrap(platformerrors.KindStorage, "storage:init-manifest", "failed to open sqlite", err)
		}
		state.db = db
		deps.SQLiteDB = db
	}

	store, err := manifest.New(cfg, deps)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindStorage, "storage:init-manifest", "failed to create manifest store", err)
	}
	state.manifest = store
	state.logger.InfoTag("STORE", "reference manifest driver: %s", cfg.Driver)
	return nil
}

func initEventBusStep(_ context.Context, state *appState) error {
	bus := eventbus.New(eventbus.Options{
		Logger: state.logger,
		OnDrop: func(topic string) {
			metrics.EventsDroppedTotal.Inc()
			state.logger.WarnTag("EVENT", "event queue full, dropped %s", topic)
		},
	})
	if err := eventbus.RegisterHandlers(bus, state.logger); err != nil {
		return err
	}
	bus.Start()
	state.events = bus
	return nil
}

func initReferenceCacheStep(_ context.Context, state *appState) error {
	state.catalog = catalogFromConfig(state.config)

	rc := state.config.Reference
	cache, err := reference.NewCache(state.catalog, reference.Options{
		Dir:        rc.CacheDir,
		UserAgent:  rc.UserAgent,
		Timeout:    rc.Timeout,
		MaxPerExam: rc.MaxPerExam,
		Manifest:   state.manifest,
		Events:     state.events,
		Logger:     state.logger,
	})
	if err != nil {
		return err
	}
	state.cache = cache
	state.logger.InfoTag("REF", "reference cache at %s (%d exam types, max %d per exam)",
		cache.Dir(), len(state.catalog.Entries()), rc.MaxPerExam)
	return nil
}

// catalogFromConfig honours the exams section when present.
func catalogFromConfig(cfg *platformconfig.Config) *exam.Catalog {
	if len(cfg.Exams) == 0 {
		return exam.DefaultCatalog()
	}
	entries := make([]exam.Entry, 0, len(cfg.Exams))
	for _, e := range cfg.Exams {
		entries = append(entries, exam.Entry{
			Type:       exam.Type(e.Type),
			Keywords:   e.Keywords,
			References: e.References,
		})
	}
	return exam.NewCatalog(entries)
}

func initModelClientStep(_ context.Context, state *appState) error {
	mc := state.config.Model
	client, err := genmodel.New(genmodel.Config{
		Provider: mc.Provider,
		Timeout:  mc.Timeout,
		Gemini:   genmodel.GeminiConfig{BaseURL: mc.Gemini.BaseURL},
		OpenAI: genmodel.OpenAIConfig{
			APIKey:    mc.OpenAI.APIKey,
			BaseURL:   mc.OpenAI.BaseURL,
			MaxTokens: mc.OpenAI.MaxTokens,
		},
		Logger: state.logger,
	})
	if err != nil {
		return err
	}
	state.model = client

	if mc.Credential() == "" {
		state.logger.WarnTag("MODEL", "no credential configured for %s; requests must send X-API-Key", mc.Provider)
	}
	state.logger.InfoTag("MODEL", "provider=%s model=%s", client.Provider(), mc.Name)
	return nil
}

func initAnalysisStep(_ context.Context, state *appState) error {
	state.analysis = services.NewAnalysisService(services.AnalysisConfig{
		Catalog:    state.catalog,
		References: state.cache,
		Model:      state.model,
		Events:     state.events,
		Logger:     state.logger,
	})
	return nil
}

func buildRouter(state *appState) (*httptransport.Router, error) {
	router, err := httptransport.Build(httptransport.Options{
		Config: state.config,
		Logger: state.logger,
	})
	if err != nil {
		return nil, err
	}

	examService, err := httpexam.NewService(httpexam.Options{
		Config:   state.config,
		Analyzer: state.analysis,
		Cache:    state.cache,
		Manifest: state.manifest,
		Logger:   state.logger,
	})
	if err != nil {
		return nil, err
	}
	examService.Register(router)
	return router, nil
}

func startHTTPServer(state *appState, g *errgroup.Group, groupCtx context.Context) (*http.Server, error) {
	router, err := buildRouter(state)
	if err != nil {
		return nil, err
	}

	cfg := state.config.Server
	logger := state.logger
	httpServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.IP, strconv.Itoa(cfg.Port)),
		Handler:           router.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		logger.InfoTag("HTTP", "listening on http://localhost:%d", cfg.Port)
		logger.InfoTag("HTTP", "API docs at http://localhost:%d/docs", cfg.Port)

		go func() {
			<-groupCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.ErrorTag("HTTP", "http shutdown failed: %v", err)
			} else {
				logger.InfoTag("HTTP", "http server stopped")
			}
		}()

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorTag("HTTP", "http server failed: %v", err)
			return err
		}
		return nil
	})

	return httpServer, nil
}

func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	logger *utils.Logger,
	g *errgroup.Group,
	timeout time.Duration,
) error {
	<-ctx.Done()
	logger.InfoTag(bootTag, "shutting down: %v", context.Cause(ctx))

	cancel()

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	select {
	case err := <-done:
		if err != nil {
			logger.ErrorTag(bootTag, "shutdown finished with error: %v", err)
			return err
		}
		logger.InfoTag(bootTag, "all services stopped")
	case <-time.After(timeout):
		logger.ErrorTag(bootTag, "shutdown timed out after %s", timeout)
		return platformerrors.New(platformerrors.KindBootstrap, "shutdown", "timed out waiting for services")
	}
	return nil
}

// close releases everything the init steps acquired, in reverse order.
func (s *appState) close() {
	if s.events != nil {
		s.events.Stop()
	}
	if s.manifest != nil {
		if err := s.manifest.Close(context.Background()); err != nil {
			s.logger.WarnTag("STORE", "close manifest: %v", err)
		}
	}
	if s.db != nil {
		if err := platformstorage.Close(s.db); err != nil {
			s.logger.WarnTag("STORE", "close database: %v", err)
		}
	}
	if s.observabilityShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.observabilityShutdown(ctx); err != nil {
			s.logger.WarnTag(bootTag, "observability shutdown: %v", err)
		}
		cancel()
	}
	if s.logProvider != nil {
		_ = s.logProvider.Close()
	}
}

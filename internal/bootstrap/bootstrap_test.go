package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	platformconfig "exam-analyzer-go/internal/platform/config"
	platformerrors "exam-analyzer-go/internal/platform/errors"
	"exam-analyzer-go/internal/utils"
)

func testState(t *testing.T, extra string) *appState {
	t.Helper()
	dir := t.TempDir()
	content := `
log:
  log_level: "info"
  log_dir: "` + filepath.Join(dir, "logs") + `"
  log_file: "test.log"
model:
  provider: stub
reference:
  cache_dir: "` + filepath.Join(dir, "refs") + `"
upload:
  dir: "` + filepath.Join(dir, "uploads") + `"
observability:
  metrics: true
` + extra
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	loader := platformconfig.NewLoader().
		WithDotEnv(false).
		WithPath(path).
		WithEnv(func(string) (string, bool) { return "", false })
	return &appState{loader: loader}
}

func TestInitGraphOrder(t *testing.T) {
	steps := InitGraph()
	want := []string{
		"config:load",
		"logging:init-provider",
		"observability:setup-hooks",
		"metrics:register",
		"storage:init-manifest",
		"events:init-bus",
		"reference:init-cache",
		"model:init-client",
		"analysis:init-service",
	}
	if len(steps) != len(want) {
		t.Fatalf("unexpected step count: got %d want %d", len(steps), len(want))
	}
	for i, step := range steps {
		if step.ID != want[i] {
			t.Fatalf("step %d mismatch: got %s want %s", i, step.ID, want[i])
		}
	}
}

func TestInitGraphDependenciesPrecedeSteps(t *testing.T) {
	seen := map[string]bool{}
	for _, step := range InitGraph() {
		for _, dep := range step.DependsOn {
			if !seen[dep] {
				t.Fatalf("step %s depends on %s which runs later or not at all", step.ID, dep)
			}
		}
		seen[step.ID] = true
	}
}

func TestExecuteInitStepsRejectsUnmetDependency(t *testing.T) {
	steps := []initStep{{
		ID:        "b",
		DependsOn: []string{"a"},
		Execute:   func(context.Context, *appState) error { return nil },
	}}
	err := executeInitSteps(context.Background(), steps, &appState{})
	if !platformerrors.IsKind(err, platformerrors.KindBootstrap) {
		t.Fatalf("expected bootstrap error, got %v", err)
	}
}

func TestExecuteInitGraph(t *testing.T) {
	state := testState(t, "")
	if err := executeInitSteps(context.Background(), InitGraph(), state); err != nil {
		t.Fatalf("executeInitSteps failed: %v", err)
	}
	defer state.close()

	if state.config == nil || state.logger == nil {
		t.Fatal("config/logger not initialised")
	}
	if state.manifest == nil || state.events == nil || state.cache == nil {
		t.Fatal("domain dependencies not initialised")
	}
	if state.model == nil || state.model.Provider() != "stub" {
		t.Fatalf("unexpected model client %v", state.model)
	}
	if state.analysis == nil {
		t.Fatal("analysis service is nil")
	}
	if state.observabilityShutdown == nil {
		t.Fatal("observability shutdown hook not set")
	}
}

func TestExecuteInitGraphWithSQLiteManifest(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "refs.db")
	state := testState(t, `
manifest:
  driver: sqlite
  sqlite:
    dsn: "`+dsn+`"
`)
	if err := executeInitSteps(context.Background(), InitGraph(), state); err != nil {
		t.Fatalf("executeInitSteps failed: %v", err)
	}
	defer state.close()

	if state.db == nil {
		t.Fatal("sqlite handle not opened")
	}
	if _, err := os.Stat(dsn); err != nil {
		t.Fatalf("sqlite file not created: %v", err)
	}
}

func TestExecuteInitGraphInvalidConfig(t *testing.T) {
	state := testState(t, `
server:
  port: 70000
`)
	err := executeInitSteps(context.Background(), InitGraph(), state)
	if !platformerrors.IsKind(err, platformerrors.KindConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestRouterServesHealthAndForm(t *testing.T) {
	state := testState(t, "")
	if err := executeInitSteps(context.Background(), InitGraph(), state); err != nil {
		t.Fatalf("executeInitSteps failed: %v", err)
	}
	defer state.close()

	router, err := buildRouter(state)
	if err != nil {
		t.Fatalf("buildRouter: %v", err)
	}

	for _, path := range []string{"/", "/api/health", "/openapi.json", "/docs", "/metrics"} {
		rec := httptest.NewRecorder()
		router.Engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s: got %d: %s", path, rec.Code, rec.Body.String())
		}
	}
}

func TestLogBootstrapGraphOutput(t *testing.T) {
	tmp := t.TempDir()
	logger, err := utils.NewLogger(&utils.LogCfg{
		LogLevel: "info",
		LogDir:   tmp,
		LogFile:  "graph.log",
		Console:  &strings.Builder{},
	})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logBootstrapGraph(InitGraph(), logger)
	logger.Close()

	data, err := os.ReadFile(filepath.Join(tmp, "graph.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "analysis:init-service") {
		t.Fatalf("graph log missing final step: %s", data)
	}
}

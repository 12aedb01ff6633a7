package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestStartSpan_LogsWhenEnabled(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	shutdown, err := Setup(context.Background(), Config{Enabled: true}, logger)
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	defer shutdown(context.Background())

	_, end := StartSpan(context.Background(), "reference", "fetch")
	end(errors.New("status 404"))
	RecordMetric(context.Background(), "reference_fetch", 1, map[string]string{"outcome": "failed"})

	out := buf.String()
	for _, want := range []string{"obs span start", "obs span end", "status 404", "metric=reference_fetch", "outcome=failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestStartSpan_SilentWhenDisabled(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	shutdown, _ := Setup(context.Background(), Config{Enabled: false}, logger)
	defer shutdown(context.Background())
	buf.Reset()

	_, end := StartSpan(context.Background(), "model", "generate")
	end(nil)

	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
	if Enabled() {
		t.Fatal("Enabled() = true after disabled setup")
	}
}

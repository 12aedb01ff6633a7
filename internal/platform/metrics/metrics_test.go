package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegister_Idempotent(t *testing.T) {
	Register()
	Register()

	if err := prometheus.Register(AnalysesTotal); err == nil {
		t.Fatal("expected AlreadyRegisteredError after Register()")
	}
}

func TestObserveModelCall(t *testing.T) {
	before := testutil.CollectAndCount(ModelCallDurationSeconds)

	ObserveModelCall("unit-test", time.Now(), nil)
	ObserveModelCall("unit-test", time.Now(), errors.New("quota"))

	after := testutil.CollectAndCount(ModelCallDurationSeconds)
	if after-before != 2 {
		t.Fatalf("expected two new series, got %d", after-before)
	}
}

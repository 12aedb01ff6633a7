package eventbus

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exam-analyzer-go/internal/platform/metrics"
)

func TestBus_PublishSync(t *testing.T) {
	bus := New(Options{})
	var got ReferenceEventData
	require.NoError(t, bus.Subscribe(EventReferenceFailed, func(e ReferenceEventData) { got = e }))

	bus.Publish(EventReferenceFailed, ReferenceEventData{ExamType: "geral", Error: "timeout"})

	assert.Equal(t, "timeout", got.Error)
	assert.True(t, bus.HasCallback(EventReferenceFailed))
}

func TestBus_StopDrainsAsyncQueue(t *testing.T) {
	bus := New(Options{Workers: 2, QueueSize: 16})
	var handled atomic.Int32
	require.NoError(t, bus.Subscribe(EventAnalysisCompleted, func(AnalysisEventData) {
		time.Sleep(time.Millisecond)
		handled.Add(1)
	}))
	bus.Start()

	for i := 0; i < 10; i++ {
		bus.PublishAsync(EventAnalysisCompleted, AnalysisEventData{})
	}
	bus.Stop()

	assert.EqualValues(t, 10, handled.Load())

	// publishing after Stop is a no-op
	bus.PublishAsync(EventAnalysisCompleted, AnalysisEventData{})
	assert.EqualValues(t, 10, handled.Load())
}

func TestBus_DropsWhenFull(t *testing.T) {
	var dropped []string
	bus := New(Options{QueueSize: 1, OnDrop: func(topic string) { dropped = append(dropped, topic) }})
	require.NoError(t, bus.Subscribe(EventAnalysisFailed, func(AnalysisEventData) {}))

	// not started: the first event waits in the queue, the second is dropped
	bus.PublishAsync(EventAnalysisFailed, AnalysisEventData{})
	bus.PublishAsync(EventAnalysisFailed, AnalysisEventData{})
	bus.Stop()

	assert.Equal(t, []string{EventAnalysisFailed}, dropped)
}

func TestBus_RecoversHandlerPanic(t *testing.T) {
	bus := New(Options{})
	require.NoError(t, bus.Subscribe(EventReferenceCached, func(ReferenceEventData) { panic("boom") }))

	assert.NotPanics(t, func() {
		bus.Publish(EventReferenceCached, ReferenceEventData{})
	})
}

func TestRegisterHandlers_UpdatesMetrics(t *testing.T) {
	bus := New(Options{})
	require.NoError(t, RegisterHandlers(bus, nil))

	counter := metrics.ReferenceFetchesTotal.WithLabelValues("downloaded", "handler_test")
	before := testutil.ToFloat64(counter)
	bus.Publish(EventReferenceDownloaded, ReferenceEventData{ExamType: "handler_test", Bytes: 10})
	assert.Equal(t, before+1, testutil.ToFloat64(counter))

	analyses := metrics.AnalysesTotal.WithLabelValues("error", "handler_test")
	before = testutil.ToFloat64(analyses)
	bus.Publish(EventAnalysisFailed, AnalysisEventData{ExamType: "handler_test", Error: "quota"})
	assert.Equal(t, before+1, testutil.ToFloat64(analyses))
}

package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// AnalysesTotal counts finished analyses by result and exam type.
	AnalysesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exam_analyzer",
		Subsystem: "analysis",
		Name:      "total",
		Help:      "Total number of exam analyses, labeled by result and exam type.",
	}, []string{"result", "exam_type"})

	// AnalysisDurationSeconds is end-to-end orchestrator time.
	AnalysisDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "exam_analyzer",
		Subsystem: "analysis",
		Name:      "duration_seconds",
		Help:      "Time to classify, fetch references and call the model for one exam.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
	}, []string{"result"})

	// ReferencesUsed is the number of reference images sent with an analysis.
	ReferencesUsed = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "exam_analyzer",
		Subsystem: "analysis",
		Name:      "references_used",
		Help:      "Reference images included per analysis.",
		Buckets:   []float64{0, 1, 2},
	})

	// ReferenceFetchesTotal counts per-URL reference outcomes.
	ReferenceFetchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exam_analyzer",
		Subsystem: "reference",
		Name:      "fetches_total",
		Help:      "Reference image lookups, labeled by outcome (cached, downloaded, failed).",
	}, []string{"outcome", "exam_type"})

	// ModelCallDurationSeconds is the latency of the generative model call.
	ModelCallDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "exam_analyzer",
		Subsystem: "model",
		Name:      "call_duration_seconds",
		Help:      "Latency of generative model calls, labeled by provider and result.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	}, []string{"provider", "result"})

	// EventsDroppedTotal counts async events discarded because the queue was full.
	EventsDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exam_analyzer",
		Subsystem: "events",
		Name:      "dropped_total",
		Help:      "Asynchronous domain events dropped because the queue was full.",
	})

	// UploadsRejectedTotal counts uploads refused before analysis.
	UploadsRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exam_analyzer",
		Subsystem: "http",
		Name:      "uploads_rejected_total",
		Help:      "Uploads rejected by the HTTP layer, labeled by reason.",
	}, []string{"reason"})
)

// Register registers the collectors with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			AnalysesTotal,
			AnalysisDurationSeconds,
			ReferencesUsed,
			ReferenceFetchesTotal,
			ModelCallDurationSeconds,
			EventsDroppedTotal,
			UploadsRejectedTotal,
		)
	})
}

// ObserveModelCall records one model call.
func ObserveModelCall(provider string, started time.Time, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	ModelCallDurationSeconds.WithLabelValues(provider, result).Observe(time.Since(started).Seconds())
}

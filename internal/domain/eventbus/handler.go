package eventbus

import (
	"exam-analyzer-go/internal/platform/metrics"
	"exam-analyzer-go/internal/utils"
)

// RegisterHandlers wires logging and Prometheus updates to the domain topics.
func RegisterHandlers(bus *Bus, logger *utils.Logger) error {
	subscriptions := []struct {
		topic string
		fn    interface{}
	}{
		{EventReferenceCached, func(e ReferenceEventData) {
			metrics.ReferenceFetchesTotal.WithLabelValues("cached", e.ExamType).Inc()
		}},
		{EventReferenceDownloaded, func(e ReferenceEventData) {
			metrics.ReferenceFetchesTotal.WithLabelValues("downloaded", e.ExamType).Inc()
			logger.InfoTag("REF", "downloaded %s #%d (%d bytes in %s)", e.ExamType, e.Index, e.Bytes, e.Duration)
		}},
		{EventReferenceFailed, func(e ReferenceEventData) {
			metrics.ReferenceFetchesTotal.WithLabelValues("failed", e.ExamType).Inc()
		}},
		{EventAnalysisCompleted, func(e AnalysisEventData) {
			metrics.AnalysesTotal.WithLabelValues("success", e.ExamType).Inc()
			metrics.AnalysisDurationSeconds.WithLabelValues("success").Observe(e.Duration.Seconds())
			metrics.ReferencesUsed.Observe(float64(e.ReferencesUsed))
			logger.InfoTag("ANALYSIS", "%s analysed with %s using %d references in %s",
				e.ExamType, e.Model, e.ReferencesUsed, e.Duration)
		}},
		{EventAnalysisFailed, func(e AnalysisEventData) {
			metrics.AnalysesTotal.WithLabelValues("error", e.ExamType).Inc()
			metrics.AnalysisDurationSeconds.WithLabelValues("error").Observe(e.Duration.Seconds())
			logger.WarnTag("ANALYSIS", "%s analysis with %s failed after %s: %s",
				e.ExamType, e.Model, e.Duration, e.Error)
		}},
	}

	for _, s := range subscriptions {
		if err := bus.Subscribe(s.topic, s.fn); err != nil {
			return err
		}
	}
	return nil
}

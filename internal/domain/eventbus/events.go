package eventbus

import "time"

const (
	EventReferenceCached     = "reference:cached"
	EventReferenceDownloaded = "reference:downloaded"
	EventReferenceFailed     = "reference:failed"

	EventAnalysisCompleted = "analysis:completed"
	EventAnalysisFailed    = "analysis:failed"
)

// ReferenceEventData describes the outcome for one reference URL.
type ReferenceEventData struct {
	ExamType string        `json:"exam_type"`
	Index    int           `json:"index"`
	URL      string        `json:"url"`
	Path     string        `json:"path,omitempty"`
	Bytes    int64         `json:"bytes,omitempty"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// AnalysisEventData describes one finished orchestrator run.
type AnalysisEventData struct {
	ExamType       string        `json:"exam_type"`
	Model          string        `json:"model"`
	Source         string        `json:"source"`
	ReferencesUsed int           `json:"references_used"`
	Duration       time.Duration `json:"duration"`
	Error          string        `json:"error,omitempty"`
}

package services

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"exam-analyzer-go/internal/core/providers/genmodel"
	"exam-analyzer-go/internal/domain/content"
	"exam-analyzer-go/internal/domain/eventbus"
	"exam-analyzer-go/internal/domain/exam"
	"exam-analyzer-go/internal/domain/image"
	"exam-analyzer-go/internal/domain/prompt"
	"exam-analyzer-go/internal/domain/reference"
	"exam-analyzer-go/internal/platform/observability"
	"exam-analyzer-go/internal/utils"
)

// AnalysisResult is returned to HTTP callers as-is.
type AnalysisResult struct {
	Success        bool   `json:"success"`
	ExamType       string `json:"exam_type"`
	Analysis       string `json:"analysis"`
	ReferencesUsed int    `json:"references_used"`
	ModelUsed      string `json:"model_used"`
}

// AnalysisError wraps a failed analysis. Its text is the cause's text so
// callers can match on what the model service said.
type AnalysisError struct {
	ExamType exam.Type
	Model    string
	Cause    error
}

func (e *AnalysisError) Error() string {
	return e.Cause.Error()
}

func (e *AnalysisError) Unwrap() error {
	return e.Cause
}

// ReferenceSource yields the reference images for an exam type. It never
// fails; unavailable references are simply left out.
type ReferenceSource interface {
	References(ctx context.Context, t exam.Type) []reference.Image
}

// AnalysisService classifies an exam, gathers its references and asks the
// model for a comparative report.
type AnalysisService struct {
	catalog    *exam.Catalog
	references ReferenceSource
	model      genmodel.Client
	events     eventbus.Publisher
	logger     *utils.Logger

	pathNormalizer  *image.Normalizer
	bytesNormalizer *image.Normalizer
}

// AnalysisConfig wires the service collaborators.
type AnalysisConfig struct {
	Catalog    *exam.Catalog
	References ReferenceSource
	Model      genmodel.Client
	// Events is optional.
	Events eventbus.Publisher
	Logger *utils.Logger
}

func NewAnalysisService(cfg AnalysisConfig) *AnalysisService {
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = exam.DefaultCatalog()
	}
	return &AnalysisService{
		catalog:         catalog,
		references:      cfg.References,
		model:           cfg.Model,
		events:          cfg.Events,
		logger:          cfg.Logger,
		pathNormalizer:  image.NewNormalizer(image.PathFormats, cfg.Logger),
		bytesNormalizer: image.NewNormalizer(image.BytesFormats, cfg.Logger),
	}
}

// AnalyzeExam analyses the image stored at path. The file is only read;
// removing it is up to the caller.
func (s *AnalysisService) AnalyzeExam(ctx context.Context, path, credential, description, model string) (*AnalysisResult, error) {
	t := s.catalog.Classify(filepath.Base(path), description)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, s.fail(t, model, "path", time.Now(), err)
	}
	return s.analyze(ctx, analysisInput{
		examType:    t,
		image:       s.pathNormalizer.Normalize(data),
		source:      prompt.FromPath,
		credential:  credential,
		description: description,
		model:       model,
	})
}

// AnalyzeExamFromBytes analyses an in-memory upload. filename only feeds
// classification.
func (s *AnalysisService) AnalyzeExamFromBytes(ctx context.Context, data []byte, filename, credential, description, model string) (*AnalysisResult, error) {
	return s.analyze(ctx, analysisInput{
		examType:    s.catalog.Classify(filename, description),
		image:       s.bytesNormalizer.Normalize(data),
		source:      prompt.FromBytes,
		credential:  credential,
		description: description,
		model:       model,
	})
}

type analysisInput struct {
	examType    exam.Type
	image       image.Normalized
	source      prompt.Source
	credential  string
	description string
	model       string
}

func (s *AnalysisService) analyze(ctx context.Context, in analysisInput) (result *AnalysisResult, err error) {
	started := time.Now()
	ctx, end := observability.StartSpan(ctx, "analysis", string(in.examType))
	defer func() { end(err) }()

	s.logger.InfoTag("ANALYSIS", "exam type %s detected", in.examType)

	var refs []reference.Image
	if s.references != nil {
		refs = s.references.References(ctx, in.examType)
	}
	parts := BuildParts(refs, in.image, in.source, in.description, in.examType)

	text, err := s.model.Generate(ctx, genmodel.Request{
		Credential: in.credential,
		Model:      in.model,
		Parts:      parts,
	})
	if err != nil {
		return nil, s.fail(in.examType, in.model, sourceName(in.source), started, err)
	}

	result = &AnalysisResult{
		Success:        true,
		ExamType:       string(in.examType),
		Analysis:       text,
		ReferencesUsed: len(refs),
		ModelUsed:      in.model,
	}
	s.logger.InfoFields("analysis completed", utils.Fields{
		"exam_type":  result.ExamType,
		"model":      in.model,
		"references": result.ReferencesUsed,
		"elapsed_ms": time.Since(started).Milliseconds(),
	})
	s.publish(eventbus.EventAnalysisCompleted, eventbus.AnalysisEventData{
		ExamType:       result.ExamType,
		Model:          in.model,
		Source:         sourceName(in.source),
		ReferencesUsed: result.ReferencesUsed,
		Duration:       time.Since(started),
	})
	return result, nil
}

// BuildParts lays out the model request: references first, then the
// patient image, the optional description and finally the instructions.
func BuildParts(refs []reference.Image, patient image.Normalized, src prompt.Source, description string, t exam.Type) []content.Part {
	parts := make([]content.Part, 0, 2*len(refs)+5)
	if len(refs) > 0 {
		parts = append(parts, content.Text(prompt.ReferenceHeader))
		for i, ref := range refs {
			parts = append(parts, content.Text(prompt.ReferenceLabel(i)), content.Image(ref.Data, ref.MIMEType))
		}
	}
	parts = append(parts, content.Text(prompt.PatientHeader), content.Image(patient.Data, patient.MIMEType))
	if description != "" {
		parts = append(parts, content.Text(prompt.DescriptionPart(src, description)))
	}
	return append(parts, content.Text(prompt.BuildInstructions(t)))
}

func (s *AnalysisService) fail(t exam.Type, model, source string, started time.Time, cause error) error {
	s.logger.ErrorTag("ANALYSIS", "analysis of %s failed: %v", t, cause)
	s.publish(eventbus.EventAnalysisFailed, eventbus.AnalysisEventData{
		ExamType: string(t),
		Model:    model,
		Source:   source,
		Duration: time.Since(started),
		Error:    cause.Error(),
	})
	return &AnalysisError{ExamType: t, Model: model, Cause: cause}
}

func (s *AnalysisService) publish(topic string, data eventbus.AnalysisEventData) {
	if s.events != nil {
		s.events.PublishAsync(topic, data)
	}
}

func sourceName(src prompt.Source) string {
	if src == prompt.FromPath {
		return "path"
	}
	return "bytes"
}

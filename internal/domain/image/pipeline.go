package image

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"exam-analyzer-go/internal/utils"
)

// ErrTooLarge is returned when a payload exceeds the pipeline limit.
var ErrTooLarge = errors.New("image exceeds maximum size")

// ErrUnsafeContent is returned when the validator flags an executable,
// archive or scripted payload.
var ErrUnsafeContent = errors.New("upload content is not an image")

// Pipeline reads an upload under a size limit and inspects it.
type Pipeline struct {
	validator *UploadValidator
	maxSize   int64
}

type Options struct {
	MaxSize int64
	Logger  *utils.Logger
}

type Input struct {
	Reader         io.Reader
	DeclaredFormat string
	Source         string
}

type Output struct {
	Bytes      []byte
	Inspection Inspection
}

func NewPipeline(opts Options) *Pipeline {
	return &Pipeline{
		validator: NewUploadValidator(opts.Logger),
		maxSize:   opts.MaxSize,
	}
}

// Process buffers input fully. A non-positive MaxSize disables the limit.
// Payloads that do not decode are accepted unless the validator flags them.
func (p *Pipeline) Process(ctx context.Context, input Input) (*Output, error) {
	if input.Reader == nil {
		return nil, fmt.Errorf("image reader is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader := input.Reader
	var limited *io.LimitedReader
	if p.maxSize > 0 {
		limited = &io.LimitedReader{R: input.Reader, N: p.maxSize + 1}
		reader = limited
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return nil, fmt.Errorf("read %s: %w", input.Source, err)
	}
	if limited != nil && limited.N <= 0 {
		return nil, fmt.Errorf("%w of %d bytes", ErrTooLarge, p.maxSize)
	}

	data := buf.Bytes()
	insp := p.validator.Inspect(data, input.DeclaredFormat)
	if insp.SecurityRisk != "" {
		return nil, fmt.Errorf("%w: %s (sniffed %s)", ErrUnsafeContent, insp.SecurityRisk, insp.SniffedMIME)
	}
	return &Output{Bytes: data, Inspection: insp}, nil
}

package genmodel

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"exam-analyzer-go/internal/domain/content"
)

// Stub answers without any network access. The report is a deterministic
// function of the request, which makes it useful for local runs and tests.
type Stub struct{}

func NewStub() *Stub {
	return &Stub{}
}

func (s *Stub) Provider() string {
	return ProviderStub
}

func (s *Stub) Generate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Relatório offline (%s)\n\n", req.Model)
	images := 0
	for _, p := range req.Parts {
		if p.Kind != content.KindImage {
			continue
		}
		images++
		sum := sha256.Sum256(p.Data)
		fmt.Fprintf(&b, "- imagem %d: %s, %d bytes, sha256 %s\n", images, p.MIMEType, len(p.Data), hex.EncodeToString(sum[:8]))
	}
	fmt.Fprintf(&b, "\nTotal de partes: %d. Nenhum modelo remoto foi consultado.\n", len(req.Parts))
	return b.String(), nil
}

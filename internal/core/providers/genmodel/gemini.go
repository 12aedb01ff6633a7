package genmodel

import (
	"context"
	"net/http"

	"google.golang.org/genai"

	"exam-analyzer-go/internal/domain/content"
)

type geminiClient struct {
	baseURL    string
	httpClient *http.Client
}

func newGemini(cfg Config) *geminiClient {
	return &geminiClient{baseURL: cfg.Gemini.BaseURL, httpClient: cfg.HTTPClient}
}

func (g *geminiClient) Provider() string {
	return ProviderGemini
}

// Generate builds a client for the request credential, since each request
// may carry its own key.
func (g *geminiClient) Generate(ctx context.Context, req Request) (string, error) {
	if req.Credential == "" {
		return "", ErrNoCredential
	}

	cc := &genai.ClientConfig{
		APIKey:     req.Credential,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: g.httpClient,
	}
	if g.baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: g.baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return "", err
	}

	parts := make([]*genai.Part, 0, len(req.Parts))
	for _, p := range req.Parts {
		switch p.Kind {
		case content.KindText:
			parts = append(parts, genai.NewPartFromText(p.Text))
		case content.KindImage:
			parts = append(parts, genai.NewPartFromBytes(p.Data, p.MIMEType))
		}
	}

	resp, err := client.Models.GenerateContent(ctx, req.Model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, nil)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

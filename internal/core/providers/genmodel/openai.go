package genmodel

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"exam-analyzer-go/internal/domain/content"
)

type openAIClient struct {
	cfg        OpenAIConfig
	httpClient *http.Client
}

func newOpenAI(cfg Config) *openAIClient {
	return &openAIClient{cfg: cfg.OpenAI, httpClient: cfg.HTTPClient}
}

func (o *openAIClient) clientConfig(token string) openai.ClientConfig {
	cc := openai.DefaultConfig(token)
	if o.cfg.BaseURL != "" {
		cc.BaseURL = o.cfg.BaseURL
	}
	if o.httpClient != nil {
		cc.HTTPClient = o.httpClient
	}
	return cc
}

func (o *openAIClient) Provider() string {
	return ProviderOpenAI
}

// Generate sends one user message whose content parts mirror req.Parts.
// Images travel inline as data URLs.
func (o *openAIClient) Generate(ctx context.Context, req Request) (string, error) {
	token := req.Credential
	if token == "" {
		token = o.cfg.APIKey
	}
	if token == "" {
		return "", ErrNoCredential
	}

	multi := make([]openai.ChatMessagePart, 0, len(req.Parts))
	for _, p := range req.Parts {
		switch p.Kind {
		case content.KindText:
			multi = append(multi, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeText,
				Text: p.Text,
			})
		case content.KindImage:
			multi = append(multi, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    "data:" + p.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(p.Data),
					Detail: openai.ImageURLDetailHigh,
				},
			})
		}
	}

	resp, err := openai.NewClientWithConfig(o.clientConfig(token)).CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     req.Model,
		MaxTokens: o.cfg.MaxTokens,
		Messages: []openai.ChatCompletionMessage{{
			Role:         openai.ChatMessageRoleUser,
			MultiContent: multi,
		}},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

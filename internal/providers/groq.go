package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"litreview/internal/config"
)

// GroqProvider supports LLM generation via Groq's OpenAI-compatible API.
type GroqProvider struct {
	variant string
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

func NewGroqProvider(cfg config.GroqConfig, variant string, timeout time.Duration) *GroqProvider {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.groq.com/openai/v1"
	}
	return &GroqProvider{
		variant: variant,
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		model:   firstNonEmpty(variant, cfg.Model, "llama-3.1-8b-instant"),
		client:  newHTTPClient(timeout),
	}
}

func (g *GroqProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	info := ProviderInfo{Name: "groq", Model: g.model, Key: g.variant}
	if g.apiKey == "" {
		return GenerateResponse{}, info, fmt.Errorf("groq api key missing")
	}
	text, err := chatCompletion(ctx, g.client, "groq", g.baseURL+"/chat/completions", g.apiKey, g.model, req)
	if err != nil {
		return GenerateResponse{}, info, err
	}
	return GenerateResponse{Text: text}, info, nil
}

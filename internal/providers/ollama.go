package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"litreview/internal/config"
)

// OllamaProvider serves local, free embeddings and generation via Ollama.
// Example embedding model: nomic-embed-text.
type OllamaProvider struct {
	variant    string
	baseURL    string
	embedModel string
	chatModel  string
	client     *http.Client
}

func NewOllamaProvider(cfg config.OllamaConfig, variant string, timeout time.Duration) *OllamaProvider {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaProvider{
		variant:    variant,
		baseURL:    baseURL,
		embedModel: resolveOllamaEmbedModel(variant, cfg.EmbedModel),
		chatModel:  firstNonEmpty(variant, cfg.ChatModel, "llama3.1"),
		client:     newHTTPClient(timeout),
	}
}

func (o *OllamaProvider) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	info := ProviderInfo{Name: "ollama", Model: o.embedModel, Key: o.variant}
	if len(req.Inputs) == 0 {
		return nil, info, fmt.Errorf("no embedding inputs")
	}
	out := make([][]float32, 0, len(req.Inputs))
	for _, text := range req.Inputs {
		var parsed struct {
			Embedding []float32 `json:"embedding"`
		}
		payload := map[string]any{"model": o.embedModel, "prompt": text}
		if err := postJSON(ctx, o.client, "ollama", o.baseURL+"/api/embeddings", nil, payload, &parsed); err != nil {
			return nil, info, err
		}
		if len(parsed.Embedding) == 0 {
			return nil, info, fmt.Errorf("ollama returned empty embedding")
		}
		out = append(out, matchDimension(parsed.Embedding, req.Dimension))
	}
	return out, info, nil
}

func (o *OllamaProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	info := ProviderInfo{Name: "ollama", Model: o.chatModel, Key: o.variant}
	prompt := req.Prompt
	if len(req.Context) > 0 {
		prompt += "\n\nContext:\n" + strings.Join(req.Context, "\n\n")
	}
	payload := map[string]any{
		"model":   o.chatModel,
		"prompt":  prompt,
		"system":  firstNonEmpty(req.System, defaultSystemPrompt),
		"stream":  false,
		"options": map[string]any{"temperature": 0},
	}
	if req.JSONMode {
		payload["format"] = "json"
	}
	var parsed struct {
		Response string `json:"response"`
	}
	if err := postJSON(ctx, o.client, "ollama", o.baseURL+"/api/generate", nil, payload, &parsed); err != nil {
		return GenerateResponse{}, info, err
	}
	return GenerateResponse{Text: parsed.Response}, info, nil
}

// resolveOllamaEmbedModel maps short aliases to model tags. Variants that
// already look like a tag are used as-is.
func resolveOllamaEmbedModel(variant, configured string) string {
	variant = strings.TrimSpace(variant)
	switch strings.ToLower(variant) {
	case "":
	case "nomic":
		return "nomic-embed-text"
	case "bge":
		return "bge-small-en-v1.5"
	case "mpnet":
		return "all-minilm"
	default:
		return variant
	}
	return firstNonEmpty(configured, "nomic-embed-text")
}

func matchDimension(v []float32, target int) []float32 {
	if target <= 0 || len(v) == target {
		return v
	}
	if len(v) > target {
		return v[:target]
	}
	out := make([]float32, target)
	copy(out, v)
	return out
}

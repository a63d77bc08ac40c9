package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"litreview/internal/config"
)

const defaultSystemPrompt = "You are a research assistant helping with a systematic literature review. Answer only from the provided paper content."

// OpenAIProvider serves embeddings and chat completions from the OpenAI REST API.
type OpenAIProvider struct {
	variant    string
	apiKey     string
	baseURL    string
	chatModel  string
	embedModel string
	client     *http.Client
}

// NewOpenAIProvider builds a client. A non-empty variant overrides the chat
// model for generation and the embedding model for embeddings.
func NewOpenAIProvider(cfg config.OpenAIConfig, variant string, timeout time.Duration) *OpenAIProvider {
	p := &OpenAIProvider{
		variant:    variant,
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		chatModel:  cfg.ChatModel,
		embedModel: cfg.EmbedModel,
		client:     newHTTPClient(timeout),
	}
	if p.baseURL == "" {
		p.baseURL = "https://api.openai.com/v1"
	}
	return p
}

func (o *OpenAIProvider) info(model string) ProviderInfo {
	return ProviderInfo{Name: "openai", Model: model, Key: o.variant}
}

func (o *OpenAIProvider) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	model := firstNonEmpty(o.variant, o.embedModel, "text-embedding-3-small")
	if o.apiKey == "" {
		return nil, o.info(model), fmt.Errorf("openai api key missing")
	}
	payload := map[string]any{"model": model, "input": req.Inputs}
	if req.Dimension > 0 && strings.HasPrefix(model, "text-embedding-3") {
		payload["dimensions"] = req.Dimension
	}
	var parsed struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := postJSON(ctx, o.client, "openai", o.baseURL+"/embeddings", bearer(o.apiKey), payload, &parsed); err != nil {
		return nil, o.info(model), err
	}
	if len(parsed.Data) != len(req.Inputs) {
		return nil, o.info(model), fmt.Errorf("openai returned %d embeddings for %d inputs", len(parsed.Data), len(req.Inputs))
	}
	out := make([][]float32, len(parsed.Data))
	for i, d := range parsed.Data {
		idx := d.Index
		if idx < 0 || idx >= len(out) {
			idx = i
		}
		out[idx] = d.Embedding
	}
	return out, o.info(model), nil
}

func (o *OpenAIProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	model := firstNonEmpty(o.variant, o.chatModel, "gpt-4o-mini")
	if o.apiKey == "" {
		return GenerateResponse{}, o.info(model), fmt.Errorf("openai api key missing")
	}
	text, err := chatCompletion(ctx, o.client, "openai", o.baseURL+"/chat/completions", o.apiKey, model, req)
	if err != nil {
		return GenerateResponse{}, o.info(model), err
	}
	return GenerateResponse{Text: text}, o.info(model), nil
}

// chatCompletion speaks the OpenAI chat schema, which Groq also serves.
func chatCompletion(ctx context.Context, client *http.Client, provider, url, apiKey, model string, req GenerateRequest) (string, error) {
	prompt := req.Prompt
	if len(req.Context) > 0 {
		prompt += "\n\nContext:\n" + strings.Join(req.Context, "\n\n")
	}
	system := req.System
	if system == "" {
		system = defaultSystemPrompt
	}
	payload := map[string]any{
		"model": model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": prompt},
		},
		"temperature": 0,
	}
	if req.JSONMode {
		payload["response_format"] = map[string]string{"type": "json_object"}
	}
	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := postJSON(ctx, client, provider, url, bearer(apiKey), payload, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%s returned empty choices", provider)
	}
	return parsed.Choices[0].Message.Content, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

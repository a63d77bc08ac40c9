package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"litreview/internal/config"
)

// CohereProvider embeds text with Cohere's v1 embed endpoint.
type CohereProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

func NewCohereProvider(cfg config.CohereConfig, variant string, timeout time.Duration) *CohereProvider {
	return &CohereProvider{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(firstNonEmpty(cfg.BaseURL, "https://api.cohere.ai"), "/"),
		model:   firstNonEmpty(variant, cfg.Model, "embed-english-v2.0"),
		client:  newHTTPClient(timeout),
	}
}

func (c *CohereProvider) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	info := ProviderInfo{Name: "cohere", Model: c.model}
	if c.apiKey == "" {
		return nil, info, fmt.Errorf("cohere api key missing")
	}
	payload := map[string]any{"texts": req.Inputs, "model": c.model, "truncate": "END"}
	var parsed struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := postJSON(ctx, c.client, "cohere", c.baseURL+"/v1/embed", bearer(c.apiKey), payload, &parsed); err != nil {
		return nil, info, err
	}
	if len(parsed.Embeddings) != len(req.Inputs) {
		return nil, info, fmt.Errorf("cohere returned %d embeddings for %d inputs", len(parsed.Embeddings), len(req.Inputs))
	}
	for i := range parsed.Embeddings {
		parsed.Embeddings[i] = matchDimension(parsed.Embeddings[i], req.Dimension)
	}
	return parsed.Embeddings, info, nil
}

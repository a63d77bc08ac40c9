package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"litreview/internal/config"
)

// HuggingFaceProvider embeds text with a sentence-transformers model, either
// through a local text-embeddings-inference server or the hosted hub API.
type HuggingFaceProvider struct {
	hub      bool
	model    string
	apiKey   string
	localURL string
	hubURL   string
	client   *http.Client
}

func NewHuggingFaceProvider(cfg config.HuggingFaceConfig, variant string, hub bool, timeout time.Duration) *HuggingFaceProvider {
	return &HuggingFaceProvider{
		hub:      hub,
		model:    firstNonEmpty(variant, cfg.Model, "sentence-transformers/all-mpnet-base-v2"),
		apiKey:   cfg.APIKey,
		localURL: strings.TrimRight(firstNonEmpty(cfg.LocalURL, "http://localhost:8081"), "/"),
		hubURL:   strings.TrimRight(firstNonEmpty(cfg.HubURL, "https://api-inference.huggingface.co"), "/"),
		client:   newHTTPClient(timeout),
	}
}

func (h *HuggingFaceProvider) info() ProviderInfo {
	name := "huggingface"
	if h.hub {
		name = "huggingface-hub"
	}
	return ProviderInfo{Name: name, Model: h.model}
}

func (h *HuggingFaceProvider) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	info := h.info()
	if len(req.Inputs) == 0 {
		return nil, info, fmt.Errorf("no embedding inputs")
	}
	var (
		out [][]float32
		err error
	)
	if h.hub {
		if h.apiKey == "" {
			return nil, info, fmt.Errorf("huggingface api key missing")
		}
		endpoint := h.hubURL + "/pipeline/feature-extraction/" + h.model
		payload := map[string]any{
			"inputs":  req.Inputs,
			"options": map[string]bool{"wait_for_model": true},
		}
		err = postJSON(ctx, h.client, info.Name, endpoint, bearer(h.apiKey), payload, &out)
	} else {
		err = postJSON(ctx, h.client, info.Name, h.localURL+"/embed", nil, map[string]any{"inputs": req.Inputs}, &out)
	}
	if err != nil {
		return nil, info, err
	}
	if len(out) != len(req.Inputs) {
		return nil, info, fmt.Errorf("%s returned %d embeddings for %d inputs", info.Name, len(out), len(req.Inputs))
	}
	for i := range out {
		out[i] = matchDimension(out[i], req.Dimension)
	}
	return out, info, nil
}

package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"litreview/internal/config"
	"litreview/internal/observability"
)

type NamedLLMProvider struct {
	Ref      ProviderRef
	Provider LLMProvider
}

type NamedEmbedProvider struct {
	Ref      ProviderRef
	Provider EmbeddingProvider
}

// Manager holds the configured failover chains and itself satisfies both
// provider interfaces. Rate-limit errors are returned to the caller untouched
// so that the retry policy can back off; any other failure moves on to the
// next provider in the chain.
type Manager struct {
	llmProviders   []NamedLLMProvider
	embedProviders []NamedEmbedProvider
	dim            int
	logger         zerolog.Logger
	metrics        *observability.Metrics
}

func NewManager(cfg config.ProvidersConfig, logger zerolog.Logger, metrics *observability.Metrics) (*Manager, error) {
	m := &Manager{
		dim:     cfg.EmbedDim,
		logger:  logger.With().Str("component", "providers").Logger(),
		metrics: metrics,
	}
	for _, ref := range ParseProviderList(cfg.LLM) {
		p, err := buildProvider(ref, cfg)
		if err != nil {
			return nil, err
		}
		llm, ok := p.(LLMProvider)
		if !ok {
			return nil, fmt.Errorf("provider %s does not support llm", ref.Raw)
		}
		m.llmProviders = append(m.llmProviders, NamedLLMProvider{Ref: ref, Provider: llm})
	}
	for _, ref := range ParseProviderList(cfg.Embedding) {
		p, err := buildProvider(ref, cfg)
		if err != nil {
			return nil, err
		}
		embed, ok := p.(EmbeddingProvider)
		if !ok {
			return nil, fmt.Errorf("provider %s does not support embeddings", ref.Raw)
		}
		m.embedProviders = append(m.embedProviders, NamedEmbedProvider{Ref: ref, Provider: embed})
	}
	return m, nil
}

// NewStaticManager wires explicit chains, mostly for tests and tooling.
func NewStaticManager(embed []NamedEmbedProvider, llm []NamedLLMProvider, logger zerolog.Logger) *Manager {
	return &Manager{embedProviders: embed, llmProviders: llm, logger: logger}
}

// EmbedModel names the head of the embedding chain. Index caches record it so
// a model switch invalidates them.
func (m *Manager) EmbedModel() string {
	if len(m.embedProviders) == 0 {
		return ""
	}
	return m.embedProviders[0].Ref.String()
}

func (m *Manager) EmbedDim() int { return m.dim }

func (m *Manager) EmbedCount() int { return len(m.embedProviders) }

func (m *Manager) LLMCount() int { return len(m.llmProviders) }

func (m *Manager) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	if len(m.embedProviders) == 0 {
		return nil, ProviderInfo{}, fmt.Errorf("no embedding providers configured")
	}
	if req.Dimension == 0 {
		req.Dimension = m.dim
	}
	var lastErr error
	for _, np := range m.embedProviders {
		start := time.Now()
		vecs, info, err := np.Provider.Embed(ctx, req)
		m.metrics.ObserveProvider("embed", np.Ref.Name, time.Since(start))
		if err == nil {
			return vecs, info, nil
		}
		if stopFailover(ctx, err) {
			return nil, info, err
		}
		m.logger.Warn().Err(err).Str("provider", np.Ref.String()).Str("operation", req.Operation).Msg("embedding provider failed, trying next")
		lastErr = err
	}
	return nil, ProviderInfo{}, fmt.Errorf("all embedding providers failed: %w", lastErr)
}

func (m *Manager) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	if len(m.llmProviders) == 0 {
		return GenerateResponse{}, ProviderInfo{}, fmt.Errorf("no llm providers configured")
	}
	var lastErr error
	for _, np := range m.llmProviders {
		start := time.Now()
		resp, info, err := np.Provider.Generate(ctx, req)
		m.metrics.ObserveProvider("generate", np.Ref.Name, time.Since(start))
		if err == nil {
			return resp, info, nil
		}
		if stopFailover(ctx, err) {
			return GenerateResponse{}, info, err
		}
		m.logger.Warn().Err(err).Str("provider", np.Ref.String()).Str("operation", req.Operation).Msg("llm provider failed, trying next")
		lastErr = err
	}
	return GenerateResponse{}, ProviderInfo{}, fmt.Errorf("all llm providers failed: %w", lastErr)
}

func stopFailover(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return IsRateLimited(err)
}

func buildProvider(ref ProviderRef, cfg config.ProvidersConfig) (any, error) {
	switch ref.Name {
	case "mock":
		return NewMockProvider(cfg.EmbedDim), nil
	case "openai":
		return NewOpenAIProvider(cfg.OpenAI, ref.Variant, cfg.Timeout), nil
	case "huggingface":
		return NewHuggingFaceProvider(cfg.HuggingFace, ref.Variant, false, cfg.Timeout), nil
	case "huggingface-hub":
		return NewHuggingFaceProvider(cfg.HuggingFace, ref.Variant, true, cfg.Timeout), nil
	case "cohere":
		return NewCohereProvider(cfg.Cohere, ref.Variant, cfg.Timeout), nil
	case "groq":
		return NewGroqProvider(cfg.Groq, ref.Variant, cfg.Timeout), nil
	case "ollama":
		return NewOllamaProvider(cfg.Ollama, ref.Variant, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", ref.Name)
	}
}

package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"litreview/internal/config"
	"litreview/internal/util"
)

type failingLLM struct {
	err   error
	calls int
}

func (f *failingLLM) Generate(context.Context, GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	f.calls++
	return GenerateResponse{}, ProviderInfo{Name: "failing"}, f.err
}

func TestManagerFailsOverOnPermanentError(t *testing.T) {
	bad := &failingLLM{err: &APIError{Provider: "x", StatusCode: 500, Message: "boom"}}
	m := NewStaticManager(nil, []NamedLLMProvider{
		{Ref: ProviderRef{Name: "bad"}, Provider: bad},
		{Ref: ProviderRef{Name: "mock"}, Provider: NewMockProvider(8)},
	}, zerolog.Nop())

	resp, info, err := m.Generate(context.Background(), GenerateRequest{Prompt: "q"})
	require.NoError(t, err)
	assert.Equal(t, MockAnswer, resp.Text)
	assert.Equal(t, "mock", info.Name)
	assert.Equal(t, 1, bad.calls)
}

func TestManagerSurfacesRateLimit(t *testing.T) {
	limited := &failingLLM{err: &APIError{Provider: "x", StatusCode: 429, Message: "slow down"}}
	next := &failingLLM{err: errors.New("unreachable")}
	m := NewStaticManager(nil, []NamedLLMProvider{
		{Ref: ProviderRef{Name: "limited"}, Provider: limited},
		{Ref: ProviderRef{Name: "next"}, Provider: next},
	}, zerolog.Nop())

	_, _, err := m.Generate(context.Background(), GenerateRequest{Prompt: "q"})
	require.ErrorIs(t, err, util.ErrRateLimited)
	assert.Equal(t, 0, next.calls)
}

func TestManagerAllFail(t *testing.T) {
	m := NewStaticManager(nil, []NamedLLMProvider{
		{Ref: ProviderRef{Name: "a"}, Provider: &failingLLM{err: errors.New("bad request")}},
	}, zerolog.Nop())
	_, _, err := m.Generate(context.Background(), GenerateRequest{Prompt: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all llm providers failed")
}

func TestNewManagerFromConfig(t *testing.T) {
	m, err := NewManager(config.ProvidersConfig{Embedding: "mock", LLM: "groq|mock", EmbedDim: 12}, zerolog.Nop(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, m.LLMCount())
	assert.Equal(t, "mock", m.EmbedModel())

	vecs, _, err := m.Embed(context.Background(), EmbedRequest{Inputs: []string{"x"}})
	require.NoError(t, err)
	assert.Len(t, vecs[0], 12)

	// groq has no key and fails over to mock
	resp, _, err := m.Generate(context.Background(), GenerateRequest{Prompt: "q"})
	require.NoError(t, err)
	assert.Equal(t, MockAnswer, resp.Text)

	_, err = NewManager(config.ProvidersConfig{Embedding: "groq", LLM: "mock"}, zerolog.Nop(), nil)
	assert.Error(t, err)
	_, err = NewManager(config.ProvidersConfig{Embedding: "nope", LLM: "mock"}, zerolog.Nop(), nil)
	assert.Error(t, err)
}

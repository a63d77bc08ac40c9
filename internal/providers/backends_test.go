package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"litreview/internal/config"
	"litreview/internal/util"
)

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func TestOpenAIEmbedAndGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		body := decodeBody(t, r)
		switch r.URL.Path {
		case "/embeddings":
			assert.Equal(t, "text-embedding-3-small", body["model"])
			_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[0,1]},{"index":0,"embedding":[1,0]}]}`))
		case "/chat/completions":
			assert.Equal(t, map[string]any{"type": "json_object"}, body["response_format"])
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"a\":1}"}}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p := NewOpenAIProvider(config.OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL, ChatModel: "gpt-4o-mini", EmbedModel: "text-embedding-3-small"}, "", time.Second)
	vecs, info, err := p.Embed(context.Background(), EmbedRequest{Inputs: []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, "openai", info.Name)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vecs)

	resp, _, err := p.Generate(context.Background(), GenerateRequest{Prompt: "q", JSONMode: true})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, resp.Text)
}

func TestOpenAIRateLimitIsClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached for requests","type":"requests"}}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(config.OpenAIConfig{APIKey: "k", BaseURL: srv.URL}, "", time.Second)
	_, _, err := p.Generate(context.Background(), GenerateRequest{Prompt: "q"})
	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrRateLimited)
	assert.True(t, IsRateLimited(err))
}

func TestHuggingFaceLocalAndHub(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		switch r.URL.Path {
		case "/embed":
			assert.Empty(t, r.Header.Get("Authorization"))
		case "/pipeline/feature-extraction/sentence-transformers/all-mpnet-base-v2":
			assert.Equal(t, "Bearer hf", r.Header.Get("Authorization"))
			assert.Equal(t, map[string]any{"wait_for_model": true}, body["options"])
		default:
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`[[0.5,0.5,0.5]]`))
	}))
	defer srv.Close()

	cfg := config.HuggingFaceConfig{APIKey: "hf", LocalURL: srv.URL, HubURL: srv.URL}
	local := NewHuggingFaceProvider(cfg, "", false, time.Second)
	vecs, info, err := local.Embed(context.Background(), EmbedRequest{Inputs: []string{"x"}, Dimension: 2})
	require.NoError(t, err)
	assert.Equal(t, "huggingface", info.Name)
	assert.Equal(t, [][]float32{{0.5, 0.5}}, vecs)

	hub := NewHuggingFaceProvider(cfg, "", true, time.Second)
	_, info, err = hub.Embed(context.Background(), EmbedRequest{Inputs: []string{"x"}})
	require.NoError(t, err)
	assert.Equal(t, "huggingface-hub", info.Name)
}

func TestCohereEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embed", r.URL.Path)
		body := decodeBody(t, r)
		assert.Equal(t, "END", body["truncate"])
		_, _ = w.Write([]byte(`{"embeddings":[[1,2],[3,4]]}`))
	}))
	defer srv.Close()

	p := NewCohereProvider(config.CohereConfig{APIKey: "co", BaseURL: srv.URL}, "", time.Second)
	vecs, info, err := p.Embed(context.Background(), EmbedRequest{Inputs: []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, "embed-english-v2.0", info.Model)
	assert.Len(t, vecs, 2)
}

func TestOllamaGenerateJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		body := decodeBody(t, r)
		assert.Equal(t, "json", body["format"])
		assert.Equal(t, false, body["stream"])
		_, _ = w.Write([]byte(`{"response":"{}"}`))
	}))
	defer srv.Close()

	p := NewOllamaProvider(config.OllamaConfig{BaseURL: srv.URL}, "", time.Second)
	resp, info, err := p.Generate(context.Background(), GenerateRequest{Prompt: "q", JSONMode: true})
	require.NoError(t, err)
	assert.Equal(t, "llama3.1", info.Model)
	assert.Equal(t, "{}", resp.Text)
}

func TestGroqMissingKey(t *testing.T) {
	p := NewGroqProvider(config.GroqConfig{}, "", time.Second)
	_, _, err := p.Generate(context.Background(), GenerateRequest{Prompt: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key missing")
}

func TestMockEmbedDeterministic(t *testing.T) {
	m := NewMockProvider(16)
	a, _, err := m.Embed(context.Background(), EmbedRequest{Inputs: []string{"same", "other"}})
	require.NoError(t, err)
	b, _, err := m.Embed(context.Background(), EmbedRequest{Inputs: []string{"same"}})
	require.NoError(t, err)
	assert.Equal(t, a[0], b[0])
	assert.NotEqual(t, a[0], a[1])
	assert.Len(t, a[0], 16)
}

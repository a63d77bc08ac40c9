package index

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"litreview/internal/observability"
	"litreview/internal/providers"
	"litreview/internal/resilience"
	"litreview/internal/util"
)

// Store persists indexes by cache key.
type Store interface {
	Load(ctx context.Context, key string) (SearchIndex, Meta, bool, error)
	Save(ctx context.Context, key string, meta Meta, texts []string, vectors [][]float32) (SearchIndex, error)
}

var ErrNoChunks = errors.New("no chunks to index")

type Options struct {
	// Model identifies the embedding backend; a cached index built with a
	// different model is rebuilt.
	Model     string
	Dim       int
	BatchSize int
	Overwrite bool
	Policy    resilience.Policy
	Limiter   *resilience.RateLimiter
}

type Indexer struct {
	store    Store
	embedder providers.EmbeddingProvider
	opts     Options
	logger   zerolog.Logger
	metrics  *observability.Metrics
}

func NewIndexer(store Store, embedder providers.EmbeddingProvider, opts Options, logger zerolog.Logger, metrics *observability.Metrics) *Indexer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 64
	}
	if opts.Policy.Tries == 0 {
		opts.Policy = resilience.DefaultPolicy()
	}
	return &Indexer{
		store:    store,
		embedder: embedder,
		opts:     opts,
		logger:   logger.With().Str("component", "indexer").Logger(),
		metrics:  metrics,
	}
}

// GetOrBuild returns the persisted index for key when one exists (and
// overwrite is off), otherwise embeds chunks and persists a new one.
func (ix *Indexer) GetOrBuild(ctx context.Context, key string, chunks []string) (SearchIndex, error) {
	sha := util.FingerprintChunks(chunks)
	if !ix.opts.Overwrite {
		idx, meta, ok, err := ix.store.Load(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("load index %s: %w", key, err)
		}
		if ok && meta.Model == ix.opts.Model {
			if meta.SourceSHA != sha {
				ix.logger.Warn().Str("index", key).Msg("cached index was built from different text, reusing it anyway")
			}
			ix.logger.Debug().Str("index", key).Int("chunks", idx.Len()).Msg("reusing cached index")
			return idx, nil
		}
		if ok {
			ix.logger.Info().Str("index", key).Str("cached_model", meta.Model).Str("model", ix.opts.Model).Msg("embedding model changed, rebuilding index")
		}
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("index %s: %w", key, ErrNoChunks)
	}

	start := time.Now()
	vectors := make([][]float32, 0, len(chunks))
	for lo := 0; lo < len(chunks); lo += ix.opts.BatchSize {
		hi := min(lo+ix.opts.BatchSize, len(chunks))
		batch, err := ix.embed(ctx, "index", chunks[lo:hi])
		if err != nil {
			return nil, fmt.Errorf("embed chunks %d-%d of %s: %w", lo, hi, key, err)
		}
		vectors = append(vectors, batch...)
	}
	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}
	idx, err := ix.store.Save(ctx, key, Meta{Model: ix.opts.Model, Dim: dim, SourceSHA: sha}, chunks, vectors)
	if err != nil {
		return nil, fmt.Errorf("save index %s: %w", key, err)
	}
	ix.logger.Info().Str("index", key).Int("chunks", len(chunks)).Dur("took", time.Since(start)).Msg("index built")
	return idx, nil
}

// EmbedQuery embeds a single query string with the same backend and retry
// policy used for chunks.
func (ix *Indexer) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := ix.embed(ctx, "query", []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (ix *Indexer) embed(ctx context.Context, op string, inputs []string) ([][]float32, error) {
	policy := ix.opts.Policy
	policy.OnRetry = func(attempt int, wait time.Duration, err error) {
		ix.metrics.RateLimitRetry()
		ix.logger.Warn().Err(err).Int("attempt", attempt).Dur("wait", wait).Msg("embedding rate limited, backing off")
	}
	vecs, err := resilience.Do(ctx, policy, func(ctx context.Context) ([][]float32, error) {
		if err := ix.opts.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
		out, _, err := ix.embedder.Embed(ctx, providers.EmbedRequest{Operation: op, Inputs: inputs, Dimension: ix.opts.Dim})
		return out, err
	})
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(inputs) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d inputs", len(vecs), len(inputs))
	}
	return vecs, nil
}

// Package qa answers questions about one document from its retrieval index.
package qa

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"litreview/internal/index"
	"litreview/internal/models"
	"litreview/internal/observability"
	"litreview/internal/providers"
	"litreview/internal/questions"
	"litreview/internal/resilience"
	"litreview/internal/schema"
	"litreview/internal/storage"
	"litreview/internal/util"
)

const DefaultTopK = 4

// QueryEmbedder embeds question text into the index's vector space.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// CallRecorder audits LLM calls; storage.LLMAuditRepo satisfies it.
type CallRecorder interface {
	Insert(ctx context.Context, rec storage.LLMCallRecord) error
}

type Options struct {
	TopK     int
	Policy   resilience.Policy
	Limiter  *resilience.RateLimiter
	Recorder CallRecorder
}

type Engine struct {
	embedder QueryEmbedder
	llm      providers.LLMProvider
	opts     Options
	logger   zerolog.Logger
	metrics  *observability.Metrics
}

func NewEngine(embedder QueryEmbedder, llm providers.LLMProvider, opts Options, logger zerolog.Logger, metrics *observability.Metrics) *Engine {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.Policy.Tries == 0 {
		opts.Policy = resilience.DefaultPolicy()
	}
	return &Engine{
		embedder: embedder,
		llm:      llm,
		opts:     opts,
		logger:   logger.With().Str("component", "qa").Logger(),
		metrics:  metrics,
	}
}

// Answer retrieves the top-k passages for q and asks the model. Backend
// errors are returned; an answer that does not fit q's schema is kept raw
// with Error set.
func (e *Engine) Answer(ctx context.Context, doc string, idx index.SearchIndex, q questions.Question) (models.AnswerRecord, error) {
	rec := models.AnswerRecord{Question: q.Text, Field: q.Field}

	vec, err := e.embedder.EmbedQuery(ctx, q.Text)
	if err != nil {
		return rec, fmt.Errorf("embed question: %w", err)
	}
	passages, err := idx.Search(ctx, vec, e.opts.TopK)
	if err != nil {
		return rec, fmt.Errorf("search index: %w", err)
	}
	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}
	rec.SourcePassages = JoinPassages(texts)

	var fs *schema.FieldSchema
	if q.Schema != "" {
		if s, ok := schema.Lookup(q.Schema); ok {
			fs = &s
		} else {
			e.logger.Warn().Str("schema", q.Schema).Msg("unknown answer schema, treating as text")
		}
	}
	req := providers.GenerateRequest{
		Operation: "answer",
		Prompt:    BuildPrompt(rec.SourcePassages, q.Text, fs),
		JSONMode:  fs != nil && fs.Kind == schema.Object,
	}
	answer, err := e.Generate(ctx, doc, q.Text, req)
	if err != nil {
		return rec, err
	}
	rec.Answer = answer

	if fs != nil {
		res, perr := schema.Parse(answer, *fs)
		if perr != nil {
			rec.Error = perr.Error()
			e.metrics.QuestionAnswered("unparsed")
			e.logger.Warn().Str("document", doc).Str("schema", fs.Name).Msg("answer did not match schema, keeping raw text")
			return rec, nil
		}
		e.metrics.ParsedWith(res.Strategy)
	}
	e.metrics.QuestionAnswered("ok")
	return rec, nil
}

// AnswerAll asks every question in order. A failed question becomes an
// "Error" record; only context cancellation stops the loop.
func (e *Engine) AnswerAll(ctx context.Context, doc string, idx index.SearchIndex, qs []questions.Question) ([]models.AnswerRecord, error) {
	out := make([]models.AnswerRecord, 0, len(qs))
	for _, q := range qs {
		rec, err := e.Answer(ctx, doc, idx, q)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return out, ctxErr
			}
			e.metrics.QuestionAnswered("error")
			e.logger.Error().Err(err).Str("document", doc).Str("question", util.DisplaySnippet(q.Text, 120)).Msg("question failed")
			out = append(out, ErrorRecord(q, err))
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Generate calls the model with pacing, rate-limit retry and auditing.
func (e *Engine) Generate(ctx context.Context, doc, question string, req providers.GenerateRequest) (string, error) {
	policy := e.opts.Policy
	policy.OnRetry = func(attempt int, wait time.Duration, err error) {
		e.metrics.RateLimitRetry()
		e.logger.Warn().Err(err).Int("attempt", attempt).Dur("wait", wait).Str("document", doc).Msg("llm rate limited, backing off")
	}
	type result struct {
		resp providers.GenerateResponse
		info providers.ProviderInfo
	}
	start := time.Now()
	out, err := resilience.Do(ctx, policy, func(ctx context.Context) (result, error) {
		if err := e.opts.Limiter.Wait(ctx); err != nil {
			return result{}, err
		}
		resp, info, err := e.llm.Generate(ctx, req)
		return result{resp, info}, err
	})
	e.record(ctx, doc, question, req.Operation, out.info, time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	return out.resp.Text, nil
}

func (e *Engine) record(ctx context.Context, doc, question, op string, info providers.ProviderInfo, took time.Duration, callErr error) {
	if e.opts.Recorder == nil {
		return
	}
	rec := storage.LLMCallRecord{
		Operation: op,
		Document:  doc,
		Question:  question,
		Provider:  info.Name,
		Model:     info.Model,
		Status:    "ok",
		LatencyMS: took.Milliseconds(),
	}
	if rec.Provider == "" {
		rec.Provider = "unknown"
	}
	if callErr != nil {
		rec.Status = "error"
		rec.ErrorType = string(providers.ClassifyError(callErr))
	}
	if err := e.opts.Recorder.Insert(ctx, rec); err != nil && !errors.Is(err, context.Canceled) {
		e.logger.Warn().Err(err).Msg("failed to record llm call")
	}
}

// ErrorRecord is the placeholder stored for a question that could not be
// answered.
func ErrorRecord(q questions.Question, err error) models.AnswerRecord {
	return models.AnswerRecord{
		Question: q.Text,
		Answer:   models.ErrorAnswer,
		Field:    q.Field,
		Error:    err.Error(),
	}
}

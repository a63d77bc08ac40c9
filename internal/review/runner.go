// Package review runs the question battery over every input document,
// checkpointing after each one so an interrupted run resumes where it stopped.
package review

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"litreview/internal/docload"
	"litreview/internal/events"
	"litreview/internal/models"
	"litreview/internal/observability"
	"litreview/internal/qa"
	"litreview/internal/questions"
)

// DocumentLoader turns an input file into text; docload.Loader satisfies it.
type DocumentLoader interface {
	Load(ctx context.Context, path string) (string, error)
}

type Options struct {
	// RetryErrored re-attempts documents whose stored answers all failed.
	RetryErrored bool
}

type Summary struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Errored   int `json:"errored"`
}

type Runner struct {
	loader    DocumentLoader
	answerer  Answerer
	questions []questions.Question
	open      StoreOpener
	publisher events.Publisher
	opts      Options
	logger    zerolog.Logger
	metrics   *observability.Metrics
}

func NewRunner(
	loader DocumentLoader,
	answerer Answerer,
	qs []questions.Question,
	open StoreOpener,
	publisher events.Publisher,
	opts Options,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) *Runner {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if open == nil {
		open = OpenJSONStore
	}
	return &Runner{
		loader:    loader,
		answerer:  answerer,
		questions: qs,
		open:      open,
		publisher: publisher,
		opts:      opts,
		logger:    logger.With().Str("component", "review").Logger(),
		metrics:   metrics,
	}
}

// ListInputs returns the .txt and .pdf files of dir sorted by name.
func ListInputs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !docload.Supported(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// Run processes every pending document of inputDir and writes the
// projections next to outputPath.
func (r *Runner) Run(ctx context.Context, inputDir, outputPath string) (Summary, error) {
	files, err := ListInputs(inputDir)
	if err != nil {
		return Summary{}, err
	}
	store, err := r.open(ctx, outputPath)
	if err != nil {
		return Summary{}, fmt.Errorf("open checkpoint: %w", err)
	}
	defer store.Close()

	sum := Summary{Total: len(files)}
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		name := filepath.Base(path)
		pending, err := r.isPending(ctx, store, name)
		if err != nil {
			return sum, err
		}
		if !pending {
			sum.Skipped++
			r.metrics.DocumentProcessed(string(models.StatusSkipped))
			r.logger.Debug().Str("document", name).Msg("already in checkpoint, skipping")
			continue
		}
		status, err := r.process(ctx, store, path, outputPath)
		if err != nil {
			return sum, err
		}
		sum.Processed++
		if status == models.StatusErrored {
			sum.Errored++
		}
		r.logger.Info().Str("document", name).Int("done", i+1).Int("total", len(files)).Str("status", string(status)).Msg("document processed")
	}
	if err := r.writeProjections(ctx, store, outputPath); err != nil {
		return sum, err
	}
	return sum, nil
}

// Pending lists the input files not yet in the checkpoint of outputPath.
func (r *Runner) Pending(ctx context.Context, inputDir, outputPath string) ([]string, error) {
	files, err := ListInputs(inputDir)
	if err != nil {
		return nil, err
	}
	store, err := r.open(ctx, outputPath)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint: %w", err)
	}
	defer store.Close()
	var out []string
	for _, path := range files {
		ok, err := r.isPending(ctx, store, filepath.Base(path))
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, path)
		}
	}
	return out, nil
}

// ProcessFile answers one document and persists it to the checkpoint.
func (r *Runner) ProcessFile(ctx context.Context, path, outputPath string) (models.DocumentStatus, error) {
	store, err := r.open(ctx, outputPath)
	if err != nil {
		return "", fmt.Errorf("open checkpoint: %w", err)
	}
	defer store.Close()
	return r.process(ctx, store, path, outputPath)
}

// WriteProjections renders the CSV views of the checkpoint of outputPath.
func (r *Runner) WriteProjections(ctx context.Context, outputPath string) error {
	store, err := r.open(ctx, outputPath)
	if err != nil {
		return fmt.Errorf("open checkpoint: %w", err)
	}
	defer store.Close()
	return r.writeProjections(ctx, store, outputPath)
}

// Checkpoint returns every stored document of outputPath.
func (r *Runner) Checkpoint(ctx context.Context, outputPath string) (map[string][]models.AnswerRecord, error) {
	store, err := r.open(ctx, outputPath)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint: %w", err)
	}
	defer store.Close()
	return store.All(ctx)
}

func (r *Runner) isPending(ctx context.Context, store Store, name string) (bool, error) {
	recs, ok, err := store.Get(ctx, name)
	if err != nil {
		return false, fmt.Errorf("read checkpoint for %s: %w", name, err)
	}
	if !ok {
		return true, nil
	}
	return r.opts.RetryErrored && models.StatusOf(recs) == models.StatusErrored, nil
}

// process never fails because of the document itself: load and answer
// failures become "Error" records. Only checkpoint writes and cancellation
// are returned.
func (r *Runner) process(ctx context.Context, store Store, path, outputPath string) (models.DocumentStatus, error) {
	name := filepath.Base(path)
	logger := observability.WithDocument(r.logger, name)

	recs, err := r.answer(ctx, path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		logger.Error().Err(err).Msg("document failed")
		recs = make([]models.AnswerRecord, 0, len(r.questions))
		for _, q := range r.questions {
			recs = append(recs, qa.ErrorRecord(q, err))
		}
	}
	if err := store.Put(ctx, name, recs); err != nil {
		return "", fmt.Errorf("checkpoint %s: %w", name, err)
	}
	status := models.StatusOf(recs)
	r.metrics.DocumentProcessed(string(status))
	r.publish(ctx, outputPath, name, status, recs)
	return status, nil
}

func (r *Runner) answer(ctx context.Context, path string) ([]models.AnswerRecord, error) {
	if len(r.questions) == 0 {
		return nil, errors.New("no questions configured")
	}
	text, err := r.loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	return r.answerer.Answer(ctx, filepath.Base(path), text, r.questions)
}

func (r *Runner) publish(ctx context.Context, runKey, name string, status models.DocumentStatus, recs []models.AnswerRecord) {
	failed := 0
	for _, rec := range recs {
		if rec.Failed() {
			failed++
		}
	}
	ev := models.DocumentEvent{
		ID:        uuid.NewString(),
		RunKey:    runKey,
		Filename:  name,
		Status:    status,
		Questions: len(recs),
		Failed:    failed,
		At:        time.Now().UTC(),
	}
	if err := r.publisher.Publish(ctx, ev); err != nil {
		r.logger.Warn().Err(err).Str("document", name).Msg("failed to publish document event")
	}
}

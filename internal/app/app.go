// Package app assembles the review pipeline from configuration. The CLI and
// the worker share it so both run the same components.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"litreview/internal/config"
	"litreview/internal/docload"
	"litreview/internal/events"
	"litreview/internal/extract"
	"litreview/internal/index"
	"litreview/internal/observability"
	"litreview/internal/paper"
	"litreview/internal/providers"
	"litreview/internal/qa"
	"litreview/internal/questions"
	"litreview/internal/resilience"
	"litreview/internal/review"
	"litreview/internal/storage"
)

var ErrNoQuestionsFile = errors.New("paths.questions_file is required to answer documents")

type App struct {
	Config    *config.Config
	Parser    *paper.Parser
	Corpus    *paper.CorpusParser
	Runner    *review.Runner
	Extractor *extract.Extractor
	Questions []questions.Question

	db        *storage.DB
	publisher events.Publisher
	logger    zerolog.Logger
}

// New builds every component. Postgres is only dialled when a backend or
// the audit log needs it.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger, metrics *observability.Metrics) (*App, error) {
	a := &App{Config: cfg, logger: logger}

	if cfg.Database.URL != "" {
		db, err := storage.NewDB(ctx, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		a.db = db
		if cfg.Database.Migrate {
			if err := storage.Migrate(db, logger); err != nil {
				a.Close()
				return nil, err
			}
		}
	}

	if cfg.Paths.QuestionsFile != "" {
		qs, err := questions.Load(cfg.Paths.QuestionsFile)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Questions = qs
	}

	pm, err := providers.NewManager(cfg.Providers, logger, metrics)
	if err != nil {
		a.Close()
		return nil, err
	}
	policy := resilience.PolicyFromConfig(cfg.Retry)
	limiter := resilience.NewRateLimiter(cfg.Providers.RequestsPerSecond, 1)

	indexer := index.NewIndexer(a.indexStore(), pm, index.Options{
		Model:     pm.EmbedModel(),
		Dim:       pm.EmbedDim(),
		BatchSize: cfg.Index.BatchSize,
		Overwrite: cfg.Index.Overwrite,
		Policy:    policy,
		Limiter:   limiter,
	}, logger, metrics)

	qaOpts := qa.Options{TopK: cfg.Index.TopK, Policy: policy, Limiter: limiter}
	if a.db != nil {
		qaOpts.Recorder = storage.NewLLMAuditRepo(a.db.Pool)
	}
	engine := qa.NewEngine(indexer, pm, qaOpts, logger, metrics)

	var answerer review.Answerer
	switch cfg.Review.Mode {
	case "whole_paper":
		answerer = review.NewWholePaperAnswerer(engine)
	default:
		answerer = review.NewRetrievalAnswerer(cfg.Parser.ChunkSize, indexer, engine)
	}

	a.publisher = events.New(cfg.Kafka, logger)
	loader := docload.NewLoader(cfg.Review.ReadabilityThreshold, docload.NewTesseractOCR("eng"), logger)
	a.Runner = review.NewRunner(loader, answerer, a.Questions, a.checkpointOpener(), a.publisher,
		review.Options{RetryErrored: cfg.Review.RetryErrored}, logger, metrics)

	a.Parser = paper.NewParser(cfg.Parser.ChunkSize, paper.FileUnavailableLog{Path: cfg.Paths.UnavailableCSV})
	a.Corpus = paper.NewCorpusParser(a.Parser, cfg.Paths.TextDir, logger, metrics)
	a.Extractor = extract.NewExtractor(cfg.Paths.ExtractDir, cfg.Extract.Overwrite, logger, metrics)
	return a, nil
}

// RequireQuestions fails fast before a run that would error every document.
func (a *App) RequireQuestions() error {
	if len(a.Questions) == 0 {
		return ErrNoQuestionsFile
	}
	return nil
}

func (a *App) indexStore() index.Store {
	if a.Config.Index.Backend == "postgres" && a.db != nil {
		return index.NewPGStore(storage.NewIndexChunkRepo(a.db.Pool))
	}
	return index.NewSQLiteStore(a.Config.Paths.CacheDir)
}

func (a *App) checkpointOpener() review.StoreOpener {
	switch a.Config.Review.Checkpoint {
	case "sqlite":
		return review.OpenSQLiteStore
	case "postgres":
		if a.db != nil {
			return review.PGStoreOpener(storage.NewCheckpointRepo(a.db.Pool))
		}
	}
	return review.OpenJSONStore
}

func (a *App) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("close event publisher")
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}

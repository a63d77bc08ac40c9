package activities

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"go.temporal.io/sdk/activity"

	"litreview/internal/extract"
	"litreview/internal/models"
	"litreview/internal/observability"
	"litreview/internal/paper"
	"litreview/internal/review"
)

// Activities exposes the review pipeline steps to the Temporal worker. Each
// activity is idempotent: parsing rewrites the same files, answering skips
// what the checkpoint already holds.
type Activities struct {
	parser           *paper.Parser
	runner           *review.Runner
	extractOverwrite bool
	logger           zerolog.Logger
	metrics          *observability.Metrics
}

func New(parser *paper.Parser, runner *review.Runner, extractOverwrite bool, logger zerolog.Logger, metrics *observability.Metrics) *Activities {
	return &Activities{
		parser:           parser,
		runner:           runner,
		extractOverwrite: extractOverwrite,
		logger:           logger.With().Str("component", "activities").Logger(),
		metrics:          metrics,
	}
}

func (a *Activities) ParseCorpusActivity(ctx context.Context, in ParseCorpusInput) (ParseCorpusOutput, error) {
	paths, err := paper.ListXML(in.XMLDir)
	if err != nil {
		return ParseCorpusOutput{}, err
	}
	n, err := paper.NewCorpusParser(a.parser, in.TextDir, a.log(ctx), a.metrics).Run(ctx, paths)
	if err != nil {
		return ParseCorpusOutput{}, fmt.Errorf("parse corpus: %w", err)
	}
	return ParseCorpusOutput{Documents: n}, nil
}

func (a *Activities) ListPendingDocumentsActivity(ctx context.Context, in ListPendingDocumentsInput) (ListPendingDocumentsOutput, error) {
	paths, err := a.runner.Pending(ctx, in.InputDir, in.OutputPath)
	if err != nil {
		return ListPendingDocumentsOutput{}, err
	}
	return ListPendingDocumentsOutput{Paths: paths}, nil
}

// AnswerDocumentActivity returns an error only when the checkpoint could not
// be written. A document whose questions all failed is reported as errored.
func (a *Activities) AnswerDocumentActivity(ctx context.Context, in AnswerDocumentInput) (AnswerDocumentOutput, error) {
	name := filepath.Base(in.Path)
	status, err := a.runner.ProcessFile(ctx, in.Path, in.OutputPath)
	if err != nil {
		return AnswerDocumentOutput{}, err
	}
	docLog := observability.WithDocument(a.log(ctx), name)
	docLog.Info().Str("status", string(status)).Msg("answered document")
	return AnswerDocumentOutput{Filename: name, Status: string(status)}, nil
}

func (a *Activities) WriteProjectionsActivity(ctx context.Context, in WriteProjectionsInput) error {
	return a.runner.WriteProjections(ctx, in.OutputPath)
}

func (a *Activities) ExtractFieldsActivity(ctx context.Context, in ExtractFieldsInput) (ExtractFieldsOutput, error) {
	all, err := a.runner.Checkpoint(ctx, in.OutputPath)
	if err != nil {
		return ExtractFieldsOutput{}, err
	}
	paths, err := extract.NewExtractor(in.ExtractDir, a.extractOverwrite, a.log(ctx), a.metrics).ExtractAll(ctx, all)
	if err != nil {
		return ExtractFieldsOutput{}, fmt.Errorf("extract fields: %w", err)
	}
	return ExtractFieldsOutput{Paths: paths}, nil
}

// log tags lines with the calling workflow when run by a worker.
func (a *Activities) log(ctx context.Context) zerolog.Logger {
	if !activity.IsActivity(ctx) {
		return a.logger
	}
	info := activity.GetInfo(ctx)
	return observability.WithWorkflow(a.logger, info.WorkflowExecution.ID, info.WorkflowExecution.RunID)
}

// Errored reports whether an answer activity result should count as a failure.
func (o AnswerDocumentOutput) Errored() bool {
	return o.Status == string(models.StatusErrored)
}

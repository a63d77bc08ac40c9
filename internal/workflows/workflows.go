package workflows

import (
	"path/filepath"
	"strings"
	"time"

	"litreview/internal/activities"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const QueryGetProgress = "GetProgress"

const (
	StageParsing     = "parsing"
	StageListing     = "listing"
	StageAnswering   = "answering"
	StageProjections = "projections"
	StageExtracting  = "extracting"
	StageDone        = "done"
)

var activityRetry = &temporal.RetryPolicy{
	InitialInterval:    2 * time.Second,
	BackoffCoefficient: 2,
	MaximumInterval:    20 * time.Second,
	MaximumAttempts:    3,
}

// ReviewWorkflow runs the pipeline over one corpus, one document at a time.
// A document whose activity fails is counted and the run moves on; its
// checkpoint entry stays absent so the next run picks it up again.
func ReviewWorkflow(ctx workflow.Context, input ReviewInput) (ReviewResult, error) {
	logger := workflow.GetLogger(ctx)
	progress := ReviewProgress{PerDocument: map[string]string{}}
	if err := workflow.SetQueryHandler(ctx, QueryGetProgress, func() (ReviewProgress, error) {
		return progress, nil
	}); err != nil {
		return ReviewResult{}, err
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy:         activityRetry,
	})
	// Answering a paper may wait out several rate-limit backoffs.
	answerCtx := workflow.WithStartToCloseTimeout(ctx, time.Hour)

	var result ReviewResult
	if input.XMLDir != "" {
		progress.Stage = StageParsing
		var out activities.ParseCorpusOutput
		if err := workflow.ExecuteActivity(ctx, "ParseCorpusActivity", activities.ParseCorpusInput{
			XMLDir:  input.XMLDir,
			TextDir: input.TextDir,
		}).Get(ctx, &out); err != nil {
			return result, err
		}
		result.Parsed = out.Documents
	}

	progress.Stage = StageListing
	var pending activities.ListPendingDocumentsOutput
	if err := workflow.ExecuteActivity(ctx, "ListPendingDocumentsActivity", activities.ListPendingDocumentsInput{
		InputDir:   input.InputDir,
		OutputPath: input.OutputPath,
	}).Get(ctx, &pending); err != nil {
		return result, err
	}
	progress.Total = len(pending.Paths)
	for _, path := range pending.Paths {
		progress.PerDocument[filepath.Base(path)] = "pending"
	}

	progress.Stage = StageAnswering
	for _, path := range pending.Paths {
		name := filepath.Base(path)
		progress.PerDocument[name] = "processing"
		var out activities.AnswerDocumentOutput
		err := workflow.ExecuteActivity(answerCtx, "AnswerDocumentActivity", activities.AnswerDocumentInput{
			Path:       path,
			OutputPath: input.OutputPath,
		}).Get(answerCtx, &out)
		if err != nil {
			if temporal.IsCanceledError(err) {
				return resultFrom(progress, result), err
			}
			logger.Warn("document failed", "document", name, "error", err)
			progress.Failed++
			progress.PerDocument[name] = "failed"
			continue
		}
		progress.Done++
		if out.Errored() {
			progress.Errored++
		}
		progress.PerDocument[name] = out.Status
	}

	progress.Stage = StageProjections
	if err := workflow.ExecuteActivity(ctx, "WriteProjectionsActivity", activities.WriteProjectionsInput{
		OutputPath: input.OutputPath,
	}).Get(ctx, nil); err != nil {
		return resultFrom(progress, result), err
	}

	if input.ExtractDir != "" {
		progress.Stage = StageExtracting
		var out activities.ExtractFieldsOutput
		if err := workflow.ExecuteActivity(ctx, "ExtractFieldsActivity", activities.ExtractFieldsInput{
			OutputPath: input.OutputPath,
			ExtractDir: input.ExtractDir,
		}).Get(ctx, &out); err != nil {
			return resultFrom(progress, result), err
		}
		result.Extracted = out.Paths
	}

	progress.Stage = StageDone
	logger.Info("review finished", "total", progress.Total, "done", progress.Done, "failed", progress.Failed)
	return resultFrom(progress, result), nil
}

func resultFrom(p ReviewProgress, r ReviewResult) ReviewResult {
	r.Total = p.Total
	r.Done = p.Done
	r.Errored = p.Errored
	r.Failed = p.Failed
	return r
}

// WorkflowID derives a stable, readable workflow id from a run name.
func WorkflowID(name string) string {
	return "review-" + sanitizeID(name)
}

func sanitizeID(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, s)
}

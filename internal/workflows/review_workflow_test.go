package workflows

import (
	"context"
	"errors"
	"testing"

	"litreview/internal/activities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"
)

func registerActivityName[T any](env *testsuite.TestWorkflowEnvironment, name string, fn T) {
	env.RegisterActivityWithOptions(fn, activity.RegisterOptions{Name: name})
}

func newEnv(t *testing.T) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(ReviewWorkflow)
	registerActivityName(env, "ParseCorpusActivity", func(context.Context, activities.ParseCorpusInput) (activities.ParseCorpusOutput, error) {
		return activities.ParseCorpusOutput{}, nil
	})
	registerActivityName(env, "ListPendingDocumentsActivity", func(context.Context, activities.ListPendingDocumentsInput) (activities.ListPendingDocumentsOutput, error) {
		return activities.ListPendingDocumentsOutput{}, nil
	})
	registerActivityName(env, "AnswerDocumentActivity", func(context.Context, activities.AnswerDocumentInput) (activities.AnswerDocumentOutput, error) {
		return activities.AnswerDocumentOutput{}, nil
	})
	registerActivityName(env, "WriteProjectionsActivity", func(context.Context, activities.WriteProjectionsInput) error { return nil })
	registerActivityName(env, "ExtractFieldsActivity", func(context.Context, activities.ExtractFieldsInput) (activities.ExtractFieldsOutput, error) {
		return activities.ExtractFieldsOutput{}, nil
	})
	return env
}

func TestReviewWorkflowCountsFailuresAndContinues(t *testing.T) {
	env := newEnv(t)
	in := ReviewInput{XMLDir: "/xml", TextDir: "/txt", InputDir: "/txt", OutputPath: "/out/answers.json", ExtractDir: "/out/fields"}

	env.OnActivity("ParseCorpusActivity", mock.Anything, activities.ParseCorpusInput{XMLDir: "/xml", TextDir: "/txt"}).Return(activities.ParseCorpusOutput{Documents: 3}, nil)
	env.OnActivity("ListPendingDocumentsActivity", mock.Anything, activities.ListPendingDocumentsInput{InputDir: "/txt", OutputPath: "/out/answers.json"}).
		Return(activities.ListPendingDocumentsOutput{Paths: []string{"/txt/a.txt", "/txt/b.txt", "/txt/c.txt"}}, nil)
	env.OnActivity("AnswerDocumentActivity", mock.Anything, activities.AnswerDocumentInput{Path: "/txt/a.txt", OutputPath: "/out/answers.json"}).
		Return(activities.AnswerDocumentOutput{Filename: "a.txt", Status: "completed"}, nil)
	env.OnActivity("AnswerDocumentActivity", mock.Anything, activities.AnswerDocumentInput{Path: "/txt/b.txt", OutputPath: "/out/answers.json"}).
		Return(activities.AnswerDocumentOutput{}, errors.New("checkpoint unavailable"))
	env.OnActivity("AnswerDocumentActivity", mock.Anything, activities.AnswerDocumentInput{Path: "/txt/c.txt", OutputPath: "/out/answers.json"}).
		Return(activities.AnswerDocumentOutput{Filename: "c.txt", Status: "errored"}, nil)
	env.OnActivity("WriteProjectionsActivity", mock.Anything, activities.WriteProjectionsInput{OutputPath: "/out/answers.json"}).Return(nil)
	env.OnActivity("ExtractFieldsActivity", mock.Anything, activities.ExtractFieldsInput{OutputPath: "/out/answers.json", ExtractDir: "/out/fields"}).
		Return(activities.ExtractFieldsOutput{Paths: []string{"/out/fields/study_area.csv"}}, nil)

	env.ExecuteWorkflow(ReviewWorkflow, in)
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out ReviewResult
	require.NoError(t, env.GetWorkflowResult(&out))
	assert.Equal(t, ReviewResult{Parsed: 3, Total: 3, Done: 2, Errored: 1, Failed: 1, Extracted: []string{"/out/fields/study_area.csv"}}, out)

	q, err := env.QueryWorkflow(QueryGetProgress)
	require.NoError(t, err)
	var p ReviewProgress
	require.NoError(t, q.Get(&p))
	assert.Equal(t, StageDone, p.Stage)
	assert.Equal(t, map[string]string{"a.txt": "completed", "b.txt": "failed", "c.txt": "errored"}, p.PerDocument)
}

func TestReviewWorkflowSkipsOptionalSteps(t *testing.T) {
	env := newEnv(t)
	env.OnActivity("ListPendingDocumentsActivity", mock.Anything, mock.Anything).Return(activities.ListPendingDocumentsOutput{}, nil)
	env.OnActivity("WriteProjectionsActivity", mock.Anything, mock.Anything).Return(nil)

	env.ExecuteWorkflow(ReviewWorkflow, ReviewInput{InputDir: "/txt", OutputPath: "/out/answers.json"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out ReviewResult
	require.NoError(t, env.GetWorkflowResult(&out))
	assert.Equal(t, ReviewResult{}, out)
	env.AssertNotCalled(t, "ParseCorpusActivity", mock.Anything, mock.Anything)
	env.AssertNotCalled(t, "ExtractFieldsActivity", mock.Anything, mock.Anything)
}

func TestReviewWorkflowFailsWhenListingFails(t *testing.T) {
	env := newEnv(t)
	env.OnActivity("ListPendingDocumentsActivity", mock.Anything, mock.Anything).Return(activities.ListPendingDocumentsOutput{}, errors.New("read input dir: no such file"))

	env.ExecuteWorkflow(ReviewWorkflow, ReviewInput{InputDir: "/missing", OutputPath: "/out/answers.json"})
	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
}

func TestWorkflowID(t *testing.T) {
	assert.Equal(t, "review-my-corpus-2024", WorkflowID("My Corpus/2024"))
}

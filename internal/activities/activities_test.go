package activities

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"litreview/internal/docload"
	"litreview/internal/extract"
	"litreview/internal/models"
	"litreview/internal/paper"
	"litreview/internal/questions"
	"litreview/internal/review"
)

type stubAnswerer struct{}

func (stubAnswerer) Answer(_ context.Context, filename, text string, qs []questions.Question) ([]models.AnswerRecord, error) {
	out := make([]models.AnswerRecord, 0, len(qs))
	for _, q := range qs {
		out = append(out, models.AnswerRecord{Question: q.Text, Field: q.Field, Answer: `[["Japan", "Tokyo"]]`, SourcePassages: text})
	}
	return out, nil
}

func newActivities(t *testing.T) *Activities {
	t.Helper()
	qs := []questions.Question{{Text: "Where was the study conducted?", Field: "study_area"}}
	runner := review.NewRunner(docload.NewLoader(0.5, nil, zerolog.Nop()), stubAnswerer{}, qs, review.OpenJSONStore, nil, review.Options{}, zerolog.Nop(), nil)
	return New(paper.NewParser(1000, nil), runner, false, zerolog.Nop(), nil)
}

func TestReviewActivitiesEndToEnd(t *testing.T) {
	ctx := context.Background()
	xmlDir := t.TempDir()
	textDir := t.TempDir()
	outDir := t.TempDir()
	xml := `<doc><coredata><doi>10.1/x</doi><title>T</title></coredata><body><label>1</label><section-title>Intro</section-title><para>Streets were photographed.</para></body></doc>`
	require.NoError(t, os.WriteFile(filepath.Join(xmlDir, "a.xml"), []byte(xml), 0o644))
	a := newActivities(t)

	parsed, err := a.ParseCorpusActivity(ctx, ParseCorpusInput{XMLDir: xmlDir, TextDir: textDir})
	require.NoError(t, err)
	assert.Equal(t, 1, parsed.Documents)

	output := filepath.Join(outDir, "answers.json")
	pending, err := a.ListPendingDocumentsActivity(ctx, ListPendingDocumentsInput{InputDir: textDir, OutputPath: output})
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(textDir, "10.1_x.txt")}, pending.Paths)

	res, err := a.AnswerDocumentActivity(ctx, AnswerDocumentInput{Path: pending.Paths[0], OutputPath: output})
	require.NoError(t, err)
	assert.Equal(t, AnswerDocumentOutput{Filename: "10.1_x.txt", Status: "completed"}, res)
	assert.False(t, res.Errored())

	pending, err = a.ListPendingDocumentsActivity(ctx, ListPendingDocumentsInput{InputDir: textDir, OutputPath: output})
	require.NoError(t, err)
	assert.Empty(t, pending.Paths)

	require.NoError(t, a.WriteProjectionsActivity(ctx, WriteProjectionsInput{OutputPath: output}))
	answers, _, _ := review.ProjectionPaths(output)
	assert.FileExists(t, answers)

	extractDir := filepath.Join(outDir, "fields")
	ex, err := a.ExtractFieldsActivity(ctx, ExtractFieldsInput{OutputPath: output, ExtractDir: extractDir})
	require.NoError(t, err)
	assert.Len(t, ex.Paths, len(extract.Sections))
	b, err := os.ReadFile(filepath.Join(extractDir, "study_area.csv"))
	require.NoError(t, err)
	assert.Equal(t, "filename,Country,City\n10.1_x.txt,Japan,Tokyo\n", string(b))
}

func TestParseCorpusActivityMissingDir(t *testing.T) {
	_, err := newActivities(t).ParseCorpusActivity(context.Background(), ParseCorpusInput{XMLDir: filepath.Join(t.TempDir(), "missing"), TextDir: t.TempDir()})
	require.Error(t, err)
}

func TestAnswerDocumentActivityInWorker(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestActivityEnvironment()
	a := newActivities(t)
	env.RegisterActivity(a)

	dir := t.TempDir()
	path := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(path, []byte("Streets were photographed in Tokyo."), 0o644))

	val, err := env.ExecuteActivity(a.AnswerDocumentActivity, AnswerDocumentInput{Path: path, OutputPath: filepath.Join(dir, "answers.json")})
	require.NoError(t, err)
	var out AnswerDocumentOutput
	require.NoError(t, val.Get(&out))
	assert.Equal(t, AnswerDocumentOutput{Filename: "b.txt", Status: "completed"}, out)
}

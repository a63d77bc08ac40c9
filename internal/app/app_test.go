package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"litreview/internal/config"
	"litreview/internal/observability"
	"litreview/internal/paper"
	"litreview/internal/providers"
)

func testConfig(t *testing.T, questions string) *config.Config {
	t.Helper()
	root := t.TempDir()
	t.Setenv("LITREVIEW_DATABASE_URL", "")
	t.Setenv("LITREVIEW_PATHS_TEXT_DIR", filepath.Join(root, "text"))
	t.Setenv("LITREVIEW_PATHS_INPUT_DIR", filepath.Join(root, "text"))
	t.Setenv("LITREVIEW_PATHS_CACHE_DIR", filepath.Join(root, "cache"))
	t.Setenv("LITREVIEW_PATHS_OUTPUT_PATH", filepath.Join(root, "out", "answers.json"))
	t.Setenv("LITREVIEW_PATHS_EXTRACT_DIR", filepath.Join(root, "out", "fields"))
	t.Setenv("LITREVIEW_PATHS_UNAVAILABLE_CSV", filepath.Join(root, "out", "unavailable.csv"))
	if questions != "" {
		path := filepath.Join(root, "questions.txt")
		require.NoError(t, os.WriteFile(path, []byte(questions), 0o644))
		t.Setenv("LITREVIEW_PATHS_QUESTIONS_FILE", path)
	}
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestPipelineWithMockProviders(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, "What is the purpose of the study?\n\nWhere was the study conducted?\n")
	metrics := observability.NewMetrics("litreview", prometheus.NewRegistry())
	a, err := New(ctx, cfg, zerolog.Nop(), metrics)
	require.NoError(t, err)
	defer a.Close()
	require.NoError(t, a.RequireQuestions())
	assert.Len(t, a.Questions, 2)

	xmlDir := t.TempDir()
	xml := `<doc><coredata><doi>10.1/street</doi><title>Streets</title></coredata><body><label>1</label><section-title>Introduction</section-title><para>Street view images were collected in Tokyo. Perception scores were modelled.</para></body></doc>`
	require.NoError(t, os.WriteFile(filepath.Join(xmlDir, "street.xml"), []byte(xml), 0o644))
	paths, err := paper.ListXML(xmlDir)
	require.NoError(t, err)
	n, err := a.Corpus.Run(ctx, paths)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	sum, err := a.Runner.Run(ctx, cfg.Paths.InputDir, cfg.Paths.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Processed)
	assert.Equal(t, 0, sum.Errored)

	all, err := a.Runner.Checkpoint(ctx, cfg.Paths.OutputPath)
	require.NoError(t, err)
	recs := all["10.1_street.txt"]
	require.Len(t, recs, 2)
	assert.Equal(t, providers.MockAnswer, recs[0].Answer)
	assert.NotEmpty(t, recs[0].SourcePassages)

	written, err := a.Extractor.ExtractAll(ctx, all)
	require.NoError(t, err)
	assert.NotEmpty(t, written)
	assert.FileExists(t, filepath.Join(cfg.Paths.ExtractDir, "study_area.csv"))
}

func TestRequireQuestions(t *testing.T) {
	cfg := testConfig(t, "")
	a, err := New(context.Background(), cfg, zerolog.Nop(), nil)
	require.NoError(t, err)
	defer a.Close()
	assert.ErrorIs(t, a.RequireQuestions(), ErrNoQuestionsFile)
}

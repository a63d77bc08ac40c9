package review

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"litreview/internal/models"
	"litreview/internal/util"
)

// ProjectionPaths derives the CSV paths from the checkpoint path.
func ProjectionPaths(outputPath string) (answers, sources, errs string) {
	base := strings.TrimSuffix(outputPath, filepath.Ext(outputPath))
	return base + "_answers.csv", base + "_sources.csv", base + "_errors.csv"
}

func (r *Runner) writeProjections(ctx context.Context, store Store, outputPath string) error {
	all, err := store.All(ctx)
	if err != nil {
		return fmt.Errorf("read checkpoint: %w", err)
	}
	answersPath, sourcesPath, errorsPath := ProjectionPaths(outputPath)
	p := BuildProjections(all)
	if err := util.WriteCSVAtomic(answersPath, p.Header, p.Answers); err != nil {
		return err
	}
	if err := util.WriteCSVAtomic(sourcesPath, p.Header, p.Sources); err != nil {
		return err
	}
	if err := util.WriteCSVAtomic(errorsPath, []string{"file_name", "error"}, p.Errors); err != nil {
		return err
	}
	r.logger.Info().Int("documents", len(all)).Int("errored", len(p.Errors)).Str("answers", answersPath).Msg("wrote projections")
	return nil
}

// Projections is the checkpoint flattened to one row per document.
type Projections struct {
	Header  []string
	Answers [][]string
	Sources [][]string
	Errors  [][]string
}

// BuildProjections orders documents by name. Question columns follow first
// appearance across documents.
func BuildProjections(all map[string][]models.AnswerRecord) Projections {
	names := make([]string, 0, len(all))
	for n := range all {
		names = append(names, n)
	}
	sort.Strings(names)

	var cols []string
	seen := map[string]int{}
	for _, n := range names {
		for _, rec := range all[n] {
			if _, ok := seen[rec.Question]; !ok {
				seen[rec.Question] = len(cols)
				cols = append(cols, rec.Question)
			}
		}
	}

	p := Projections{Header: append([]string{"file_name"}, cols...)}
	for _, n := range names {
		answers := make([]string, len(cols)+1)
		sources := make([]string, len(cols)+1)
		answers[0], sources[0] = n, n
		for _, rec := range all[n] {
			i := seen[rec.Question] + 1
			answers[i] = rec.Answer
			sources[i] = rec.SourcePassages
		}
		p.Answers = append(p.Answers, answers)
		p.Sources = append(p.Sources, sources)
		if models.StatusOf(all[n]) == models.StatusErrored {
			p.Errors = append(p.Errors, []string{n, firstError(all[n])})
		}
	}
	return p
}

func firstError(recs []models.AnswerRecord) string {
	for _, r := range recs {
		if r.Error != "" {
			return r.Error
		}
	}
	return "all questions failed"
}

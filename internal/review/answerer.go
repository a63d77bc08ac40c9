package review

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"litreview/internal/index"
	"litreview/internal/models"
	"litreview/internal/providers"
	"litreview/internal/qa"
	"litreview/internal/questions"
	"litreview/internal/schema"
	"litreview/internal/util"
)

// Answerer produces the answer list stored for one document.
type Answerer interface {
	Answer(ctx context.Context, filename, text string, qs []questions.Question) ([]models.AnswerRecord, error)
}

// RetrievalAnswerer chunks the document, indexes it and asks each question
// against the top-k passages.
type RetrievalAnswerer struct {
	chunkSize int
	indexer   *index.Indexer
	engine    *qa.Engine
}

func NewRetrievalAnswerer(chunkSize int, indexer *index.Indexer, engine *qa.Engine) *RetrievalAnswerer {
	if chunkSize <= 0 {
		chunkSize = util.DefaultChunkSize
	}
	return &RetrievalAnswerer{chunkSize: chunkSize, indexer: indexer, engine: engine}
}

func (r *RetrievalAnswerer) Answer(ctx context.Context, filename, text string, qs []questions.Question) ([]models.AnswerRecord, error) {
	chunks := util.ChunkSentences(text, r.chunkSize)
	idx, err := r.indexer.GetOrBuild(ctx, IndexKey(filename), chunks)
	if err != nil {
		return nil, err
	}
	return r.engine.AnswerAll(ctx, filename, idx, qs)
}

// IndexKey names a document's cached index after its full file name, so
// a.txt and a.pdf never share one.
func IndexKey(filename string) string {
	return filepath.Base(filename)
}

// WholePaperAnswerer sends the full text and the whole question block in one
// JSON-mode call, storing the reply as a single record.
type WholePaperAnswerer struct {
	engine *qa.Engine
}

func NewWholePaperAnswerer(engine *qa.Engine) *WholePaperAnswerer {
	return &WholePaperAnswerer{engine: engine}
}

func (w *WholePaperAnswerer) Answer(ctx context.Context, filename, text string, qs []questions.Question) ([]models.AnswerRecord, error) {
	block := QuestionBlock(qs)
	req := providers.GenerateRequest{
		Operation: "whole_paper",
		Prompt:    wholePaperPrompt(text, qs),
		JSONMode:  true,
	}
	answer, err := w.engine.Generate(ctx, filename, block, req)
	if err != nil {
		return nil, err
	}
	rec := models.AnswerRecord{Question: block, Answer: answer}
	if _, perr := schema.Parse(answer, schema.NewObjectSchema("whole_paper")); perr != nil {
		rec.Error = perr.Error()
	}
	return []models.AnswerRecord{rec}, nil
}

// QuestionBlock joins question texts the way they are stored as a single
// column in whole-paper mode.
func QuestionBlock(qs []questions.Question) string {
	return strings.Join(questions.Texts(qs), "\n\n")
}

func wholePaperPrompt(text string, qs []questions.Question) string {
	var b strings.Builder
	b.WriteString("Read the paper below and answer every question. Reply with a single JSON object using these keys:\n")
	for i, q := range qs {
		fmt.Fprintf(&b, "- %q: %s\n", answerKey(i, q), q.Text)
	}
	b.WriteString("Use \"Not mentioned\" when the paper does not say.\n\nPaper:\n")
	b.WriteString(text)
	return b.String()
}

func answerKey(i int, q questions.Question) string {
	if q.Field != "" {
		return q.Field
	}
	return fmt.Sprintf("q%d", i+1)
}

// Package extract turns stored answers into one CSV table per review field.
package extract

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"

	"litreview/internal/models"
	"litreview/internal/observability"
	"litreview/internal/schema"
	"litreview/internal/util"
)

// RawAnswer is an answer string still to be run through the tiered parser.
// Any other section value has already been decoded.
type RawAnswer string

type Extractor struct {
	dir       string
	overwrite bool
	logger    zerolog.Logger
	metrics   *observability.Metrics
}

func NewExtractor(dir string, overwrite bool, logger zerolog.Logger, metrics *observability.Metrics) *Extractor {
	return &Extractor{
		dir:       dir,
		overwrite: overwrite,
		logger:    logger.With().Str("component", "extract").Logger(),
		metrics:   metrics,
	}
}

// SectionMaps builds, per document, the raw value of every field answered.
// Records naming a field contribute their answer under that field; other
// records are parsed as JSON objects whose keys are merged in.
func (e *Extractor) SectionMaps(checkpoint map[string][]models.AnswerRecord) map[string]map[string]any {
	out := make(map[string]map[string]any, len(checkpoint))
	obj := schema.NewObjectSchema("answer")
	for doc, recs := range checkpoint {
		m := map[string]any{}
		for _, rec := range recs {
			if rec.Failed() {
				continue
			}
			if rec.Field != "" {
				m[rec.Field] = RawAnswer(rec.Answer)
				continue
			}
			res, err := schema.Parse(rec.Answer, obj)
			if err != nil {
				e.logger.Debug().Str("document", doc).Msg("answer is not a json object, ignoring for extraction")
				continue
			}
			e.metrics.ParsedWith(res.Strategy)
			for k, v := range res.Value.(map[string]any) {
				m[k] = v
			}
		}
		out[doc] = m
	}
	return out
}

// ExtractAll writes every section table and returns the paths written.
func (e *Extractor) ExtractAll(ctx context.Context, checkpoint map[string][]models.AnswerRecord) ([]string, error) {
	maps := e.SectionMaps(checkpoint)
	var written []string
	for _, sec := range Sections {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		path, ok, err := e.ExtractSection(sec, maps)
		if err != nil {
			return written, err
		}
		if ok {
			written = append(written, path)
		}
	}
	return written, nil
}

// ExtractSection writes <dir>/<section>.csv unless it already exists and
// overwrite is off. It reports whether the file was written.
func (e *Extractor) ExtractSection(sec Section, maps map[string]map[string]any) (string, bool, error) {
	path := filepath.Join(e.dir, sec.Name+".csv")
	if !e.overwrite && util.FileExists(path) {
		e.logger.Info().Msgf("%s already exists, skipping", path)
		return path, false, nil
	}
	docs := make([]string, 0, len(maps))
	for d := range maps {
		docs = append(docs, d)
	}
	sort.Strings(docs)

	fs := sectionSchema(sec)
	var rows [][]string
	for _, doc := range docs {
		value := e.sectionValue(doc, sec, fs, maps[doc][sec.Name])
		for _, r := range Rows(value, sec.Columns) {
			rows = append(rows, append([]string{doc}, r...))
		}
	}
	header := append([]string{"filename"}, sec.Columns...)
	if err := util.WriteCSVAtomic(path, header, rows); err != nil {
		return path, false, err
	}
	e.metrics.FieldRows(sec.Name, len(rows))
	e.logger.Info().Str("section", sec.Name).Int("rows", len(rows)).Str("path", path).Msg("wrote field table")
	return path, true, nil
}

// sectionValue decodes raw answers with the tiered parser. Values already
// decoded from a JSON object are used as they are.
func (e *Extractor) sectionValue(doc string, sec Section, fs schema.FieldSchema, raw any) any {
	s, ok := raw.(RawAnswer)
	if !ok {
		return raw
	}
	res, err := schema.Parse(string(s), fs)
	if err != nil {
		e.logger.Warn().Str("document", doc).Str("section", sec.Name).Msg("unparseable answer, writing blank row")
		return nil
	}
	e.metrics.ParsedWith(res.Strategy)
	return res.Value
}

// Single-column sections accept free text; wider ones need structure.
func sectionSchema(sec Section) schema.FieldSchema {
	if len(sec.Columns) == 1 {
		s := schema.NewTextSchema(sec.Name)
		s.Columns = sec.Columns
		return s
	}
	return schema.NewTableSchema(sec.Name, sec.Columns...)
}

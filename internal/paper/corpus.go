package paper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"litreview/internal/models"
	"litreview/internal/observability"
	"litreview/internal/util"

	"github.com/rs/zerolog"
)

// CorpusParser applies a Parser to many files and writes one text file per
// document key.
type CorpusParser struct {
	parser  *Parser
	textDir string
	logger  zerolog.Logger
	metrics *observability.Metrics
}

func NewCorpusParser(parser *Parser, textDir string, logger zerolog.Logger, metrics *observability.Metrics) *CorpusParser {
	return &CorpusParser{
		parser:  parser,
		textDir: textDir,
		logger:  logger.With().Str("component", "corpus_parser").Logger(),
		metrics: metrics,
	}
}

// ParseAll parses paths in order and returns key -> text. When two files share
// a key the later one wins. Files that fail to parse are logged and skipped;
// papers without a body are left out of the result.
func (c *CorpusParser) ParseAll(ctx context.Context, paths []string) (map[string]string, error) {
	out := make(map[string]string, len(paths))
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		doc, err := c.parseFile(path)
		if err != nil {
			c.metrics.DocumentParsed("failed")
			c.logger.Warn().Err(err).Str("path", path).Msg("skipping unparseable document")
			continue
		}
		if doc.Text == "" {
			c.metrics.DocumentParsed("unavailable")
			c.logger.Info().Str("key", doc.Key).Msg("no body, recorded as unavailable")
			continue
		}
		c.metrics.DocumentParsed("ok")
		out[doc.Key] = doc.Text
		c.logger.Info().Int("done", i+1).Int("total", len(paths)).Str("key", doc.Key).Msg("parsed document")
	}
	return out, nil
}

// WriteTexts stores each text under textDir using FileNameForKey.
func (c *CorpusParser) WriteTexts(texts map[string]string) error {
	keys := make([]string, 0, len(texts))
	for k := range texts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := util.WriteTextAtomic(filepath.Join(c.textDir, FileNameForKey(k)), texts[k]); err != nil {
			return fmt.Errorf("write text for %s: %w", k, err)
		}
	}
	return nil
}

// Run parses paths and writes the resulting texts.
func (c *CorpusParser) Run(ctx context.Context, paths []string) (int, error) {
	texts, err := c.ParseAll(ctx, paths)
	if err != nil {
		return 0, err
	}
	if err := c.WriteTexts(texts); err != nil {
		return 0, err
	}
	c.logger.Info().Int("documents", len(texts)).Str("dir", c.textDir).Msg("wrote normalized texts")
	return len(texts), nil
}

func (c *CorpusParser) parseFile(path string) (models.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.Document{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return c.parser.ParseDocument(f)
}

// ParseAllSections runs ParseSections over paths, later keys overwriting
// earlier ones, and writes the result as one JSON document.
func (c *CorpusParser) ParseAllSections(ctx context.Context, paths []string, outPath string) (int, error) {
	out := map[string]models.SectionedDocument{}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		doc, err := withFile(path, ParseSections)
		if err != nil {
			c.logger.Warn().Err(err).Str("path", path).Msg("skipping document sections")
			continue
		}
		out[doc.Key] = doc
	}
	if err := util.WriteJSONAtomic(outPath, out); err != nil {
		return 0, err
	}
	return len(out), nil
}

// ParseAllAbstracts collects EID -> abstract for paths into one JSON document.
func (c *CorpusParser) ParseAllAbstracts(ctx context.Context, paths []string, outPath string) (int, error) {
	out := map[string]string{}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		f, err := os.Open(path)
		if err != nil {
			return 0, fmt.Errorf("open %s: %w", path, err)
		}
		eid, abstract, err := ParseAbstract(f)
		_ = f.Close()
		if err != nil {
			if errors.Is(err, ErrMissingMetadata) {
				c.logger.Warn().Str("path", path).Msg("no eid, skipping abstract")
			} else {
				c.logger.Warn().Err(err).Str("path", path).Msg("skipping abstract")
			}
			continue
		}
		out[eid] = abstract
	}
	if err := util.WriteJSONAtomic(outPath, out); err != nil {
		return 0, err
	}
	return len(out), nil
}

func withFile[T any](path string, fn func(r io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return fn(f)
}

// ListXML returns the .xml files in dir, sorted by name.
func ListXML(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read xml dir: %w", err)
	}
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".xml" {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

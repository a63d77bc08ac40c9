// Package questions loads the fixed question battery asked of every document.
package questions

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrNoQuestions = errors.New("no questions found")

// Question is one prompt of the battery. Field names the extraction section
// the answer feeds; Schema names the structured shape expected back.
type Question struct {
	Text   string `yaml:"text" json:"text"`
	Field  string `yaml:"field,omitempty" json:"field,omitempty"`
	Schema string `yaml:"schema,omitempty" json:"schema,omitempty"`
}

var blankLines = regexp.MustCompile(`\n\s*\n`)

// Load reads YAML ({text, field, schema} list) for .yaml/.yml files and
// blank-line separated paragraphs otherwise.
func Load(path string) ([]Question, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read questions %s: %w", path, err)
	}
	var qs []Question
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		qs, err = ParseYAML(b)
	default:
		qs = ParseText(string(b))
	}
	if err != nil {
		return nil, err
	}
	if len(qs) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoQuestions)
	}
	return qs, nil
}

func ParseText(s string) []Question {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	var out []Question
	for _, block := range blankLines.Split(s, -1) {
		if block = strings.TrimSpace(block); block != "" {
			out = append(out, Question{Text: block})
		}
	}
	return out
}

func ParseYAML(b []byte) ([]Question, error) {
	var raw []Question
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode questions yaml: %w", err)
	}
	out := raw[:0]
	for i, q := range raw {
		q.Text = strings.TrimSpace(q.Text)
		if q.Text == "" {
			return nil, fmt.Errorf("question %d has no text", i+1)
		}
		out = append(out, q)
	}
	return out, nil
}

// Texts returns the question strings in order, the column order of the
// answer projections.
func Texts(qs []Question) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.Text
	}
	return out
}

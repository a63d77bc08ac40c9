// Package paper turns publisher full-text XML into normalized plain text and
// section trees.
package paper

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"litreview/internal/models"
	"litreview/internal/util"
)

var ErrMissingMetadata = errors.New("document has no coredata identifier")

// UnavailableLog receives papers whose XML carries no body.
type UnavailableLog interface {
	Record(title, key string) error
}

// FileUnavailableLog appends "title,key," lines to a CSV-like side file.
type FileUnavailableLog struct {
	Path string
}

func (l FileUnavailableLog) Record(title, key string) error {
	return util.AppendLine(l.Path, strings.ReplaceAll(title, ",", "")+","+key+",")
}

type Parser struct {
	chunkSize   int
	unavailable UnavailableLog
}

func NewParser(chunkSize int, unavailable UnavailableLog) *Parser {
	if chunkSize <= 0 {
		chunkSize = util.DefaultChunkSize
	}
	return &Parser{chunkSize: chunkSize, unavailable: unavailable}
}

// ParseDocument reads one XML paper. A paper without a body yields a Document
// with empty Text and is recorded in the unavailable log.
func (p *Parser) ParseDocument(r io.Reader) (models.Document, error) {
	root, err := parseTree(r)
	if err != nil {
		return models.Document{}, err
	}
	doc, err := readMetadata(root)
	if err != nil {
		return models.Document{}, err
	}

	body := root.find("body")
	if body == nil {
		if p.unavailable != nil {
			if err := p.unavailable.Record(doc.Title, doc.Key); err != nil {
				return doc, fmt.Errorf("record unavailable %s: %w", doc.Key, err)
			}
		}
		return doc, nil
	}

	var b strings.Builder
	b.WriteString("DOI: " + doc.Key + "\n\n")
	b.WriteString("Title: " + doc.Title + "\n\n")
	b.WriteString("Keywords: " + strings.Join(doc.Keywords, ", ") + "\n\n")
	b.WriteString("Abstract: " + doc.Abstract + "\n\n")
	b.WriteString("Data availability: " + doc.DataAvailability + "\n\n")
	b.WriteString("Paper content:\n")
	p.writeBody(&b, body)

	doc.Text = strings.TrimSpace(b.String())
	return doc, nil
}

func readMetadata(root *node) (models.Document, error) {
	coredata := root.find("coredata")
	key := strings.TrimSpace(coredata.child("doi").textContent())
	if coredata == nil || key == "" {
		return models.Document{}, ErrMissingMetadata
	}
	doc := models.Document{
		Key:              key,
		Title:            strings.TrimSpace(coredata.child("title").textContent()),
		DataAvailability: models.DataAvailabilityMissing,
	}

	head := root.find("head")
	for _, kw := range head.descendants("keyword") {
		doc.Keywords = append(doc.Keywords, cleanInline(kw.textContent()))
	}
	doc.Abstract = cleanJoined(joinOwnText(head.descendants("abstract"), "simple-para"))
	if da := cleanJoined(joinOwnText(head.descendants("data-availability"), "para")); da != "" {
		doc.DataAvailability = da
	}
	return doc, nil
}

func joinOwnText(containers []*node, leaf string) string {
	var b strings.Builder
	for _, c := range containers {
		for _, n := range c.descendants(leaf) {
			b.WriteString(n.ownText())
		}
	}
	return b.String()
}

// writeBody walks label, section-title and para elements as one flat
// sequence. A label of digits marks the next title as a section title; a
// decimal label marks it as a subsection title. A new section title clears
// the subsection. Titles with no pending label are treated as content.
func (p *Parser) writeBody(b *strings.Builder, body *node) {
	var (
		awaitSection    bool
		awaitSubsection bool
		sectionTitle    string
		subsectionTitle string
	)
	for _, n := range body.descendants("section-title", "para", "label") {
		if n.name == "label" {
			text := n.leadText()
			switch {
			case isDigits(text):
				awaitSection = true
			case isDecimal(text):
				awaitSubsection = true
			}
			continue
		}
		if n.name == "section-title" {
			if awaitSection {
				awaitSection = false
				sectionTitle = cleanBlock(n.textContent())
				subsectionTitle = ""
				continue
			}
			if awaitSubsection {
				awaitSubsection = false
				subsectionTitle = cleanBlock(n.textContent())
				continue
			}
		}

		context := sectionTitle
		if subsectionTitle != "" {
			context = sectionTitle + ": " + subsectionTitle
		}
		for _, chunk := range util.ChunkSentences(cleanBlock(n.textContent()), p.chunkSize) {
			b.WriteString(context + ": " + chunk + "\n\n")
		}
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func isDecimal(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}

package paper

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"litreview/internal/models"
)

// ErrNoBody is returned by the section and abstract parsers, which have no
// unavailable-paper fallback.
var ErrNoBody = errors.New("document has no body")

// ParseSections builds the category-grouped section tree of a paper, keyed by
// its EID. Top-level sections are classified by title; a subsection whose
// title mentions results is filed under Results whatever its parent's class.
func ParseSections(r io.Reader) (models.SectionedDocument, error) {
	root, err := parseTree(r)
	if err != nil {
		return models.SectionedDocument{}, err
	}
	coredata := root.find("coredata")
	eid := strings.TrimSpace(coredata.child("eid").textContent())
	if eid == "" {
		return models.SectionedDocument{}, ErrMissingMetadata
	}
	doc := models.SectionedDocument{
		Key:        eid,
		Title:      strings.TrimSpace(coredata.child("title").textContent()),
		Categories: map[models.Category][]models.Section{},
	}
	head := root.find("head")
	for _, kw := range head.descendants("keyword") {
		doc.Keywords = append(doc.Keywords, cleanInline(kw.textContent()))
	}
	doc.Abstract = cleanJoined(joinOwnText(head.descendants("abstract"), "simple-para"))

	body := root.find("body")
	if body == nil {
		return doc, fmt.Errorf("%s: %w", eid, ErrNoBody)
	}
	for _, sec := range body.child("sections").children("section") {
		title := sec.child("section-title").leadText()
		category := ClassifySection(title)
		subs := sec.children("section")
		if len(subs) == 0 {
			addSubsection(&doc, category, title, models.Subsection{Title: title, Paragraphs: paragraphs(sec)})
			continue
		}
		for _, sub := range subs {
			subTitle := sub.child("section-title").leadText()
			target := category
			if strings.Contains(strings.ToLower(subTitle), "result") {
				target = models.CategoryResults
			}
			addSubsection(&doc, target, title, models.Subsection{Title: subTitle, Paragraphs: paragraphs(sub)})
		}
	}
	return doc, nil
}

func paragraphs(n *node) []string {
	paras := n.descendants("para")
	out := make([]string, 0, len(paras))
	for _, p := range paras {
		out = append(out, cleanBlock(p.textContent()))
	}
	return out
}

func addSubsection(doc *models.SectionedDocument, category models.Category, sectionTitle string, sub models.Subsection) {
	sections := doc.Categories[category]
	for i := range sections {
		if sections[i].Title == sectionTitle {
			sections[i].Subsections = append(sections[i].Subsections, sub)
			return
		}
	}
	doc.Categories[category] = append(sections, models.Section{Title: sectionTitle, Subsections: []models.Subsection{sub}})
}

package models

import "time"

type Category string

const (
	CategoryIntroduction Category = "Introduction"
	CategoryLiterature   Category = "Literature review"
	CategoryMethodology  Category = "Methodology"
	CategoryResults      Category = "Results"
	CategoryOthers       Category = "Others"
)

// DataAvailabilityMissing is recorded when a paper has no data-availability statement.
const DataAvailabilityMissing = "Not mentioned"

// Document is the normalized form of one publisher XML paper.
type Document struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	Keywords         []string `json:"keywords"`
	Abstract         string   `json:"abstract"`
	DataAvailability string   `json:"data_availability"`
	Text             string   `json:"text"`
}

type Subsection struct {
	Title      string   `json:"title"`
	Paragraphs []string `json:"paragraphs"`
}

type Section struct {
	Title       string       `json:"title"`
	Subsections []Subsection `json:"subsections"`
}

// SectionedDocument groups a paper's sections by classified category.
type SectionedDocument struct {
	Key        string                 `json:"key"`
	Title      string                 `json:"title"`
	Keywords   []string               `json:"keywords"`
	Abstract   string                 `json:"abstract"`
	Categories map[Category][]Section `json:"categories"`
}

// ErrorAnswer marks a question that could not be answered.
const ErrorAnswer = "Error"

// AnswerRecord is one (document, question) result.
type AnswerRecord struct {
	Question       string `json:"question"`
	SourcePassages string `json:"source_passages"`
	Answer         string `json:"answer"`
	Field          string `json:"field,omitempty"`
	Error          string `json:"error,omitempty"`
}

func (a AnswerRecord) Failed() bool {
	return a.Answer == ErrorAnswer
}

type Passage struct {
	Index int     `json:"index"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// DocumentStatus is derived from a document's stored answers.
type DocumentStatus string

const (
	StatusCompleted DocumentStatus = "completed"
	StatusErrored   DocumentStatus = "errored"
	StatusSkipped   DocumentStatus = "skipped"
)

// StatusOf reports errored when every answer failed.
func StatusOf(records []AnswerRecord) DocumentStatus {
	if len(records) == 0 {
		return StatusErrored
	}
	for _, r := range records {
		if !r.Failed() {
			return StatusCompleted
		}
	}
	return StatusErrored
}

type DocumentEvent struct {
	ID        string         `json:"id"`
	RunKey    string         `json:"run_key"`
	Filename  string         `json:"filename"`
	Status    DocumentStatus `json:"status"`
	Questions int            `json:"questions"`
	Failed    int            `json:"failed"`
	At        time.Time      `json:"at"`
}

package qa

import (
	"strings"

	"litreview/internal/schema"
)

const promptTemplate = "Instructions:\n" +
	"- Provide keywords and summary which should be relevant to answer the question.\n" +
	"- Provide detailed responses that relate to the humans prompt.\n" +
	"- Answer \"Not sure\" if you are not sure about the answer.\n" +
	"{context}\n" +
	"- Human:\n" +
	"{question}\n" +
	"- You:"

// BuildPrompt fills the fixed template. A non-nil schema appends format
// instructions after the question.
func BuildPrompt(context, question string, s *schema.FieldSchema) string {
	if s != nil {
		question += "\n" + formatInstructions(*s)
	}
	r := strings.NewReplacer("{context}", context, "{question}", question)
	return r.Replace(promptTemplate)
}

func formatInstructions(s schema.FieldSchema) string {
	switch s.Kind {
	case schema.Table:
		if len(s.Columns) > 0 {
			return "Format the answer as a JSON list where each item is a list of values for: " + strings.Join(s.Columns, ", ") + "."
		}
		return "Format the answer as a JSON list."
	case schema.Object:
		return "Format the answer as a single JSON object."
	default:
		return "Answer in plain text."
	}
}

// JoinPassages renders retrieved passages as the prompt context and the
// stored source_passages value.
func JoinPassages(texts []string) string {
	return strings.Join(texts, "\n\n")
}

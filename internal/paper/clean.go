package paper

import (
	"regexp"
	"strings"
)

var (
	spaceRun    = regexp.MustCompile(` +`)
	bracketText = regexp.MustCompile(`\[.*?\]`)
)

// cleanBlock normalizes a title or paragraph: newlines become spaces, space
// runs collapse, bracketed citation markers are removed and " ." is closed up.
func cleanBlock(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = spaceRun.ReplaceAllString(s, " ")
	s = bracketText.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, " .", ".")
	return strings.TrimSpace(s)
}

// cleanInline is used for keywords.
func cleanInline(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

// cleanJoined is used for abstract and data-availability text assembled from
// several text nodes.
func cleanJoined(s string) string {
	s = spaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}

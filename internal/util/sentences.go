package util

import (
	"strings"

	"github.com/clipperhouse/uax29/v2/sentences"
)

// Abbreviations that UAX #29 still treats as sentence ends when the next
// word is capitalised or a figure label such as "3A".
var abbreviations = map[string]struct{}{
	"al.": {}, "approx.": {}, "ca.": {}, "cf.": {}, "dr.": {}, "e.g.": {},
	"eq.": {}, "eqs.": {}, "etc.": {}, "fig.": {}, "figs.": {}, "i.e.": {},
	"no.": {}, "prof.": {}, "ref.": {}, "refs.": {}, "sec.": {}, "tab.": {},
	"vs.": {},
}

// SplitSentences segments text with the Unicode sentence boundary rules and
// rejoins segments that end in a known abbreviation. Sentences are trimmed
// and empty ones dropped.
func SplitSentences(text string) []string {
	out := make([]string, 0, 8)
	var pending string
	seg := sentences.FromString(text)
	for seg.Next() {
		s := strings.TrimSpace(seg.Value())
		if s == "" {
			continue
		}
		if pending != "" {
			s = pending + " " + s
			pending = ""
		}
		if endsWithAbbreviation(s) {
			pending = s
			continue
		}
		out = append(out, s)
	}
	if pending != "" {
		out = append(out, pending)
	}
	return out
}

func endsWithAbbreviation(s string) bool {
	i := strings.LastIndexAny(s, " \t\n(")
	_, ok := abbreviations[strings.ToLower(s[i+1:])]
	return ok
}

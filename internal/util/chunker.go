package util

import (
	"strings"
	"unicode/utf8"
)

const DefaultChunkSize = 1000

// ChunkSentences packs whole sentences into chunks of at most maxSize
// characters. A sentence longer than maxSize becomes a chunk of its own and is
// never cut.
func ChunkSentences(text string, maxSize int) []string {
	if maxSize <= 0 {
		maxSize = DefaultChunkSize
	}
	sentences := SplitSentences(text)
	out := make([]string, 0, len(sentences)/4+1)
	var b strings.Builder
	size := 0
	for _, s := range sentences {
		n := utf8.RuneCountInString(s)
		if size > 0 && size+1+n > maxSize {
			out = append(out, b.String())
			b.Reset()
			size = 0
		}
		if size > 0 {
			b.WriteByte(' ')
			size++
		}
		b.WriteString(s)
		size += n
	}
	if size > 0 {
		out = append(out, b.String())
	}
	return out
}

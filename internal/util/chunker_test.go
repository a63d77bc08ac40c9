package util

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

func sentenceOfLen(i, n int) string {
	head := fmt.Sprintf("Sentence %02d ", i)
	return head + strings.Repeat("x", n-len(head)-1) + "."
}

func TestChunkSentencesPacksWholeSentences(t *testing.T) {
	parts := make([]string, 0, 16)
	for i := 0; i < 16; i++ {
		parts = append(parts, sentenceOfLen(i, 155))
	}
	text := strings.Join(parts, " ")
	if n := utf8.RuneCountInString(text); n < 2400 || n > 2600 {
		t.Fatalf("fixture length %d out of range", n)
	}

	chunks := ChunkSentences(text, 1000)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	seen := 0
	for _, c := range chunks {
		if utf8.RuneCountInString(c) > 1000 {
			t.Fatalf("chunk exceeds limit: %d", utf8.RuneCountInString(c))
		}
		for _, s := range SplitSentences(c) {
			if s != parts[seen] {
				t.Fatalf("sentence %d split or reordered: %q", seen, s)
			}
			seen++
		}
	}
	if seen != len(parts) {
		t.Fatalf("expected %d sentences across chunks, got %d", len(parts), seen)
	}
}

func TestChunkSentencesOversizedSentenceStandsAlone(t *testing.T) {
	long := "Y" + strings.Repeat("y", 29) + "."
	chunks := ChunkSentences("Short one. "+long+" Tail.", 20)
	want := []string{"Short one.", long, "Tail."}
	if len(chunks) != len(want) {
		t.Fatalf("unexpected chunks: %#v", chunks)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Fatalf("chunk %d: got %q want %q", i, chunks[i], want[i])
		}
	}
}

func TestChunkSentencesEmpty(t *testing.T) {
	if got := ChunkSentences("   ", 1000); len(got) != 0 {
		t.Fatalf("expected no chunks, got %#v", got)
	}
}

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("Values rose by 3.5 percent. Why? Because!  Trailing fragment")
	want := []string{"Values rose by 3.5 percent.", "Why?", "Because!", "Trailing fragment"}
	if len(got) != len(want) {
		t.Fatalf("unexpected sentences: %#v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sentence %d: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestSplitSentencesKeepsAbbreviations(t *testing.T) {
	text := "Images were sampled every 50 m. Perception scores (e.g. safety and beauty) were collected from Fig. 2 and then averaged. " +
		"Results follow Smith et al. Table 3 lists them."
	want := []string{
		"Images were sampled every 50 m.",
		"Perception scores (e.g. safety and beauty) were collected from Fig. 2 and then averaged.",
		"Results follow Smith et al. Table 3 lists them.",
	}
	got := SplitSentences(text)
	if len(got) != len(want) {
		t.Fatalf("unexpected sentences: %#v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sentence %d: got %q want %q", i, got[i], want[i])
		}
	}

	for _, c := range ChunkSentences(text, 60) {
		if strings.HasSuffix(c, "(e.g.") || strings.HasSuffix(c, "Fig.") {
			t.Fatalf("chunk ends inside a sentence: %q", c)
		}
	}
}

package util

import "testing"

func TestDisplaySnippet(t *testing.T) {
	out := DisplaySnippet("Hello\x00   world \n\t again", 100)
	if out != "Hello world again" {
		t.Fatalf("unexpected snippet: %q", out)
	}
	if got := DisplaySnippet("abcdefghij", 4); got != "abcd..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
}

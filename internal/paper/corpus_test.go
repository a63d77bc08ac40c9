package paper

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeXML(t *testing.T, dir, name, key, para string) string {
	t.Helper()
	body := `<doc><coredata><doi>` + key + `</doi><title>T</title></coredata><body><label>1</label><section-title>S</section-title><para>` + para + `</para></body></doc>`
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestCorpusParserLastWriteWinsAndIdempotent(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	a := writeXML(t, in, "a.xml", "10.1/x", "First.")
	b := writeXML(t, in, "b.xml", "10.1/x", "Second.")
	c := writeXML(t, in, "c.xml", "10.1/y", "Other.")
	bad := filepath.Join(in, "bad.xml")
	require.NoError(t, os.WriteFile(bad, []byte("<doc><coredata></coredata></doc>"), 0o644))

	cp := NewCorpusParser(NewParser(1000, nil), out, zerolog.Nop(), nil)
	texts, err := cp.ParseAll(context.Background(), []string{a, bad, b, c})
	require.NoError(t, err)
	require.Len(t, texts, 2)
	assert.Contains(t, texts["10.1/x"], "S: Second.")

	_, err = cp.Run(context.Background(), []string{a, b, c})
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(out, "10.1_x.txt"))
	require.NoError(t, err)

	_, err = cp.Run(context.Background(), []string{a, b, c})
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(out, "10.1_x.txt"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, texts["10.1/x"], string(first))
}

func TestCorpusParserStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cp := NewCorpusParser(NewParser(1000, nil), t.TempDir(), zerolog.Nop(), nil)
	_, err := cp.ParseAll(ctx, []string{"ignored.xml"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestParseAllSectionsAndAbstracts(t *testing.T) {
	out := t.TempDir()
	cp := NewCorpusParser(NewParser(1000, nil), out, zerolog.Nop(), nil)
	fixture := filepath.Join("testdata", "article.xml")

	n, err := cp.ParseAllSections(context.Background(), []string{fixture}, filepath.Join(out, "sections.json"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = cp.ParseAllAbstracts(context.Background(), []string{fixture, filepath.Join("testdata", "nobody.xml")}, filepath.Join(out, "abstracts.json"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	b, err := os.ReadFile(filepath.Join(out, "abstracts.json"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "Street-level imagery reveals greenery.")
}

func TestListXML(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"b.xml", "a.xml", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), nil, 0o644))
	}
	paths, err := ListXML(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.xml"), filepath.Join(dir, "b.xml")}, paths)
}

package docload

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"litreview/internal/util"
)

type fakeOCR struct {
	text  string
	err   error
	calls int
}

func (f *fakeOCR) RecognizePDF(context.Context, string) (string, error) {
	f.calls++
	return f.text, f.err
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestIsReadable(t *testing.T) {
	assert.True(t, IsReadable("Plain English text.", 0.5))
	assert.False(t, IsReadable("", 0.5))
	assert.False(t, IsReadable("\x01\x02\x03ab", 0.5))
	assert.False(t, IsReadable("ab\x01\x02", 0.5), "exactly half is not above the threshold")
}

func TestLoadText(t *testing.T) {
	// "e" followed by a combining acute accent composes to a single rune.
	path := writeFile(t, "paper.txt", "  Cafe\u0301 study\x00 \n")
	l := NewLoader(0, nil, zerolog.Nop())
	text, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Caf\u00e9 study", text)
}

func TestLoadUnsupportedAndEmpty(t *testing.T) {
	l := NewLoader(0, nil, zerolog.Nop())
	_, err := l.Load(context.Background(), writeFile(t, "paper.docx", "x"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = l.Load(context.Background(), writeFile(t, "empty.txt", " \n\t"))
	assert.ErrorIs(t, err, util.ErrNoExtractableText)
	assert.False(t, Supported("a.docx"))
	assert.True(t, Supported("A.PDF"))
}

func TestLoadPDFFallsBackToOCR(t *testing.T) {
	ocr := &fakeOCR{text: "Recognised page text."}
	l := NewLoader(0.5, ocr, zerolog.Nop())
	l.extractPDF = func(string) (string, error) { return "\x01\x02\x03\x04", nil }

	text, err := l.Load(context.Background(), "scan.pdf")
	require.NoError(t, err)
	assert.Equal(t, "Recognised page text.", text)
	assert.Equal(t, 1, ocr.calls)
}

func TestLoadPDFReadableSkipsOCR(t *testing.T) {
	ocr := &fakeOCR{text: "unused"}
	l := NewLoader(0.5, ocr, zerolog.Nop())
	l.extractPDF = func(string) (string, error) { return "A readable text layer.", nil }

	text, err := l.Load(context.Background(), "born-digital.pdf")
	require.NoError(t, err)
	assert.Equal(t, "A readable text layer.", text)
	assert.Equal(t, 0, ocr.calls)
}

func TestLoadPDFOCRUnavailableKeepsTextLayer(t *testing.T) {
	l := NewLoader(0.9, &fakeOCR{err: ErrOCRNotEnabled}, zerolog.Nop())
	l.extractPDF = func(string) (string, error) { return "mostly ok é é", nil }

	text, err := l.Load(context.Background(), "x.pdf")
	require.NoError(t, err)
	assert.Equal(t, "mostly ok é é", text)

	l.extractPDF = func(string) (string, error) { return "", errors.New("broken xref") }
	_, err = l.Load(context.Background(), "x.pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOCRNotEnabled)
}

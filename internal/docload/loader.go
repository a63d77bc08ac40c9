// Package docload reads review inputs (plain text or PDF) into text, falling
// back to OCR when a PDF's text layer is unreadable.
package docload

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"

	"litreview/internal/util"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrOCRNotEnabled     = errors.New("ocr support not compiled in (build with -tags ocr)")
)

const DefaultReadabilityThreshold = 0.5

// OCR recognises the text of a scanned PDF.
type OCR interface {
	RecognizePDF(ctx context.Context, path string) (string, error)
}

type Loader struct {
	threshold  float64
	ocr        OCR
	extractPDF func(path string) (string, error)
	logger     zerolog.Logger
}

func NewLoader(threshold float64, ocr OCR, logger zerolog.Logger) *Loader {
	if threshold <= 0 {
		threshold = DefaultReadabilityThreshold
	}
	return &Loader{
		threshold:  threshold,
		ocr:        ocr,
		extractPDF: extractPlainText,
		logger:     logger.With().Str("component", "docload").Logger(),
	}
}

// Supported reports whether path has an extension Load understands.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".pdf":
		return true
	}
	return false
}

func (l *Loader) Load(ctx context.Context, path string) (string, error) {
	var (
		text string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		var b []byte
		b, err = os.ReadFile(path)
		text = string(b)
	case ".pdf":
		text, err = l.loadPDF(ctx, path)
	default:
		return "", fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupportedFormat)
	}
	if err != nil {
		return "", fmt.Errorf("load %s: %w", filepath.Base(path), err)
	}
	text = util.SanitizeText(norm.NFC.String(text))
	if text == "" {
		return "", fmt.Errorf("%s: %w", filepath.Base(path), util.ErrNoExtractableText)
	}
	return text, nil
}

func (l *Loader) loadPDF(ctx context.Context, path string) (string, error) {
	text, err := l.extractPDF(path)
	if err != nil {
		l.logger.Warn().Err(err).Str("file", filepath.Base(path)).Msg("pdf text layer extraction failed")
	}
	if err == nil && IsReadable(text, l.threshold) {
		return text, nil
	}
	if l.ocr == nil {
		return text, err
	}
	l.logger.Info().Str("file", filepath.Base(path)).Msg("pdf text unreadable, running ocr")
	ocrText, ocrErr := l.ocr.RecognizePDF(ctx, path)
	if ocrErr != nil {
		if err != nil {
			return "", errors.Join(err, ocrErr)
		}
		l.logger.Warn().Err(ocrErr).Str("file", filepath.Base(path)).Msg("ocr failed, keeping text layer")
		return text, nil
	}
	return ocrText, nil
}

// IsReadable reports whether the share of printable ASCII runes exceeds
// threshold. Empty text is unreadable.
func IsReadable(text string, threshold float64) bool {
	total, printable := 0, 0
	for _, r := range text {
		total++
		if r >= 0x20 && r <= 0x7E {
			printable++
		}
	}
	if total == 0 {
		return false
	}
	return float64(printable)/float64(total) > threshold
}

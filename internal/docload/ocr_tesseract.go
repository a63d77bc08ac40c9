//go:build ocr

package docload

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractOCR runs page images through a local Tesseract install.
type TesseractOCR struct {
	language string
}

func NewTesseractOCR(language string) *TesseractOCR {
	if language == "" {
		language = "eng"
	}
	return &TesseractOCR{language: language}
}

func (t *TesseractOCR) RecognizePDF(ctx context.Context, path string) (string, error) {
	images, err := pageImages(ctx, path)
	if err != nil {
		return "", err
	}
	if len(images) == 0 {
		return "", fmt.Errorf("pdf has no page images")
	}
	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(t.language); err != nil {
		return "", fmt.Errorf("set ocr language: %w", err)
	}
	pages := make([]string, 0, len(images))
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := client.SetImageFromBytes(img); err != nil {
			return "", fmt.Errorf("ocr image %d: %w", i+1, err)
		}
		text, err := client.Text()
		if err != nil {
			return "", fmt.Errorf("ocr image %d: %w", i+1, err)
		}
		pages = append(pages, strings.TrimSpace(text))
	}
	return strings.Join(pages, "\n\n"), nil
}

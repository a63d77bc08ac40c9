//go:build !ocr

package docload

import "context"

// TesseractOCR is unavailable in builds without the ocr tag.
type TesseractOCR struct{}

func NewTesseractOCR(string) *TesseractOCR { return &TesseractOCR{} }

func (*TesseractOCR) RecognizePDF(ctx context.Context, path string) (string, error) {
	if _, err := pageImages(ctx, path); err != nil {
		return "", err
	}
	return "", ErrOCRNotEnabled
}

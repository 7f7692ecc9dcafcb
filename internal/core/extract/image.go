package extract

import (
	"context"
	"fmt"

	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/core"
)

var _ Extractor = (*ImageExtractor)(nil)

// ImageExtractor runs OCR directly against raster bytes.
type ImageExtractor struct {
	ocr  core.OCRProvider
	lang string
}

func NewImageExtractor(ocr core.OCRProvider, lang string) *ImageExtractor {
	return &ImageExtractor{ocr: ocr, lang: lang}
}

func (e *ImageExtractor) Extract(ctx context.Context, data []byte) Result {
	text, err := e.ocr.Recognize(ctx, data, e.lang)
	if err != nil {
		return Failed(fmt.Errorf("image ocr: %w", err))
	}
	return Success(text)
}

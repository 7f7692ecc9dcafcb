package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TextLayerReader reads the digital text layer of a PDF.
type TextLayerReader interface {
	ReadText(ctx context.Context, data []byte) (string, error)
}

// PageOCR renders a PDF's pages to rasters and runs OCR over them.
type PageOCR interface {
	RecognizePDF(ctx context.Context, data []byte) (string, error)
}

var _ Extractor = (*PDFExtractor)(nil)

// PDFExtractor is the two-tier PDF strategy: direct text-layer
// extraction first, OCR only when the text layer is effectively empty.
// Digital extraction is cheap and accurate when available; OCR is
// expensive and approximate, so it is strictly the escalation path for
// scanned documents.
type PDFExtractor struct {
	textLayer TextLayerReader
	ocr       PageOCR
	minViable int
	logger    *slog.Logger
}

func NewPDFExtractor(textLayer TextLayerReader, ocr PageOCR, minViable int) *PDFExtractor {
	return &PDFExtractor{
		textLayer: textLayer,
		ocr:       ocr,
		minViable: minViable,
		logger:    slog.With("component", "extract.pdf"),
	}
}

func (e *PDFExtractor) Extract(ctx context.Context, data []byte) Result {
	text, err := e.textLayer.ReadText(ctx, data)
	if err != nil {
		e.logger.Warn("text-layer extraction failed, escalating to ocr", "error", err)
	} else if utf8.RuneCountInString(stripWhitespace(text)) >= e.minViable {
		return Success(strings.TrimSpace(text))
	}

	// Text layer missing or too thin: treat as a scanned document.
	ocrText, err := e.ocr.RecognizePDF(ctx, data)
	if err != nil {
		if errors.Is(err, ErrNoReadableText) {
			return Fallback("ocr found no readable text")
		}
		return Failed(fmt.Errorf("pdf ocr: %w", err))
	}
	return Success(strings.TrimSpace(ocrText))
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

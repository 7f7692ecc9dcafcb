package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/core"
)

var _ core.OCRProvider = (*TesseractClient)(nil)

// TesseractClient runs OCR through a local tesseract installation.
// A fresh gosseract client is created per call; the underlying C API is
// not safe for concurrent use on one handle.
type TesseractClient struct{}

func NewTesseractClient() *TesseractClient {
	return &TesseractClient{}
}

func (t *TesseractClient) Recognize(ctx context.Context, image []byte, lang string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if lang != "" {
		if err := client.SetLanguage(lang); err != nil {
			return "", fmt.Errorf("set ocr language %q: %w", lang, err)
		}
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set ocr image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr recognize: %w", err)
	}
	return strings.TrimSpace(text), nil
}

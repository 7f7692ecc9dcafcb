package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"code.sajari.com/docconv"
)

const docxMimeType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

var _ Extractor = (*DocconvExtractor)(nil)

// DocconvExtractor extracts raw text from office documents, discarding
// formatting. docconv is known to panic on some malformed files, so the
// whole conversion is wrapped in a recover and reported as an error
// result instead of propagating.
type DocconvExtractor struct {
	mimeType string
}

func NewDocconvExtractor() *DocconvExtractor {
	return &DocconvExtractor{mimeType: docxMimeType}
}

func (e *DocconvExtractor) Extract(ctx context.Context, data []byte) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Failed(fmt.Errorf("docconv panic: %v", r))
		}
	}()

	if err := ctx.Err(); err != nil {
		return Failed(err)
	}

	out, err := docconv.Convert(bytes.NewReader(data), e.mimeType, false)
	if err != nil {
		return Failed(fmt.Errorf("docconv convert: %w", err))
	}
	return Success(strings.TrimSpace(out.Body))
}

package extract

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"
)

var _ Extractor = (*PlainTextExtractor)(nil)

// PlainTextExtractor decodes raw bytes as UTF-8. It serves both the
// plaintext and markdown strategies; markdown is ingested verbatim.
type PlainTextExtractor struct{}

func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

func (e *PlainTextExtractor) Extract(ctx context.Context, data []byte) Result {
	if !utf8.Valid(data) {
		return Failed(errors.New("file is not valid utf-8 text"))
	}
	return Success(strings.TrimSpace(string(data)))
}

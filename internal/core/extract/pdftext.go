package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dslipak/pdf"
)

var _ TextLayerReader = (*DigitalPDFReader)(nil)

// DigitalPDFReader extracts the embedded text layer of a PDF page by
// page. Individual page reads are guarded by a timeout because the
// parser can stall on pathological content streams; a stuck or broken
// page is skipped, not fatal.
type DigitalPDFReader struct {
	pageTimeout time.Duration
	logger      *slog.Logger
}

func NewDigitalPDFReader() *DigitalPDFReader {
	return &DigitalPDFReader{
		pageTimeout: 10 * time.Second,
		logger:      slog.With("component", "extract.pdftext"),
	}
}

func (r *DigitalPDFReader) ReadText(ctx context.Context, data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var sb strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := r.readPageGuarded(page)
		if err != nil {
			r.logger.Warn("skipping unreadable page", "page", i, "error", err)
			continue
		}
		sb.WriteString(content)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func (r *DigitalPDFReader) readPageGuarded(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resCh := make(chan result, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				resCh <- result{err: fmt.Errorf("page parse panic: %v", rec)}
			}
		}()
		content, err := page.GetPlainText(nil)
		resCh <- result{content: content, err: err}
	}()

	select {
	case res := <-resCh:
		return res.content, res.err
	case <-time.After(r.pageTimeout):
		return "", errors.New("page extraction timed out")
	}
}

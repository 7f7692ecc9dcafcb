package extract

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Extractor is one strategy in the cascade.
type Extractor interface {
	Extract(ctx context.Context, data []byte) Result
}

// Cascade owns the format→strategy table and normalizes outcomes: a
// nominally successful extraction whose trimmed text is shorter than the
// minimum viable length is identical to total extraction failure.
type Cascade struct {
	strategies map[Format]Extractor
	minViable  int
	logger     *slog.Logger
}

func NewCascade(strategies map[Format]Extractor, minViable int) *Cascade {
	return &Cascade{
		strategies: strategies,
		minViable:  minViable,
		logger:     slog.With("component", "extract"),
	}
}

// Extract detects the format from the filename and runs the matching
// strategy. It never returns an error: unsupported formats and crashed
// strategies both come back as Result values.
func (c *Cascade) Extract(ctx context.Context, filename string, data []byte) Result {
	format := DetectFormat(filename)

	strategy, ok := c.strategies[format]
	if !ok {
		ext := strings.ToLower(filepath.Ext(filename))
		c.logger.Info("no extraction strategy", "filename", filename, "ext", ext)
		return Fallback(fmt.Sprintf("preview and extraction not supported for %q files", ext))
	}

	res := strategy.Extract(ctx, data)

	if res.Status == StatusOK && utf8.RuneCountInString(strings.TrimSpace(res.Text)) < c.minViable {
		c.logger.Info("extracted text below minimum viable length",
			"filename", filename, "format", string(format), "len", len(res.Text))
		return Fallback("extracted text below minimum viable length")
	}

	if res.Status == StatusError {
		c.logger.Error("extraction strategy failed", "filename", filename, "format", string(format), "error", res.Err)
	}
	return res
}

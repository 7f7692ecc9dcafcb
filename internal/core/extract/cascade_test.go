package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubExtractor returns a canned Result and records invocations.
type stubExtractor struct {
	result Result
	calls  int
}

func (s *stubExtractor) Extract(ctx context.Context, data []byte) Result {
	s.calls++
	return s.result
}

func TestCascadeUnsupportedFormatFallsBack(t *testing.T) {
	c := NewCascade(map[Format]Extractor{}, 10)

	res := c.Extract(context.Background(), "slides.pptx", []byte("irrelevant"))

	assert.Equal(t, StatusFallback, res.Status)
	assert.Contains(t, res.Reason, `".pptx"`)
}

func TestCascadeRunsMatchingStrategy(t *testing.T) {
	stub := &stubExtractor{result: Success("Bone densitometry measures mineral content.")}
	c := NewCascade(map[Format]Extractor{FormatPlaintext: stub}, 10)

	res := c.Extract(context.Background(), "notes.txt", []byte("x"))

	require.Equal(t, 1, stub.calls)
	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, "Bone densitometry measures mineral content.", res.Text)
}

func TestCascadeShortTextBecomesFallback(t *testing.T) {
	// Nine runes after trimming, one under the minimum of ten.
	stub := &stubExtractor{result: Success("  abcdefghi  ")}
	c := NewCascade(map[Format]Extractor{FormatPlaintext: stub}, 10)

	res := c.Extract(context.Background(), "notes.txt", nil)

	assert.Equal(t, StatusFallback, res.Status)
	assert.Empty(t, res.Text)
}

func TestCascadeExactMinimumLengthSucceeds(t *testing.T) {
	stub := &stubExtractor{result: Success("abcdefghij")}
	c := NewCascade(map[Format]Extractor{FormatPlaintext: stub}, 10)

	res := c.Extract(context.Background(), "notes.txt", nil)

	assert.Equal(t, StatusOK, res.Status)
}

func TestCascadePassesThroughStrategyError(t *testing.T) {
	boom := errors.New("parser crashed")
	stub := &stubExtractor{result: Failed(boom)}
	c := NewCascade(map[Format]Extractor{FormatPDF: stub}, 10)

	res := c.Extract(context.Background(), "exam.pdf", nil)

	assert.Equal(t, StatusError, res.Status)
	assert.ErrorIs(t, res.Err, boom)
}

func TestCascadePassesThroughStrategyFallback(t *testing.T) {
	stub := &stubExtractor{result: Fallback("ocr found no readable text")}
	c := NewCascade(map[Format]Extractor{FormatPDF: stub}, 10)

	res := c.Extract(context.Background(), "scan.pdf", nil)

	assert.Equal(t, StatusFallback, res.Status)
	assert.Equal(t, "ocr found no readable text", res.Reason)
}

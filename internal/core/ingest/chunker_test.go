package ingest

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTextReconstructsInput(t *testing.T) {
	text := strings.Repeat("What is the primary purpose of a grid? ", 200)

	chunks := SplitText(text, 1600)

	require.NotEmpty(t, chunks)
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestSplitTextBoundsChunkLength(t *testing.T) {
	text := strings.Repeat("radiograph ", 500)

	for _, ch := range SplitText(text, 100) {
		assert.LessOrEqual(t, utf8.RuneCountInString(ch), 100)
	}
}

func TestSplitTextCountsRunesNotBytes(t *testing.T) {
	// Multi-byte runes must never be split down the middle.
	text := strings.Repeat("放射線检查", 100)

	chunks := SplitText(text, 7)

	for _, ch := range chunks {
		assert.True(t, utf8.ValidString(ch))
		assert.LessOrEqual(t, utf8.RuneCountInString(ch), 7)
	}
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestSplitTextIsDeterministic(t *testing.T) {
	text := strings.Repeat("Define attenuation coefficient. ", 300)

	first := SplitText(text, 1600)
	second := SplitText(text, 1600)

	assert.Equal(t, first, second)
}

func TestSplitTextEdgeCases(t *testing.T) {
	assert.Nil(t, SplitText("", 1600))
	assert.Nil(t, SplitText("some text", 0))
	assert.Empty(t, SplitText("    \n\t   ", 4))

	short := SplitText("tiny", 1600)
	require.Len(t, short, 1)
	assert.Equal(t, "tiny", short[0])
}

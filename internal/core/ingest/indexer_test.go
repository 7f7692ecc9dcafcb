package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndexer(db *memDB, emb *fakeEmbedder) *Indexer {
	return NewIndexer(db, emb, IndexerConfig{ChunkSize: 50, BatchSize: 4, Concurrency: 2})
}

func TestIndexPersistsOrderedChunks(t *testing.T) {
	db := newMemDB()
	emb := &fakeEmbedder{}
	ix := newTestIndexer(db, emb)

	text := strings.Repeat("Collimation reduces patient dose and scatter. ", 10)
	count, err := ix.Index(context.Background(), "doc-1", text, false)
	require.NoError(t, err)
	require.Greater(t, count, 1)

	chunks, err := db.GetChunksByDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	require.Len(t, chunks, count)

	var rebuilt strings.Builder
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Position)
		assert.Len(t, ch.Embedding, 3)
		rebuilt.WriteString(ch.Text)
	}
	assert.Equal(t, text, rebuilt.String())
}

func TestIndexVectorsMatchChunkOrdinals(t *testing.T) {
	db := newMemDB()
	emb := &fakeEmbedder{}
	// Single-item batches with concurrency force completion-order
	// shuffling if vectors were appended instead of placed by ordinal.
	ix := NewIndexer(db, emb, IndexerConfig{ChunkSize: 10, BatchSize: 1, Concurrency: 4})

	text := "aaaaaaaaaabbbbbbbbbbccccccccccdddddddddd"
	_, err := ix.Index(context.Background(), "doc-1", text, false)
	require.NoError(t, err)

	chunks, _ := db.GetChunksByDocument(context.Background(), "doc-1")
	for _, ch := range chunks {
		assert.Equal(t, embedText(ch.Text), ch.Embedding,
			"chunk %d carries another chunk's vector", ch.Position)
	}
}

func TestIndexSecondCallIsIdempotent(t *testing.T) {
	db := newMemDB()
	emb := &fakeEmbedder{}
	ix := newTestIndexer(db, emb)

	_, err := ix.Index(context.Background(), "doc-1", "Exposure latitude is the margin of error in technique selection.", false)
	require.NoError(t, err)
	callsAfterFirst := emb.calls

	count, err := ix.Index(context.Background(), "doc-1", "different text entirely", false)
	assert.ErrorIs(t, err, ErrAlreadyPrepared)
	assert.Greater(t, count, 0)
	assert.Equal(t, callsAfterFirst, emb.calls, "idempotent call must not re-embed")
}

func TestIndexForceReplacesChunkSet(t *testing.T) {
	db := newMemDB()
	emb := &fakeEmbedder{}
	ix := newTestIndexer(db, emb)

	_, err := ix.Index(context.Background(), "doc-1", strings.Repeat("old content here. ", 20), false)
	require.NoError(t, err)

	newText := "Entirely new extracted content after re-scan."
	count, err := ix.Index(context.Background(), "doc-1", newText, true)
	require.NoError(t, err)
	require.Equal(t, 1, count)
	assert.Equal(t, 1, db.deleteCalls)

	chunks, _ := db.GetChunksByDocument(context.Background(), "doc-1")
	require.Len(t, chunks, 1, "no stale chunks may survive a forced re-ingest")
	assert.Equal(t, newText, chunks[0].Text)
}

func TestIndexEmbedFailurePersistsNothing(t *testing.T) {
	db := newMemDB()
	emb := &fakeEmbedder{err: errors.New("quota exceeded")}
	ix := newTestIndexer(db, emb)

	_, err := ix.Index(context.Background(), "doc-1", strings.Repeat("text ", 100), false)
	require.Error(t, err)

	chunks, _ := db.GetChunksByDocument(context.Background(), "doc-1")
	assert.Empty(t, chunks)
	assert.Zero(t, db.insertCalls)
}

func TestIndexEmptyTextIndexesNothing(t *testing.T) {
	db := newMemDB()
	emb := &fakeEmbedder{}
	ix := newTestIndexer(db, emb)

	count, err := ix.Index(context.Background(), "doc-1", "   \n  ", false)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, emb.calls)
}

package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/core"
	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/metrics"
)

// Retriever embeds a query and runs nearest-neighbor search over one
// document's chunks. Results are ranked by similarity descending and
// scoped strictly to the given document id.
type Retriever struct {
	db       core.DbClient
	embedder core.EmbeddingProvider
}

func NewRetriever(db core.DbClient, embedder core.EmbeddingProvider) *Retriever {
	return &Retriever{db: db, embedder: embedder}
}

// Retrieve returns the top-k most similar chunk texts. A document with
// no chunks (never ingested, or ingestion fell back) yields an empty
// slice and no error so the caller can degrade to ungrounded mode.
func (r *Retriever) Retrieve(ctx context.Context, docID, query string, k int) ([]string, error) {
	vecs, err := r.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("embed query: empty response")
	}

	start := time.Now()
	chunks, err := r.db.SearchDocumentChunks(ctx, docID, vecs[0], k)
	metrics.ObserveStage("vector_search", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}

	texts := make([]string, 0, len(chunks))
	for _, ch := range chunks {
		texts = append(texts, ch.Text)
	}
	return texts, nil
}

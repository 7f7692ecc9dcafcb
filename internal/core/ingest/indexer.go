package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/core"
	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/metrics"
	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/models"
)

// ErrAlreadyPrepared is the idempotence short-circuit: the document has
// a chunk set and re-indexing was not forced. Not a failure.
var ErrAlreadyPrepared = errors.New("document already prepared")

// IndexerConfig tunes chunking and embedding.
//
// ChunkSize:   maximum runes per chunk.
// BatchSize:   chunks per embedding call.
// Concurrency: embedding batches in flight at once.
type IndexerConfig struct {
	ChunkSize   int
	BatchSize   int
	Concurrency int
}

// Indexer turns extracted text into an embedded chunk set. The
// idempotency guard lives here, at the persistence boundary, so it holds
// no matter which caller (sync handler, task runner) drives ingestion.
type Indexer struct {
	db       core.DbClient
	embedder core.EmbeddingProvider
	cfg      IndexerConfig
	logger   *slog.Logger
}

func NewIndexer(db core.DbClient, embedder core.EmbeddingProvider, cfg IndexerConfig) *Indexer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 16
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Indexer{
		db:       db,
		embedder: embedder,
		cfg:      cfg,
		logger:   slog.With("component", "ingest.indexer"),
	}
}

// Index chunks text, embeds every chunk and persists the full set in one
// transaction. A document that already has chunks returns
// ErrAlreadyPrepared unless force is set, in which case all prior chunks
// are deleted before inserting, never merged. Any embedding failure
// persists nothing, keeping the whole ingestion retryable.
func (ix *Indexer) Index(ctx context.Context, docID, text string, force bool) (int, error) {
	existing, err := ix.db.CountChunksByDocument(ctx, docID)
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	if existing > 0 {
		if !force {
			return existing, ErrAlreadyPrepared
		}
		if err := ix.db.DeleteChunksByDocument(ctx, docID); err != nil {
			return 0, fmt.Errorf("delete prior chunks: %w", err)
		}
		ix.logger.Info("force re-ingest, prior chunks deleted", "document_id", docID, "deleted", existing)
	}

	parts := SplitText(text, ix.cfg.ChunkSize)
	if len(parts) == 0 {
		return 0, nil
	}

	vectors, err := ix.embedAll(ctx, parts)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	rows := make([]models.DocumentChunk, len(parts))
	for i := range parts {
		rows[i] = models.DocumentChunk{
			ID:         uuid.NewString(),
			DocumentID: docID,
			Position:   i,
			Text:       parts[i],
			Embedding:  vectors[i],
			CreatedAt:  now,
		}
	}
	if err := ix.db.InsertDocumentChunks(ctx, rows); err != nil {
		return 0, fmt.Errorf("insert chunks: %w", err)
	}

	ix.logger.Info("document indexed", "document_id", docID, "chunks", len(rows))
	return len(rows), nil
}

// embedAll fans batches out over the embedder. Vectors are written back
// by chunk ordinal, never completion order.
func (ix *Indexer) embedAll(ctx context.Context, parts []string) ([][]float32, error) {
	start := time.Now()
	defer func() { metrics.ObserveStage("embed", time.Since(start)) }()

	vectors := make([][]float32, len(parts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.cfg.Concurrency)

	for begin := 0; begin < len(parts); begin += ix.cfg.BatchSize {
		end := begin + ix.cfg.BatchSize
		if end > len(parts) {
			end = len(parts)
		}
		begin, end := begin, end

		g.Go(func() error {
			batch, err := ix.embedder.EmbedTexts(gctx, parts[begin:end])
			if err != nil {
				return fmt.Errorf("embed batch [%d:%d]: %w", begin, end, err)
			}
			if len(batch) != end-begin {
				return fmt.Errorf("embed size mismatch: got %d want %d", len(batch), end-begin)
			}
			copy(vectors[begin:end], batch)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

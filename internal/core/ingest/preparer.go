package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/core"
	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/core/extract"
	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/metrics"
	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/models"
)

// ErrDocumentNotFound means the document id has no metadata row.
var ErrDocumentNotFound = errors.New("document not found")

// PrepareStatus is the reported outcome of one prepare call.
type PrepareStatus string

const (
	// StatusPrepared: a fresh chunk set was embedded and persisted.
	StatusPrepared PrepareStatus = "prepared"
	// StatusCached: the document already had a chunk set; nothing ran.
	StatusCached PrepareStatus = "cached"
	// StatusFallback: no usable text could be extracted; the document is
	// chat-only from here on. The user-facing detail never mentions the
	// extraction failure itself.
	StatusFallback PrepareStatus = "fallback"
)

// Outcome is what prepare reports back to the HTTP layer.
type Outcome struct {
	Status     PrepareStatus `json:"status"`
	ChunkCount int           `json:"chunk_count"`
	Detail     string        `json:"detail,omitempty"`
}

// Preparer orchestrates ingestion for one document: download, extraction
// cascade, chunk/embed/persist, document status transitions. Concurrent
// prepares of the same document id are serialized with a per-document
// lock so two requests can never race their chunk sets.
type Preparer struct {
	db      core.DbClient
	obj     core.ObjectClient
	cascade *extract.Cascade
	indexer *Indexer
	timeout time.Duration
	locks   sync.Map // document id → *sync.Mutex
	logger  *slog.Logger
}

func NewPreparer(db core.DbClient, obj core.ObjectClient, cascade *extract.Cascade, indexer *Indexer, timeout time.Duration) *Preparer {
	return &Preparer{
		db:      db,
		obj:     obj,
		cascade: cascade,
		indexer: indexer,
		timeout: timeout,
		logger:  slog.With("component", "ingest.preparer"),
	}
}

func (p *Preparer) lockFor(docID string) *sync.Mutex {
	mu, _ := p.locks.LoadOrStore(docID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Prepare runs the full ingestion pipeline for a document id. It is
// idempotent: a second call on a prepared document reports StatusCached
// without a single embedding call. Extraction failures come back as
// StatusFallback, never as an error; only infrastructure failures
// (storage, database) propagate, and nothing partial is ever committed.
func (p *Preparer) Prepare(ctx context.Context, docID string, force bool) (Outcome, error) {
	mu := p.lockFor(docID)
	mu.Lock()
	defer mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	doc, err := p.db.GetDocumentByID(ctx, docID)
	if err != nil {
		return Outcome{}, fmt.Errorf("load document: %w", err)
	}
	if doc == nil {
		return Outcome{}, ErrDocumentNotFound
	}

	if !force {
		existing, err := p.db.CountChunksByDocument(ctx, docID)
		if err != nil {
			return Outcome{}, fmt.Errorf("count chunks: %w", err)
		}
		if existing > 0 {
			metrics.CountPrepare(string(StatusCached))
			return Outcome{Status: StatusCached, ChunkCount: existing, Detail: "already prepared"}, nil
		}
	}

	_ = p.db.UpdateDocumentStatus(ctx, docID, models.DocStatusProcessing)

	bucket, key := parseStorageURL(doc.StorageURL)
	data, err := p.obj.GetFile(ctx, bucket, key)
	if err != nil {
		_ = p.db.UpdateDocumentStatus(ctx, docID, models.DocStatusFailed)
		return Outcome{}, fmt.Errorf("download document: %w", err)
	}

	start := time.Now()
	res := p.cascade.Extract(ctx, doc.FileName, data)
	metrics.ObserveStage("extract", time.Since(start))

	if res.Status != extract.StatusOK {
		// A force re-ingest whose extraction failed leaves the prior
		// chunk set untouched; the document stays ready and grounded
		// answers keep flowing from the existing index.
		if existing, cerr := p.db.CountChunksByDocument(ctx, docID); cerr == nil && existing > 0 {
			_ = p.db.UpdateDocumentStatus(ctx, docID, models.DocStatusReady)
			metrics.CountPrepare(string(StatusCached))
			return Outcome{Status: StatusCached, ChunkCount: existing, Detail: "prior index retained"}, nil
		}

		// Unusable text is not an error: the document switches to
		// chat-only mode and the user can keep asking questions.
		_ = p.db.UpdateDocumentStatus(ctx, docID, models.DocStatusChatOnly)
		metrics.CountPrepare(string(StatusFallback))
		return Outcome{Status: StatusFallback, Detail: "chat mode enabled"}, nil
	}

	count, err := p.indexer.Index(ctx, docID, res.Text, force)
	if errors.Is(err, ErrAlreadyPrepared) {
		_ = p.db.UpdateDocumentStatus(ctx, docID, models.DocStatusReady)
		metrics.CountPrepare(string(StatusCached))
		return Outcome{Status: StatusCached, ChunkCount: count, Detail: "already prepared"}, nil
	}
	if err != nil {
		// Embedding/persistence failed with no partial chunk state;
		// leave the document retryable.
		_ = p.db.UpdateDocumentStatus(ctx, docID, models.DocStatusFailed)
		return Outcome{}, fmt.Errorf("index document: %w", err)
	}

	_ = p.db.UpdateDocumentStatus(ctx, docID, models.DocStatusReady)
	metrics.CountPrepare(string(StatusPrepared))
	return Outcome{Status: StatusPrepared, ChunkCount: count}, nil
}

// parseStorageURL extracts the bucket and key from a virtual-hosted
// style S3 URL, e.g. https://bucket.s3.us-east-2.amazonaws.com/a/b.pdf.
func parseStorageURL(u string) (bucket, key string) {
	hostPath := strings.SplitN(strings.TrimPrefix(u, "https://"), "/", 2)
	host := hostPath[0]
	if len(hostPath) == 2 {
		key = hostPath[1]
	}
	if parts := strings.Split(host, "."); len(parts) > 0 {
		bucket = parts[0]
	}
	return bucket, key
}

package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/models"
)

// memDB is an in-memory core.DbClient good enough for pipeline tests:
// chunk storage, document metadata, and a brute-force nearest-neighbor
// search that mirrors the pgvector ordering.
type memDB struct {
	mu        sync.Mutex
	documents map[string]*models.Document
	chunks    map[string][]models.DocumentChunk // by document id

	insertCalls int
	deleteCalls int

	countErr  error
	insertErr error
	searchErr error
}

func newMemDB() *memDB {
	return &memDB{
		documents: make(map[string]*models.Document),
		chunks:    make(map[string][]models.DocumentChunk),
	}
}

func (m *memDB) CreateUser(ctx context.Context, user *models.User) error { return nil }
func (m *memDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, nil
}

func (m *memDB) CreateDocument(ctx context.Context, doc *models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *doc
	m.documents[doc.ID] = &cp
	return nil
}

func (m *memDB) GetDocumentByID(ctx context.Context, id string) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.documents[id]
	if !ok {
		return nil, nil
	}
	cp := *doc
	return &cp, nil
}

func (m *memDB) ListDocumentsByUser(ctx context.Context, userID string) ([]models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Document
	for _, d := range m.documents {
		if d.UserID == userID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *memDB) UpdateDocumentStatus(ctx context.Context, id string, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.documents[id]
	if !ok {
		return fmt.Errorf("document not found: %s", id)
	}
	doc.Status = status
	return nil
}

func (m *memDB) InsertDocumentChunks(ctx context.Context, chunks []models.DocumentChunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertCalls++
	if m.insertErr != nil {
		return m.insertErr
	}
	for _, ch := range chunks {
		m.chunks[ch.DocumentID] = append(m.chunks[ch.DocumentID], ch)
	}
	return nil
}

func (m *memDB) CountChunksByDocument(ctx context.Context, documentID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.countErr != nil {
		return 0, m.countErr
	}
	return len(m.chunks[documentID]), nil
}

func (m *memDB) DeleteChunksByDocument(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls++
	delete(m.chunks, documentID)
	return nil
}

func (m *memDB) GetChunksByDocument(ctx context.Context, documentID string) ([]models.DocumentChunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]models.DocumentChunk(nil), m.chunks[documentID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *memDB) SearchDocumentChunks(ctx context.Context, docID string, queryVec []float32, limit int) ([]models.DocumentChunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	out := append([]models.DocumentChunk(nil), m.chunks[docID]...)
	sort.Slice(out, func(i, j int) bool {
		return l2(out[i].Embedding, queryVec) < l2(out[j].Embedding, queryVec)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memDB) Close() error { return nil }

func l2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// fakeEmbedder produces a deterministic vector per text so retrieval
// tests can reason about distances. Identical texts embed identically.
type fakeEmbedder struct {
	mu    sync.Mutex
	calls int
	texts []string
	err   error
}

func (f *fakeEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.texts = append(f.texts, texts...)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = embedText(t)
	}
	return out, nil
}

// embedText hashes a string into a tiny stable vector.
func embedText(t string) []float32 {
	var a, b, c float32
	for i, r := range t {
		a += float32(r) * float32(i+1)
		b += float32(r)
		c += float32(len(t) - i)
	}
	n := float32(len(t) + 1)
	return []float32{a / (n * n), b / n, c / n}
}

// memObjectStore is an in-memory core.ObjectClient keyed bucket/key.
type memObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	getErr  error
}

func newMemObjectStore() *memObjectStore {
	return &memObjectStore{objects: make(map[string][]byte)}
}

func (m *memObjectStore) put(bucket, key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[bucket+"/"+key] = data
}

func (m *memObjectStore) UploadFile(ctx context.Context, bucket, key string, data io.Reader, contentType string) (string, error) {
	body, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	m.put(bucket, key, body)
	return fmt.Sprintf("https://%s.s3.us-east-2.amazonaws.com/%s", bucket, key), nil
}

func (m *memObjectStore) DeleteFile(ctx context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, bucket+"/"+key)
	return nil
}

func (m *memObjectStore) GetFile(ctx context.Context, bucket, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	data, ok := m.objects[bucket+"/"+key]
	if !ok {
		return nil, errors.New("object not found: " + bucket + "/" + key)
	}
	return data, nil
}

func (m *memObjectStore) GetObjectReader(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	data, err := m.GetFile(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(strings.NewReader(string(data))), nil
}

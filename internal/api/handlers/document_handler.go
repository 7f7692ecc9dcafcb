package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/api/middlewares"
	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/config"
	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/core"
	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/core/ingest"
	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/models"
)

type DocumentHandler struct {
	dbclient     core.DbClient
	objectclient core.ObjectClient
	preparer     *ingest.Preparer
	tasks        *ingest.TaskRunner
	cfg          *config.Config
	logger       *slog.Logger
}

func NewDocumentHandler(dbclient core.DbClient, objectclient core.ObjectClient, preparer *ingest.Preparer, tasks *ingest.TaskRunner, cfg *config.Config, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		dbclient:     dbclient,
		objectclient: objectclient,
		preparer:     preparer,
		tasks:        tasks,
		cfg:          cfg,
		logger:       logger.With("component", "document_handler"),
	}
}

// UploadDocument stores the file in object storage and records its metadata.
// Extraction and indexing happen later, when the document is prepared.
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	r.ParseMultipartForm(52 << 20)

	userID, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		http.Error(w, "user_id not found in context", http.StatusUnauthorized)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "invalid file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	// Sanitize filename to prevent path traversal or invalid characters.
	cleanFilename := filepath.Base(header.Filename)
	docID := uuid.NewString()

	s3Key := fmt.Sprintf("%s/%s/%s", userID, docID, cleanFilename)

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	uploadctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	url, err := h.objectclient.UploadFile(uploadctx, h.cfg.BucketName, s3Key, file, contentType)
	if err != nil {
		http.Error(w, fmt.Sprintf("upload failed: %v", err), http.StatusInternalServerError)
		return
	}

	now := time.Now()
	doc := &models.Document{
		ID:          docID,
		UserID:      userID,
		FileName:    cleanFilename,
		StorageURL:  url,
		SourceType:  "upload",
		ContentType: contentType,
		Status:      models.DocStatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.dbclient.CreateDocument(uploadctx, doc); err != nil {
		h.logger.Error("document insert failed", "document_id", docID, "error", err)
		http.Error(w, "failed to store document metadata", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(doc)
}

func (h *DocumentHandler) GetDocuments(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		http.Error(w, "user_id not found in context", http.StatusUnauthorized)
		return
	}

	documents, err := h.dbclient.ListDocumentsByUser(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if documents == nil {
		documents = []models.Document{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(documents)
}

type prepareRequest struct {
	DocumentID string `json:"document_id"`
	Force      bool   `json:"force"`
}

type prepareResponse struct {
	Status     string `json:"status"`
	ChunkCount int    `json:"chunk_count"`
	Detail     string `json:"detail,omitempty"`
}

// PrepareDocument runs extraction and indexing inline and reports the outcome.
func (h *DocumentHandler) PrepareDocument(w http.ResponseWriter, r *http.Request) {
	doc, req, ok := h.authorizePrepare(w, r)
	if !ok {
		return
	}

	outcome, err := h.preparer.Prepare(r.Context(), doc.ID, req.Force)
	if err != nil {
		h.logger.Error("prepare failed", "document_id", doc.ID, "error", err)
		http.Error(w, "document preparation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(prepareResponse{
		Status:     string(outcome.Status),
		ChunkCount: outcome.ChunkCount,
		Detail:     outcome.Detail,
	})
}

// PrepareDocumentAsync submits preparation as a background task and
// returns a task id the client can poll.
func (h *DocumentHandler) PrepareDocumentAsync(w http.ResponseWriter, r *http.Request) {
	doc, req, ok := h.authorizePrepare(w, r)
	if !ok {
		return
	}

	taskID := h.tasks.Submit(doc.ID, req.Force)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"task_id": string(taskID)})
}

func (h *DocumentHandler) TaskStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.UserIDFrom(r.Context()); !ok {
		http.Error(w, "user_id not found in context", http.StatusUnauthorized)
		return
	}

	taskID := r.URL.Query().Get("task_id")
	if taskID == "" {
		http.Error(w, "task_id is required", http.StatusBadRequest)
		return
	}

	state, ok := h.tasks.Status(ingest.TaskID(taskID))
	if !ok {
		http.Error(w, "task not found", http.StatusNotFound)
		return
	}

	resp := map[string]any{"status": string(state.Status)}
	if state.Outcome != nil {
		resp["outcome"] = prepareResponse{
			Status:     string(state.Outcome.Status),
			ChunkCount: state.Outcome.ChunkCount,
			Detail:     state.Outcome.Detail,
		}
	}
	if state.Error != "" {
		resp["error"] = state.Error
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// authorizePrepare decodes the prepare request and confirms the caller
// owns the document. It writes the error response itself on failure.
func (h *DocumentHandler) authorizePrepare(w http.ResponseWriter, r *http.Request) (*models.Document, prepareRequest, bool) {
	var req prepareRequest

	userID, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		http.Error(w, "user_id not found in context", http.StatusUnauthorized)
		return nil, req, false
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return nil, req, false
	}
	if req.DocumentID == "" {
		http.Error(w, "document_id is required", http.StatusBadRequest)
		return nil, req, false
	}

	doc, err := h.dbclient.GetDocumentByID(r.Context(), req.DocumentID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, req, false
	}
	if doc == nil {
		http.Error(w, "document not found", http.StatusNotFound)
		return nil, req, false
	}
	if doc.UserID != userID {
		http.Error(w, "you are not authorized to access this document", http.StatusForbidden)
		return nil, req, false
	}
	return doc, req, true
}

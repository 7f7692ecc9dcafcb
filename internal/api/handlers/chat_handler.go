package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/api/middlewares"
	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/core"
	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/core/answer"
	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/core/cache"
	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/core/ingest"
	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/models"
)

type ChatHandler struct {
	dbclient    core.DbClient
	retriever   *ingest.Retriever
	synthesizer *answer.Synthesizer
	answers     cache.Cache
	answerTTL   time.Duration
	topK        int
	logger      *slog.Logger
}

func NewChatHandler(dbclient core.DbClient, retriever *ingest.Retriever, synth *answer.Synthesizer, answers cache.Cache, answerTTL time.Duration, topK int, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		dbclient:    dbclient,
		retriever:   retriever,
		synthesizer: synth,
		answers:     answers,
		answerTTL:   answerTTL,
		topK:        topK,
		logger:      logger.With("component", "chat_handler"),
	}
}

type askRequest struct {
	DocumentID string            `json:"document_id"`
	Question   string            `json:"question"`
	History    []models.ChatTurn `json:"history,omitempty"`
}

type askResponse struct {
	Answer   string `json:"answer"`
	Grounded bool   `json:"grounded"`
	Cached   bool   `json:"cached"`
}

// Ask answers a question about one document. Questions with retrievable
// context get a grounded answer; documents with no index fall back to a
// conversational answer that never surfaces pipeline internals.
func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.UserIDFrom(ctx)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.DocumentID == "" || strings.TrimSpace(req.Question) == "" {
		http.Error(w, "document_id and question are required", http.StatusBadRequest)
		return
	}

	doc, err := h.dbclient.GetDocumentByID(ctx, req.DocumentID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if doc == nil {
		http.Error(w, "document not found", http.StatusNotFound)
		return
	}
	if doc.UserID != userID {
		http.Error(w, "you are not authorized to access this document", http.StatusForbidden)
		return
	}

	key := answerCacheKey(req.DocumentID, req.Question, req.History)
	if cached, ok, cerr := h.answers.Get(ctx, key); cerr != nil {
		h.logger.Warn("answer cache read failed", "error", cerr)
	} else if ok {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(askResponse{Answer: cached, Grounded: true, Cached: true})
		return
	}

	chunks, err := h.retriever.Retrieve(ctx, req.DocumentID, req.Question, h.topK)
	if err != nil {
		h.logger.Error("retrieval failed", "document_id", req.DocumentID, "error", err)
		http.Error(w, "retrieval failed", http.StatusInternalServerError)
		return
	}

	var (
		out      string
		grounded bool
	)
	if len(chunks) > 0 {
		out, err = h.synthesizer.Grounded(ctx, req.Question, chunks, req.History)
		grounded = true
	} else {
		out, err = h.synthesizer.Ungrounded(ctx, req.Question, req.History)
	}
	if err != nil {
		http.Error(w, "answer generation failed", http.StatusBadGateway)
		return
	}

	if grounded {
		if err := h.answers.Set(ctx, key, out, h.answerTTL); err != nil {
			h.logger.Warn("answer cache write failed", "error", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(askResponse{Answer: out, Grounded: grounded})
}

type fullAnswersRequest struct {
	DocumentID string `json:"document_id"`
}

// FullAnswers feeds the entire indexed document to the model so it can
// enumerate and answer every question the document contains.
func (h *ChatHandler) FullAnswers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.UserIDFrom(ctx)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req fullAnswersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.DocumentID == "" {
		http.Error(w, "document_id is required", http.StatusBadRequest)
		return
	}

	doc, err := h.dbclient.GetDocumentByID(ctx, req.DocumentID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if doc == nil {
		http.Error(w, "document not found", http.StatusNotFound)
		return
	}
	if doc.UserID != userID {
		http.Error(w, "you are not authorized to access this document", http.StatusForbidden)
		return
	}

	chunks, err := h.dbclient.GetChunksByDocument(ctx, req.DocumentID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(chunks) == 0 {
		http.Error(w, "document has no indexed text; prepare it first", http.StatusConflict)
		return
	}

	texts := make([]string, 0, len(chunks))
	for _, ch := range chunks {
		texts = append(texts, ch.Text)
	}

	out, err := h.synthesizer.FullDocument(ctx, texts)
	if err != nil {
		http.Error(w, "answer generation failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"answers": out})
}

func answerCacheKey(docID, question string, history []models.ChatTurn) string {
	hsh := sha256.New()
	hsh.Write([]byte(question))
	for _, turn := range history {
		hsh.Write([]byte{0})
		hsh.Write([]byte(turn.Role))
		hsh.Write([]byte{0})
		hsh.Write([]byte(turn.Content))
	}
	return "answer:" + docID + ":" + hex.EncodeToString(hsh.Sum(nil))
}

// Package answer composes retrieved document context with a generative
// model call. Three modes: grounded (answer only from context),
// ungrounded fallback (general knowledge, extraction failure never
// mentioned), and full-document (enumerate and answer every question in
// the material).
package answer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/core"
	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/metrics"
	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/models"
)

// ErrGenerationFailed is the only error callers see when the generative
// service misbehaves; provider details stay in the logs. Ingestion and
// retrieval state are untouched and independently retryable.
var ErrGenerationFailed = errors.New("generation failed")

const groundedSystemPrompt = `You are a radiography study assistant. Answer the student's question using ONLY the document context supplied below. Do not use outside knowledge. If the answer is not present in the context, say explicitly that the document does not cover it.`

const ungroundedSystemPrompt = `You are a radiography study assistant. Answer the student's question using your general knowledge of radiography and radiologic science. Never mention document processing, text extraction, or any internal system state; just answer the question.`

const fullDocumentSystemPrompt = `You are a radiography study assistant. The supplied material is the full text of a prepared study document. Identify every distinct question in the material and answer each one. Structure the response with markdown headings and bullet points. Where the source material is incomplete or ambiguous, say so explicitly instead of guessing.`

// Synthesizer turns retrieved context and a question into an answer.
type Synthesizer struct {
	llm     core.LLMProvider
	charCap int // hard cap on full-document context, bounds token cost
	logger  *slog.Logger
}

func NewSynthesizer(llm core.LLMProvider, fullDocCharCap int) *Synthesizer {
	return &Synthesizer{
		llm:     llm,
		charCap: fullDocCharCap,
		logger:  slog.With("component", "answer"),
	}
}

// Grounded answers from retrieved chunks only. Chunks arrive in
// retrieval rank order and are joined in that order.
func (s *Synthesizer) Grounded(ctx context.Context, question string, contextChunks []string, history []models.ChatTurn) (string, error) {
	var sb strings.Builder
	sb.WriteString("Context:\n")
	for _, ch := range contextChunks {
		sb.WriteString(ch)
		sb.WriteString("\n---\n")
	}
	writeHistory(&sb, history)
	sb.WriteString("\nQuestion: ")
	sb.WriteString(question)

	return s.generate(ctx, groundedSystemPrompt, sb.String())
}

// Ungrounded answers from general knowledge when no document context
// exists. The prompt forbids mentioning the underlying failure.
func (s *Synthesizer) Ungrounded(ctx context.Context, question string, history []models.ChatTurn) (string, error) {
	var sb strings.Builder
	writeHistory(&sb, history)
	sb.WriteString("Question: ")
	sb.WriteString(question)

	return s.generate(ctx, ungroundedSystemPrompt, sb.String())
}

// FullDocument answers every question found in the document. Chunks
// arrive in ordinal order; the concatenation is truncated at the
// configured character cap.
func (s *Synthesizer) FullDocument(ctx context.Context, chunks []string) (string, error) {
	joined := strings.Join(chunks, "\n")
	if s.charCap > 0 && len(joined) > s.charCap {
		// Back up to a rune boundary so the cut never produces
		// invalid utf-8.
		cut := s.charCap
		for cut > 0 && !utf8.RuneStart(joined[cut]) {
			cut--
		}
		joined = joined[:cut]
	}

	prompt := "Source material:\n" + joined
	return s.generate(ctx, fullDocumentSystemPrompt, prompt)
}

func (s *Synthesizer) generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	start := time.Now()
	out, err := s.llm.Generate(ctx, systemPrompt, userPrompt)
	metrics.ObserveStage("llm_generation", time.Since(start))
	if err != nil {
		s.logger.Error("llm call failed", "error", err)
		return "", ErrGenerationFailed
	}
	return out, nil
}

func writeHistory(sb *strings.Builder, history []models.ChatTurn) {
	if len(history) == 0 {
		return
	}
	sb.WriteString("\nConversation so far:\n")
	for _, turn := range history {
		fmt.Fprintf(sb, "%s: %s\n", turn.Role, turn.Content)
	}
}

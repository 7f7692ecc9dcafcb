package core

import "context"

type EmbeddingProvider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

type LLMProvider interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}

// OCRProvider converts a raster image of text into machine-readable text.
type OCRProvider interface {
	Recognize(ctx context.Context, image []byte, lang string) (string, error)
}

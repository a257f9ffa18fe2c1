package ai

import (
	"context"
	"fmt"

	"pdfqa/internal/config"
)

// Embedder turns text into vectors. One instance is shared by indexing and
// querying so that similarity scores stay comparable.
type Embedder interface {
	// Name identifies the provider and model, e.g. "google/text-embedding-004".
	Name() string
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Closer is implemented by providers holding network clients.
type Closer interface {
	Close() error
}

// NewEmbedder returns the embedder selected by EMBEDDINGS_PROVIDER.
// Default provider is Google Generative AI (text-embedding-004).
func NewEmbedder(ctx context.Context, cfg *config.Config) (Embedder, error) {
	switch cfg.EmbeddingsProvider {
	case config.EmbeddingsGoogle, "":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("missing GEMINI_API_KEY for embeddings")
		}
		return NewGoogleEmbedder(ctx, cfg.GeminiAPIKey, cfg.GoogleEmbeddingsModel)

	case config.EmbeddingsOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("missing OPENAI_API_KEY for embeddings")
		}
		return NewOpenAIEmbedder(cfg.OpenAIAPIBase, cfg.OpenAIAPIKey, cfg.OpenAIEmbeddingsModel), nil

	default:
		return nil, fmt.Errorf("unknown embeddings provider: %s", cfg.EmbeddingsProvider)
	}
}

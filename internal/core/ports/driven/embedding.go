package driven

import (
	"context"

	"github.com/groundline-labs/groundline-core/internal/core/domain"
)

// EmbeddingService maps text to fixed-length vectors. The core treats
// it as a black box; token usage is reported so callers can account
// for embedding cost.
type EmbeddingService interface {
	// Embed generates embeddings for multiple texts
	Embed(ctx context.Context, texts []string) ([][]float32, domain.TokenUsage, error)

	// EmbedQuery generates an embedding for a search query
	// May use different model/parameters optimized for queries
	EmbedQuery(ctx context.Context, query string) ([]float32, domain.TokenUsage, error)

	// Dimensions returns the embedding dimension size
	Dimensions() int

	// Model returns the model name being used
	Model() string

	// HealthCheck verifies the embedding service is available
	HealthCheck(ctx context.Context) error

	// Close releases resources held by the embedding service
	Close() error
}

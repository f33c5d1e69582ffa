package driven

import (
	"context"

	"github.com/groundline-labs/groundline-core/internal/core/domain"
)

// LLMService provides the two generation capabilities the query
// pipeline needs: search-oriented query reformulation and grounded
// answer composition.
type LLMService interface {
	// RewriteQuery reformulates a conversational question into a
	// keyword-dense standalone query, preserving identifier-like
	// tokens verbatim. History gives recent conversational context.
	RewriteQuery(ctx context.Context, question string, history []domain.ConversationTurn) (string, domain.TokenUsage, error)

	// GenerateAnswer composes an answer grounded in the numbered
	// context blocks, citing them with [Document N] markers and
	// refusing to draw on outside knowledge.
	GenerateAnswer(ctx context.Context, question string, contextBlocks []string, history []domain.ConversationTurn) (string, domain.TokenUsage, error)

	// Model returns the model name being used
	Model() string

	// Ping verifies the LLM service is available
	Ping(ctx context.Context) error

	// Close releases resources held by the LLM service
	Close() error
}

package driving

import (
	"context"

	"github.com/groundline-labs/groundline-core/internal/core/domain"
)

// UpdateAISettingsRequest carries a partial AI-settings update.
// Nil fields are left unchanged.
type UpdateAISettingsRequest struct {
	Embedding *domain.EmbeddingSettings `json:"embedding,omitempty"`
	LLM       *domain.LLMSettings       `json:"llm,omitempty"`
}

// SettingsService manages runtime-configurable service settings:
// which AI providers to use and how retrieval is tuned.
type SettingsService interface {
	// Get retrieves the current settings
	Get(ctx context.Context) (*domain.Settings, error)

	// UpdateAI applies AI provider settings, validating connectivity
	// before swapping the live services
	UpdateAI(ctx context.Context, req UpdateAISettingsRequest) (*domain.Settings, error)

	// UpdateRetrieval applies retrieval tuning parameters
	UpdateRetrieval(ctx context.Context, params domain.RetrievalParams) (*domain.Settings, error)
}

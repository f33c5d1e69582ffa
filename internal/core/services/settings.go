package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/groundline-labs/groundline-core/internal/core/domain"
	"github.com/groundline-labs/groundline-core/internal/core/ports/driven"
	"github.com/groundline-labs/groundline-core/internal/core/ports/driving"
	"github.com/groundline-labs/groundline-core/internal/runtime"
)

// Ensure settingsService implements SettingsService
var _ driving.SettingsService = (*settingsService)(nil)

// settingsService implements the SettingsService interface. AI
// settings are validated against the live provider before they are
// persisted or the running services are swapped.
type settingsService struct {
	settingsStore driven.SettingsStore
	aiFactory     driven.AIServiceFactory
	services      *runtime.Services
	retriever     *AdaptiveRetriever
	logger        *slog.Logger
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(
	settingsStore driven.SettingsStore,
	aiFactory driven.AIServiceFactory,
	services *runtime.Services,
	retriever *AdaptiveRetriever,
	logger *slog.Logger,
) driving.SettingsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &settingsService{
		settingsStore: settingsStore,
		aiFactory:     aiFactory,
		services:      services,
		retriever:     retriever,
		logger:        logger,
	}
}

// Get retrieves the current settings
func (s *settingsService) Get(ctx context.Context) (*domain.Settings, error) {
	return s.settingsStore.GetSettings(ctx)
}

// UpdateAI applies AI provider settings. Each changed service is
// constructed and its connectivity verified before the running
// service is replaced; a failing provider leaves the previous one
// untouched.
func (s *settingsService) UpdateAI(ctx context.Context, req driving.UpdateAISettingsRequest) (*domain.Settings, error) {
	settings, err := s.settingsStore.GetSettings(ctx)
	if err != nil {
		settings = domain.DefaultSettings()
	}

	if req.Embedding != nil {
		if req.Embedding.Provider != "" && !req.Embedding.Provider.IsValid() {
			return nil, fmt.Errorf("unknown embedding provider %q: %w", req.Embedding.Provider, domain.ErrInvalidProvider)
		}
		svc, err := s.aiFactory.CreateEmbeddingService(req.Embedding)
		if err != nil {
			return nil, fmt.Errorf("creating embedding service: %w", err)
		}
		if err := s.services.ValidateAndSetEmbedding(ctx, svc); err != nil {
			return nil, fmt.Errorf("validating embedding service: %w", err)
		}
		settings.Embedding = *req.Embedding
	}

	if req.LLM != nil {
		if req.LLM.Provider != "" && !req.LLM.Provider.IsValid() {
			return nil, fmt.Errorf("unknown llm provider %q: %w", req.LLM.Provider, domain.ErrInvalidProvider)
		}
		svc, err := s.aiFactory.CreateLLMService(req.LLM)
		if err != nil {
			return nil, fmt.Errorf("creating llm service: %w", err)
		}
		if err := s.services.ValidateAndSetLLM(ctx, svc); err != nil {
			return nil, fmt.Errorf("validating llm service: %w", err)
		}
		settings.LLM = *req.LLM
	}

	settings.UpdatedAt = time.Now().UTC()
	if err := s.settingsStore.SaveSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("saving settings: %w", err)
	}

	s.logger.Info("ai settings updated",
		"embedding_configured", settings.Embedding.IsConfigured(),
		"llm_configured", settings.LLM.IsConfigured())

	return settings, nil
}

// UpdateRetrieval applies retrieval tuning parameters to both the
// live retriever and the persisted settings.
func (s *settingsService) UpdateRetrieval(ctx context.Context, params domain.RetrievalParams) (*domain.Settings, error) {
	settings, err := s.settingsStore.GetSettings(ctx)
	if err != nil {
		settings = domain.DefaultSettings()
	}

	normalised := params.Normalise()
	if normalised.Floor > normalised.MinScore {
		return nil, fmt.Errorf("floor %.2f above min score %.2f: %w", normalised.Floor, normalised.MinScore, domain.ErrInvalidInput)
	}

	if s.retriever != nil {
		s.retriever.SetParams(normalised)
	}

	settings.Retrieval = normalised
	settings.UpdatedAt = time.Now().UTC()
	if err := s.settingsStore.SaveSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("saving settings: %w", err)
	}
	return settings, nil
}

package mocks

import (
	"errors"

	"github.com/groundline-labs/groundline-core/internal/core/domain"
	"github.com/groundline-labs/groundline-core/internal/core/ports/driven"
)

// MockAIServiceFactory is a mock implementation of AIServiceFactory
type MockAIServiceFactory struct {
	failEmbedding bool
	failLLM       bool

	// CreatedEmbedding/CreatedLLM expose the last created services
	CreatedEmbedding *MockEmbeddingService
	CreatedLLM       *MockLLMService
}

// NewMockAIServiceFactory creates a new MockAIServiceFactory
func NewMockAIServiceFactory() *MockAIServiceFactory {
	return &MockAIServiceFactory{}
}

func (f *MockAIServiceFactory) CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if f.failEmbedding {
		return nil, errors.New("mock embedding factory failure")
	}
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}
	f.CreatedEmbedding = NewMockEmbeddingService()
	return f.CreatedEmbedding, nil
}

func (f *MockAIServiceFactory) CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if f.failLLM {
		return nil, errors.New("mock llm factory failure")
	}
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}
	f.CreatedLLM = NewMockLLMService()
	return f.CreatedLLM, nil
}

func (f *MockAIServiceFactory) SetFailEmbedding(fail bool) {
	f.failEmbedding = fail
}

func (f *MockAIServiceFactory) SetFailLLM(fail bool) {
	f.failLLM = fail
}

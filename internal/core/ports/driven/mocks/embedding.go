package mocks

import (
	"context"
	"hash/fnv"

	"github.com/groundline-labs/groundline-core/internal/core/domain"
)

// MockEmbeddingService is a mock implementation of EmbeddingService for testing
type MockEmbeddingService struct {
	dimensions int
	model      string
	failNext   bool

	// Calls counts texts embedded, for cost-accounting assertions
	Calls int
}

// NewMockEmbeddingService creates a new MockEmbeddingService
func NewMockEmbeddingService() *MockEmbeddingService {
	return &MockEmbeddingService{
		dimensions: 384,
		model:      "mock-embedding-model",
	}
}

func (m *MockEmbeddingService) Embed(ctx context.Context, texts []string) ([][]float32, domain.TokenUsage, error) {
	if m.failNext {
		m.failNext = false
		return nil, domain.TokenUsage{}, context.DeadlineExceeded
	}

	result := make([][]float32, len(texts))
	usage := domain.TokenUsage{}
	for i, text := range texts {
		result[i] = m.generateEmbedding(text)
		tokens := len(text) / 4
		usage.PromptTokens += tokens
		usage.TotalTokens += tokens
	}
	m.Calls += len(texts)
	return result, usage, nil
}

func (m *MockEmbeddingService) EmbedQuery(ctx context.Context, query string) ([]float32, domain.TokenUsage, error) {
	vectors, usage, err := m.Embed(ctx, []string{query})
	if err != nil {
		return nil, usage, err
	}
	return vectors[0], usage, nil
}

func (m *MockEmbeddingService) Dimensions() int {
	return m.dimensions
}

func (m *MockEmbeddingService) Model() string {
	return m.model
}

func (m *MockEmbeddingService) HealthCheck(ctx context.Context) error {
	return nil
}

func (m *MockEmbeddingService) Close() error {
	return nil
}

// generateEmbedding generates a deterministic embedding based on text hash
func (m *MockEmbeddingService) generateEmbedding(text string) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	embedding := make([]float32, m.dimensions)
	for i := range embedding {
		seed = seed*1103515245 + 12345
		embedding[i] = float32(seed%1000) / 1000.0
	}
	return embedding
}

// Helper methods for testing

func (m *MockEmbeddingService) SetFailNext(fail bool) {
	m.failNext = fail
}

func (m *MockEmbeddingService) SetDimensions(dim int) {
	m.dimensions = dim
}

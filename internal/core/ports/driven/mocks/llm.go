package mocks

import (
	"context"
	"errors"

	"github.com/groundline-labs/groundline-core/internal/core/domain"
)

// MockLLMService is a mock implementation of LLMService for testing
type MockLLMService struct {
	model string

	// RewriteResult is returned by RewriteQuery when set; otherwise the
	// question is echoed back with a "search: " prefix
	RewriteResult string

	// AnswerResult is returned by GenerateAnswer when set
	AnswerResult string

	failRewrite bool
	failAnswer  bool

	// Captured inputs for assertions
	LastQuestion string
	LastHistory  []domain.ConversationTurn
	LastContext  []string
}

// NewMockLLMService creates a new MockLLMService
func NewMockLLMService() *MockLLMService {
	return &MockLLMService{
		model:        "mock-llm-model",
		AnswerResult: "Mock answer citing [Document 1].",
	}
}

func (m *MockLLMService) RewriteQuery(ctx context.Context, question string, history []domain.ConversationTurn) (string, domain.TokenUsage, error) {
	m.LastQuestion = question
	m.LastHistory = history

	if m.failRewrite {
		m.failRewrite = false
		return "", domain.TokenUsage{}, errors.New("mock rewrite failure")
	}

	rewritten := m.RewriteResult
	if rewritten == "" {
		rewritten = "search: " + question
	}
	return rewritten, domain.TokenUsage{PromptTokens: 20, CompletionTokens: 8, TotalTokens: 28}, nil
}

func (m *MockLLMService) GenerateAnswer(ctx context.Context, question string, contextBlocks []string, history []domain.ConversationTurn) (string, domain.TokenUsage, error) {
	m.LastQuestion = question
	m.LastContext = contextBlocks
	m.LastHistory = history

	if m.failAnswer {
		m.failAnswer = false
		return "", domain.TokenUsage{}, errors.New("mock generation failure")
	}

	return m.AnswerResult, domain.TokenUsage{PromptTokens: 100, CompletionTokens: 40, TotalTokens: 140}, nil
}

func (m *MockLLMService) Model() string {
	return m.model
}

func (m *MockLLMService) Ping(ctx context.Context) error {
	return nil
}

func (m *MockLLMService) Close() error {
	return nil
}

// Helper methods for testing

func (m *MockLLMService) SetFailRewrite(fail bool) {
	m.failRewrite = fail
}

func (m *MockLLMService) SetFailAnswer(fail bool) {
	m.failAnswer = fail
}

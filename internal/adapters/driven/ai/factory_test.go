package ai

import (
	"errors"
	"testing"

	"github.com/groundline-labs/groundline-core/internal/core/domain"
)

func TestFactory_CreateEmbeddingService(t *testing.T) {
	factory := NewFactory()

	svc, err := factory.CreateEmbeddingService(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOpenAI,
		Model:    "text-embedding-3-small",
		APIKey:   "sk-test",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := svc.(*OpenAIEmbedding); !ok {
		t.Errorf("expected an OpenAI embedding service, got %T", svc)
	}

	svc, err = factory.CreateEmbeddingService(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		Model:    "nomic-embed-text",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := svc.(*OllamaEmbedding); !ok {
		t.Errorf("expected an Ollama embedding service, got %T", svc)
	}
}

func TestFactory_CreateLLMService(t *testing.T) {
	factory := NewFactory()

	svc, err := factory.CreateLLMService(&domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		Model:    "llama3.1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := svc.(*OllamaLLM); !ok {
		t.Errorf("expected an Ollama LLM service, got %T", svc)
	}
}

func TestFactory_Unconfigured(t *testing.T) {
	factory := NewFactory()

	svc, err := factory.CreateEmbeddingService(nil)
	if err != nil || svc != nil {
		t.Errorf("expected nil, nil for nil settings, got %v, %v", svc, err)
	}

	// OpenAI without an API key is not configured
	svc, err = factory.CreateEmbeddingService(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOpenAI,
		Model:    "text-embedding-3-small",
	})
	if err != nil || svc != nil {
		t.Errorf("expected nil, nil for unconfigured settings, got %v, %v", svc, err)
	}
}

func TestFactory_UnknownProvider(t *testing.T) {
	factory := NewFactory()

	_, err := factory.CreateLLMService(&domain.LLMSettings{
		Provider: "mistral",
		Model:    "mistral-large",
		APIKey:   "key",
	})
	if !errors.Is(err, domain.ErrInvalidProvider) {
		t.Fatalf("expected ErrInvalidProvider, got %v", err)
	}
}

package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groundline-labs/groundline-core/internal/core/domain"
	"github.com/groundline-labs/groundline-core/internal/core/ports/driven/mocks"
)

func TestServices_SetEmbeddingService(t *testing.T) {
	services := NewServices(domain.NewRuntimeConfig("redis"))

	require.Nil(t, services.EmbeddingService())
	require.False(t, services.Config().CanIngest())

	services.SetEmbeddingService(mocks.NewMockEmbeddingService())

	assert.NotNil(t, services.EmbeddingService())
	assert.True(t, services.Config().CanIngest())

	services.SetEmbeddingService(nil)
	assert.False(t, services.Config().CanIngest())
}

func TestServices_CanAnswer(t *testing.T) {
	services := NewServices(domain.NewRuntimeConfig("redis"))

	services.SetEmbeddingService(mocks.NewMockEmbeddingService())
	require.False(t, services.Config().CanAnswer(), "answering needs both embedding and LLM")

	services.SetLLMService(mocks.NewMockLLMService())
	assert.True(t, services.Config().CanAnswer())
}

func TestServices_ValidateAndSetEmbedding(t *testing.T) {
	services := NewServices(domain.NewRuntimeConfig("redis"))

	require.NoError(t, services.ValidateAndSetEmbedding(context.Background(), mocks.NewMockEmbeddingService()))
	assert.True(t, services.Config().EmbeddingAvailable())

	// nil clears the service without validation
	require.NoError(t, services.ValidateAndSetEmbedding(context.Background(), nil))
	assert.False(t, services.Config().EmbeddingAvailable())
}

func TestServices_Close(t *testing.T) {
	services := NewServices(domain.NewRuntimeConfig("redis"))
	services.SetEmbeddingService(mocks.NewMockEmbeddingService())
	services.SetLLMService(mocks.NewMockLLMService())

	require.NoError(t, services.Close())
	assert.Nil(t, services.EmbeddingService())
	assert.Nil(t, services.LLMService())
	assert.False(t, services.Config().CanAnswer())
}

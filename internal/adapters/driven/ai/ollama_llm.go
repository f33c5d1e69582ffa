package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/groundline-labs/groundline-core/internal/core/domain"
	"github.com/groundline-labs/groundline-core/internal/core/ports/driven"
)

// Ensure OllamaLLM implements LLMService
var _ driven.LLMService = (*OllamaLLM)(nil)

// OllamaLLM implements LLMService against a self-hosted Ollama instance
type OllamaLLM struct {
	model   string
	baseURL string
	client  *http.Client
}

// NewOllamaLLM creates a new Ollama LLM service
func NewOllamaLLM(baseURL, model string) (driven.LLMService, error) {
	if model == "" {
		return nil, fmt.Errorf("Ollama model is required")
	}

	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	return &OllamaLLM{
		model:   model,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 300 * time.Second, // local inference can be slow
		},
	}, nil
}

// ollamaChatRequest is the request body for Ollama's chat API
type ollamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// ollamaChatResponse is the response from Ollama's chat API
type ollamaChatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
	Error           string `json:"error,omitempty"`
}

// RewriteQuery reformulates a conversational question into a
// keyword-dense standalone search query
func (l *OllamaLLM) RewriteQuery(ctx context.Context, question string, history []domain.ConversationTurn) (string, domain.TokenUsage, error) {
	messages := []chatMessage{
		{Role: "system", Content: rewriteSystemPrompt},
	}
	if formatted := domain.FormatHistory(history); formatted != "" {
		messages = append(messages, chatMessage{
			Role:    "user",
			Content: "Recent conversation:\n" + formatted,
		})
	}
	messages = append(messages, chatMessage{
		Role:    "user",
		Content: "Question: " + question,
	})

	return l.chat(ctx, messages)
}

// GenerateAnswer produces a grounded answer from numbered context blocks
func (l *OllamaLLM) GenerateAnswer(ctx context.Context, question string, contextBlocks []string, history []domain.ConversationTurn) (string, domain.TokenUsage, error) {
	messages := []chatMessage{
		{Role: "system", Content: answerSystemPrompt},
		{Role: "user", Content: buildAnswerPrompt(question, contextBlocks, history)},
	}

	return l.chat(ctx, messages)
}

// Model returns the model name being used
func (l *OllamaLLM) Model() string {
	return l.model
}

// Ping verifies the Ollama instance is reachable
func (l *OllamaLLM) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", l.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Ollama API returned status %d", resp.StatusCode)
	}
	return nil
}

// Close releases resources held by the LLM service
func (l *OllamaLLM) Close() error {
	l.client.CloseIdleConnections()
	return nil
}

func (l *OllamaLLM) chat(ctx context.Context, messages []chatMessage) (string, domain.TokenUsage, error) {
	body, err := json.Marshal(ollamaChatRequest{
		Model:    l.model,
		Messages: messages,
		Stream:   false,
	})
	if err != nil {
		return "", domain.TokenUsage{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", l.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", domain.TokenUsage{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", domain.TokenUsage{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.TokenUsage{}, fmt.Errorf("failed to read response: %w", err)
	}

	var chatResp ollamaChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", domain.TokenUsage{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if chatResp.Error != "" {
		return "", domain.TokenUsage{}, fmt.Errorf("Ollama API error: %s", chatResp.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return "", domain.TokenUsage{}, fmt.Errorf("Ollama API returned status %d", resp.StatusCode)
	}

	usage := domain.TokenUsage{
		PromptTokens:     chatResp.PromptEvalCount,
		CompletionTokens: chatResp.EvalCount,
		TotalTokens:      chatResp.PromptEvalCount + chatResp.EvalCount,
	}
	return chatResp.Message.Content, usage, nil
}

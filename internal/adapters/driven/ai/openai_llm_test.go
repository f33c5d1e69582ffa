package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/groundline-labs/groundline-core/internal/core/domain"
)

func newChatServer(t *testing.T, content string, capture *chatRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if capture != nil {
			_ = json.NewDecoder(r.Body).Decode(capture)
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": content}, "finish_reason": "stop"},
			},
			"usage": map[string]int{"prompt_tokens": 30, "completion_tokens": 10, "total_tokens": 40},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestNewOpenAILLM_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenAILLM("", "gpt-4o-mini", "")
	if err == nil {
		t.Error("expected error for empty API key")
	}
}

func TestOpenAILLM_RewriteQuery(t *testing.T) {
	var captured chatRequest
	server := newChatServer(t, "webhook configuration retry policy", &captured)
	defer server.Close()

	svc, err := NewOpenAILLM("sk-test", "gpt-4o-mini", server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	history := []domain.ConversationTurn{
		{Role: domain.RoleUser, Content: "tell me about webhooks"},
		{Role: domain.RoleAssistant, Content: "webhooks notify your server"},
	}
	rewritten, usage, err := svc.RewriteQuery(context.Background(), "how do retries work?", history)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rewritten != "webhook configuration retry policy" {
		t.Errorf("unexpected rewrite: %s", rewritten)
	}
	if usage.TotalTokens != 40 {
		t.Errorf("unexpected usage: %+v", usage)
	}

	// History is included as speaker-labeled lines
	joined := ""
	for _, m := range captured.Messages {
		joined += m.Content + "\n"
	}
	if !strings.Contains(joined, "User: tell me about webhooks") {
		t.Error("expected the conversation in the prompt")
	}
	if !strings.Contains(joined, "how do retries work?") {
		t.Error("expected the question in the prompt")
	}
}

func TestOpenAILLM_GenerateAnswer(t *testing.T) {
	var captured chatRequest
	server := newChatServer(t, "Retries are exponential [Document 1].", &captured)
	defer server.Close()

	svc, _ := NewOpenAILLM("sk-test", "gpt-4o-mini", server.URL)

	blocks := []string{"[Document 1]\nTitle: Webhooks\nRetries are exponential."}
	answer, usage, err := svc.GenerateAnswer(context.Background(), "how do retries work?", blocks, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(answer, "[Document 1]") {
		t.Errorf("unexpected answer: %s", answer)
	}
	if usage.CompletionTokens != 10 {
		t.Errorf("unexpected usage: %+v", usage)
	}

	// Context blocks reach the prompt verbatim
	found := false
	for _, m := range captured.Messages {
		if strings.Contains(m.Content, "Title: Webhooks") {
			found = true
		}
	}
	if !found {
		t.Error("expected context blocks in the prompt")
	}
}

func TestOpenAILLM_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "rate limited", "type": "rate_limit_error"},
		})
	}))
	defer server.Close()

	svc, _ := NewOpenAILLM("sk-test", "gpt-4o-mini", server.URL)

	_, _, err := svc.RewriteQuery(context.Background(), "question", nil)
	if err == nil {
		t.Fatal("expected an API error")
	}
	if !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("expected the API message in the error, got %v", err)
	}
}

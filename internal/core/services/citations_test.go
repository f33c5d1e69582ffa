package services

import (
	"testing"

	"github.com/groundline-labs/groundline-core/internal/core/domain"
)

func chunkItem(id string, score float64) domain.RetrievedItem {
	return domain.RetrievedItem{
		ID:    id,
		Score: score,
		Payload: map[string]any{
			"kind":  "chunk",
			"title": "Page " + id,
			"url":   "https://docs.example.com/" + id,
		},
	}
}

func endpointItem(id, method, path, summary string, score float64) domain.RetrievedItem {
	return domain.RetrievedItem{
		ID:    id,
		Score: score,
		Payload: map[string]any{
			"kind":    "endpoint",
			"method":  method,
			"path":    path,
			"summary": summary,
		},
	}
}

func TestIndexMarkerStrategy(t *testing.T) {
	items := []domain.RetrievedItem{
		chunkItem("a", 0.9),
		chunkItem("b", 0.8),
		chunkItem("c", 0.7),
	}
	answer := "Webhooks are configured in settings [Document 1]. Retries are automatic [Document 3]."

	indices := IndexMarkerStrategy{}.Extract(answer, items)

	if len(indices) != 2 || indices[0] != 0 || indices[1] != 2 {
		t.Fatalf("expected indices [0 2], got %v", indices)
	}
}

func TestIndexMarkerStrategy_IgnoresOutOfRange(t *testing.T) {
	items := []domain.RetrievedItem{chunkItem("a", 0.9)}
	answer := "See [Document 1] and [Document 7] and [Document 0]."

	indices := IndexMarkerStrategy{}.Extract(answer, items)

	if len(indices) != 1 || indices[0] != 0 {
		t.Fatalf("expected only the valid ordinal, got %v", indices)
	}
}

func TestIndexMarkerStrategy_DeduplicatesRepeats(t *testing.T) {
	items := []domain.RetrievedItem{chunkItem("a", 0.9), chunkItem("b", 0.8)}
	answer := "[Document 2] explains it; see [Document 2] again."

	indices := IndexMarkerStrategy{}.Extract(answer, items)

	if len(indices) != 1 || indices[0] != 1 {
		t.Fatalf("expected deduplicated [1], got %v", indices)
	}
}

func TestEndpointSignatureStrategy(t *testing.T) {
	items := []domain.RetrievedItem{
		endpointItem("a", "POST", "/v1/payments", "Create a payment", 0.9),
		endpointItem("b", "GET", "/v1/refunds", "List refunds", 0.8),
		chunkItem("c", 0.7),
	}
	answer := "Call POST /v1/payments with an idempotency key."

	indices := EndpointSignatureStrategy{}.Extract(answer, items)

	if len(indices) != 1 || indices[0] != 0 {
		t.Fatalf("expected only the payments endpoint, got %v", indices)
	}
}

func TestEndpointSignatureStrategy_MatchesSummary(t *testing.T) {
	items := []domain.RetrievedItem{
		endpointItem("a", "DELETE", "/v1/tokens/{id}", "Revoke a token", 0.9),
	}
	answer := "To revoke a token, send a DELETE request with the token id."

	indices := EndpointSignatureStrategy{}.Extract(answer, items)

	if len(indices) != 1 {
		t.Fatalf("expected summary match, got %v", indices)
	}
}

func TestEndpointSignatureStrategy_CaseInsensitive(t *testing.T) {
	items := []domain.RetrievedItem{
		endpointItem("a", "GET", "/v1/users", "List users", 0.9),
	}
	answer := "Use get /V1/USERS to enumerate accounts."

	indices := EndpointSignatureStrategy{}.Extract(answer, items)

	if len(indices) != 1 {
		t.Fatalf("expected case-insensitive match, got %v", indices)
	}
}

func TestCitationExtractor_MarkersWin(t *testing.T) {
	items := []domain.RetrievedItem{
		chunkItem("a", 0.9),
		chunkItem("b", 0.8),
	}
	answer := "Configured via the dashboard [Document 2]."

	sources, fallback := NewCitationExtractor().Extract(answer, items)

	if fallback {
		t.Fatal("expected a genuine citation match, not fallback")
	}
	if len(sources) != 1 || sources[0].ID != "b" {
		t.Fatalf("expected source b, got %+v", sources)
	}
}

func TestCitationExtractor_UnionPreservesContextOrder(t *testing.T) {
	items := []domain.RetrievedItem{
		endpointItem("ep", "GET", "/v1/events", "List events", 0.9),
		chunkItem("ch", 0.8),
	}
	answer := "Poll GET /v1/events as described in [Document 2]."

	sources, fallback := NewCitationExtractor().Extract(answer, items)

	if fallback {
		t.Fatal("unexpected fallback")
	}
	if len(sources) != 2 || sources[0].ID != "ep" || sources[1].ID != "ch" {
		t.Fatalf("expected sources in context order, got %+v", sources)
	}
}

func TestCitationExtractor_FallbackTopThree(t *testing.T) {
	items := []domain.RetrievedItem{
		chunkItem("a", 0.9),
		chunkItem("b", 0.8),
		chunkItem("c", 0.7),
		chunkItem("d", 0.6),
	}
	answer := "An answer with no recognizable citations at all."

	sources, fallback := NewCitationExtractor().Extract(answer, items)

	if !fallback {
		t.Fatal("expected the fallback flag")
	}
	if len(sources) != 3 {
		t.Fatalf("expected 3 fallback sources, got %d", len(sources))
	}
	if sources[0].ID != "a" || sources[2].ID != "c" {
		t.Errorf("expected top-scored fallback subset, got %+v", sources)
	}
}

func TestCitationExtractor_FallbackFewerItems(t *testing.T) {
	items := []domain.RetrievedItem{chunkItem("a", 0.9), chunkItem("b", 0.8)}

	sources, fallback := NewCitationExtractor().Extract("nothing cited", items)

	if !fallback {
		t.Fatal("expected the fallback flag")
	}
	if len(sources) != 2 {
		t.Fatalf("expected min(3, contextSize) sources, got %d", len(sources))
	}
}

func TestCitationExtractor_EmptyContext(t *testing.T) {
	sources, fallback := NewCitationExtractor().Extract("any answer", nil)

	if fallback || len(sources) != 0 {
		t.Fatalf("expected no sources for empty context, got %d (fallback=%v)", len(sources), fallback)
	}
}

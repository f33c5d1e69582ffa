package domain

import "testing"

func TestDefaultRetrievalParams(t *testing.T) {
	p := DefaultRetrievalParams()

	if p.MinScore != 0.35 {
		t.Errorf("expected MinScore 0.35, got %v", p.MinScore)
	}
	if p.Floor != 0.25 {
		t.Errorf("expected Floor 0.25, got %v", p.Floor)
	}
	if p.StepDown != 0.05 {
		t.Errorf("expected StepDown 0.05, got %v", p.StepDown)
	}
	if p.ContextLimit != 5 {
		t.Errorf("expected ContextLimit 5, got %d", p.ContextLimit)
	}
	if p.FieldClip != 500 {
		t.Errorf("expected FieldClip 500, got %d", p.FieldClip)
	}
}

func TestRetrievalParams_Normalise(t *testing.T) {
	p := RetrievalParams{MinScore: 0.5}.Normalise()

	if p.MinScore != 0.5 {
		t.Errorf("expected explicit MinScore preserved, got %v", p.MinScore)
	}
	if p.Floor != 0.25 {
		t.Errorf("expected default Floor, got %v", p.Floor)
	}
	if p.ContextLimit != 5 {
		t.Errorf("expected default ContextLimit, got %d", p.ContextLimit)
	}
}

func TestRetrievalResult_Empty(t *testing.T) {
	empty := RetrievalResult{UsedThreshold: 0.35, MaxScore: 0.1}
	if !empty.Empty() {
		t.Error("expected sentinel result to be empty")
	}

	full := RetrievalResult{Items: []RetrievedItem{{ID: "a", Score: 0.8}}}
	if full.Empty() {
		t.Error("expected non-empty result")
	}
}

func TestSourceFromItem_Chunk(t *testing.T) {
	item := RetrievedItem{
		ID:    "chunk-1",
		Score: 0.72,
		Payload: map[string]any{
			PayloadKind: KindChunk,
			"title":     "Getting Started",
			"url":       "https://docs.example.com/start",
		},
	}

	src := SourceFromItem(item)
	if src.Title != "Getting Started" {
		t.Errorf("expected title, got %q", src.Title)
	}
	if src.URL != "https://docs.example.com/start" {
		t.Errorf("expected url, got %q", src.URL)
	}
	if src.Method != "" {
		t.Errorf("expected no method for chunk, got %q", src.Method)
	}
	if src.Score != 0.72 {
		t.Errorf("expected score carried over, got %v", src.Score)
	}
}

func TestSourceFromItem_Endpoint(t *testing.T) {
	item := RetrievedItem{
		ID:    "ep-1",
		Score: 0.64,
		Payload: map[string]any{
			PayloadKind: KindEndpoint,
			"method":    "GET",
			"path":      "/v1/users",
			"summary":   "List users",
		},
	}

	src := SourceFromItem(item)
	if src.Method != "GET" || src.Path != "/v1/users" {
		t.Errorf("expected endpoint identity, got %q %q", src.Method, src.Path)
	}
	if src.Summary != "List users" {
		t.Errorf("expected summary, got %q", src.Summary)
	}
	if src.Title != "" {
		t.Errorf("expected no title for endpoint, got %q", src.Title)
	}
}

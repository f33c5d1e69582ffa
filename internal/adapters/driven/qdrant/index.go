package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/groundline-labs/groundline-core/internal/core/domain"
	"github.com/groundline-labs/groundline-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.VectorIndex = (*Index)(nil)

// Index implements driven.VectorIndex against Qdrant's REST API.
// Collections use cosine distance.
type Index struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Config holds Qdrant connection configuration
type Config struct {
	// BaseURL is the Qdrant endpoint (e.g., http://localhost:6333)
	BaseURL string

	// APIKey is optional; sent as the api-key header when set
	APIKey string

	// Timeout for HTTP requests
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL: baseURL,
		Timeout: 30 * time.Second,
	}
}

// NewIndex creates a new Qdrant-backed VectorIndex
func NewIndex(cfg Config) *Index {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Index{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// EnsureCollection creates the collection if it does not exist.
// Qdrant answers 200 for a create of an existing collection with the
// same schema and 409 when it already exists.
func (q *Index) EnsureCollection(ctx context.Context, collection string, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("invalid dimensions %d", dimensions)
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimensions,
			"distance": "Cosine",
		},
	}

	status, _, err := q.do(ctx, http.MethodPut, "/collections/"+collection, body)
	if err != nil {
		return fmt.Errorf("creating collection %s: %w", collection, err)
	}
	if status != http.StatusOK && status != http.StatusConflict {
		return fmt.Errorf("creating collection %s: status %d", collection, status)
	}
	return nil
}

// Upsert inserts or replaces points
func (q *Index) Upsert(ctx context.Context, collection string, points []driven.Point) error {
	if len(points) == 0 {
		return nil
	}

	qdrantPoints := make([]map[string]any, len(points))
	for i, p := range points {
		qdrantPoints[i] = map[string]any{
			"id":      p.ID,
			"vector":  p.Vector,
			"payload": p.Payload,
		}
	}

	body := map[string]any{"points": qdrantPoints}
	status, respBody, err := q.do(ctx, http.MethodPut, "/collections/"+collection+"/points?wait=true", body)
	if err != nil {
		return fmt.Errorf("upserting %d points: %w", len(points), err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("upserting %d points: status %d: %s", len(points), status, truncate(respBody))
	}
	return nil
}

// searchResponse is Qdrant's points/search result envelope
type searchResponse struct {
	Result []struct {
		ID      any            `json:"id"`
		Score   float64        `json:"score"`
		Payload map[string]any `json:"payload"`
	} `json:"result"`
}

// Search returns up to limit items ranked by descending similarity
func (q *Index) Search(ctx context.Context, collection string, vector []float32, limit int, filter domain.Filter) ([]domain.RetrievedItem, error) {
	body := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	if f := qdrantFilter(filter); f != nil {
		body["filter"] = f
	}

	status, respBody, err := q.do(ctx, http.MethodPost, "/collections/"+collection+"/points/search", body)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("searching: status %d: %s", status, truncate(respBody))
	}

	var resp searchResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}

	items := make([]domain.RetrievedItem, 0, len(resp.Result))
	for _, r := range resp.Result {
		items = append(items, domain.RetrievedItem{
			ID:      fmt.Sprintf("%v", r.ID),
			Score:   r.Score,
			Payload: r.Payload,
		})
	}
	return items, nil
}

// DeleteByFilter removes all points matching the filter and returns
// how many were removed. Qdrant's delete API does not report a count,
// so the points are counted first.
func (q *Index) DeleteByFilter(ctx context.Context, collection string, filter domain.Filter) (int, error) {
	count, err := q.CountByFilter(ctx, collection, filter)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}

	body := map[string]any{"filter": qdrantFilter(filter)}
	status, respBody, err := q.do(ctx, http.MethodPost, "/collections/"+collection+"/points/delete?wait=true", body)
	if err != nil {
		return 0, fmt.Errorf("deleting points: %w", err)
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("deleting points: status %d: %s", status, truncate(respBody))
	}
	return count, nil
}

// countResponse is Qdrant's points/count result envelope
type countResponse struct {
	Result struct {
		Count int `json:"count"`
	} `json:"result"`
}

// CountByFilter returns the number of points matching the filter
func (q *Index) CountByFilter(ctx context.Context, collection string, filter domain.Filter) (int, error) {
	body := map[string]any{"exact": true}
	if f := qdrantFilter(filter); f != nil {
		body["filter"] = f
	}

	status, respBody, err := q.do(ctx, http.MethodPost, "/collections/"+collection+"/points/count", body)
	if err != nil {
		return 0, fmt.Errorf("counting points: %w", err)
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("counting points: status %d: %s", status, truncate(respBody))
	}

	var resp countResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return 0, fmt.Errorf("parsing count response: %w", err)
	}
	return resp.Result.Count, nil
}

// HealthCheck verifies the index is reachable
func (q *Index) HealthCheck(ctx context.Context) error {
	status, _, err := q.do(ctx, http.MethodGet, "/readyz", nil)
	if err != nil {
		return fmt.Errorf("qdrant health check: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("qdrant health check: status %d", status)
	}
	return nil
}

// qdrantFilter converts an equality filter to Qdrant's must/match form
func qdrantFilter(filter domain.Filter) map[string]any {
	if len(filter) == 0 {
		return nil
	}
	must := make([]map[string]any, 0, len(filter))
	for key, value := range filter {
		must = append(must, map[string]any{
			"key":   key,
			"match": map[string]any{"value": value},
		})
	}
	return map[string]any{"must": must}
}

func (q *Index) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, q.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}

	resp, err := q.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

func truncate(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}

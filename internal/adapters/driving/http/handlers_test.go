package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/groundline-labs/groundline-core/internal/core/domain"
	"github.com/groundline-labs/groundline-core/internal/core/ports/driven"
	"github.com/groundline-labs/groundline-core/internal/core/ports/driving"
)

// Mock services for testing

type mockAnswerService struct {
	answerFn func(ctx context.Context, req domain.QueryRequest) (*domain.QueryResponse, error)
}

func (m *mockAnswerService) Answer(ctx context.Context, req domain.QueryRequest) (*domain.QueryResponse, error) {
	if m.answerFn != nil {
		return m.answerFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

type mockDocumentIngestor struct {
	ingestFn func(ctx context.Context, sourceID string, force bool) (*domain.IngestReport, error)
}

func (m *mockDocumentIngestor) IngestSource(ctx context.Context, sourceID string, force bool) (*domain.IngestReport, error) {
	if m.ingestFn != nil {
		return m.ingestFn(ctx, sourceID, force)
	}
	return nil, errors.New("not implemented")
}

type mockApiIngestor struct {
	ingestFn func(ctx context.Context, documentKey string, raw []byte, format string) (*domain.ApiIngestReport, error)
}

func (m *mockApiIngestor) IngestSpec(ctx context.Context, documentKey string, raw []byte, format string) (*domain.ApiIngestReport, error) {
	if m.ingestFn != nil {
		return m.ingestFn(ctx, documentKey, raw, format)
	}
	return nil, errors.New("not implemented")
}

type mockSettingsService struct {
	getFn             func(ctx context.Context) (*domain.Settings, error)
	updateAIFn        func(ctx context.Context, req driving.UpdateAISettingsRequest) (*domain.Settings, error)
	updateRetrievalFn func(ctx context.Context, params domain.RetrievalParams) (*domain.Settings, error)
}

func (m *mockSettingsService) Get(ctx context.Context) (*domain.Settings, error) {
	if m.getFn != nil {
		return m.getFn(ctx)
	}
	return domain.DefaultSettings(), nil
}

func (m *mockSettingsService) UpdateAI(ctx context.Context, req driving.UpdateAISettingsRequest) (*domain.Settings, error) {
	if m.updateAIFn != nil {
		return m.updateAIFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockSettingsService) UpdateRetrieval(ctx context.Context, params domain.RetrievalParams) (*domain.Settings, error) {
	if m.updateRetrievalFn != nil {
		return m.updateRetrievalFn(ctx, params)
	}
	return nil, errors.New("not implemented")
}

type mockTaskQueue struct {
	enqueued []*domain.Task
	tasks    map[string]*domain.Task
	stats    driven.QueueStats
}

func newMockTaskQueue() *mockTaskQueue {
	return &mockTaskQueue{tasks: map[string]*domain.Task{}}
}

func (m *mockTaskQueue) Enqueue(ctx context.Context, task *domain.Task) error {
	m.enqueued = append(m.enqueued, task)
	m.tasks[task.ID] = task
	return nil
}

func (m *mockTaskQueue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error) {
	return nil, nil
}

func (m *mockTaskQueue) Ack(ctx context.Context, taskID string) error { return nil }

func (m *mockTaskQueue) Nack(ctx context.Context, taskID string, reason string) error { return nil }

func (m *mockTaskQueue) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	return m.tasks[taskID], nil
}

func (m *mockTaskQueue) Stats(ctx context.Context) (*driven.QueueStats, error) {
	return &m.stats, nil
}

func (m *mockTaskQueue) Ping(ctx context.Context) error { return nil }

func (m *mockTaskQueue) Close() error { return nil }

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error { return m.err }

type serverFixture struct {
	server   *Server
	answers  *mockAnswerService
	docs     *mockDocumentIngestor
	api      *mockApiIngestor
	settings *mockSettingsService
	queue    *mockTaskQueue
	db       *mockPinger
	redis    *mockPinger
}

func newTestServer(t *testing.T) *serverFixture {
	t.Helper()

	f := &serverFixture{
		answers:  &mockAnswerService{},
		docs:     &mockDocumentIngestor{},
		api:      &mockApiIngestor{},
		settings: &mockSettingsService{},
		queue:    newMockTaskQueue(),
		db:       &mockPinger{},
		redis:    &mockPinger{},
	}

	cfg := DefaultConfig()
	cfg.Version = "test"
	f.server = NewServer(cfg, f.answers, f.docs, f.api, f.settings, f.queue, f.db, f.redis, nil)
	return f
}

func (f *serverFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHandleHealth(t *testing.T) {
	f := newTestServer(t)

	rec := f.do(t, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
}

func TestHandleVersion(t *testing.T) {
	f := newTestServer(t)

	rec := f.do(t, http.MethodGet, "/version", nil)
	body := decodeBody[map[string]string](t, rec)
	if body["version"] != "test" {
		t.Errorf("version: got %q, want %q", body["version"], "test")
	}
}

func TestHandleReady_DependencyDown(t *testing.T) {
	f := newTestServer(t)
	f.redis.err = errors.New("connection refused")

	rec := f.do(t, http.MethodGet, "/ready", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want 503", rec.Code)
	}
}

func TestHandleQuery_Success(t *testing.T) {
	f := newTestServer(t)
	f.answers.answerFn = func(ctx context.Context, req domain.QueryRequest) (*domain.QueryResponse, error) {
		if req.Question != "How do I create an invoice?" {
			t.Errorf("question: got %q", req.Question)
		}
		return &domain.QueryResponse{
			Success:  true,
			Answer:   "Use POST /v1/invoices.",
			Question: req.Question,
		}, nil
	}

	rec := f.do(t, http.MethodPost, "/api/v1/query", map[string]string{
		"question": "How do I create an invoice?",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}

	resp := decodeBody[domain.QueryResponse](t, rec)
	if !resp.Success {
		t.Error("expected success=true")
	}
	if resp.Answer != "Use POST /v1/invoices." {
		t.Errorf("answer: got %q", resp.Answer)
	}
}

func TestHandleQuery_PipelineFailureIsStill200(t *testing.T) {
	f := newTestServer(t)
	f.answers.answerFn = func(ctx context.Context, req domain.QueryRequest) (*domain.QueryResponse, error) {
		return &domain.QueryResponse{Success: false, Answer: "no information"}, nil
	}

	rec := f.do(t, http.MethodPost, "/api/v1/query", map[string]string{"question": "anything"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}

	resp := decodeBody[domain.QueryResponse](t, rec)
	if resp.Success {
		t.Error("expected success=false")
	}
}

func TestHandleQuery_InvalidInput(t *testing.T) {
	f := newTestServer(t)
	f.answers.answerFn = func(ctx context.Context, req domain.QueryRequest) (*domain.QueryResponse, error) {
		return nil, fmt.Errorf("question is empty: %w", domain.ErrInvalidInput)
	}

	rec := f.do(t, http.MethodPost, "/api/v1/query", map[string]string{"question": ""})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rec.Code)
	}
}

func TestHandleIngestPages(t *testing.T) {
	f := newTestServer(t)
	f.docs.ingestFn = func(ctx context.Context, sourceID string, force bool) (*domain.IngestReport, error) {
		if sourceID != "docs" || !force {
			t.Errorf("args: got (%q, %v)", sourceID, force)
		}
		return &domain.IngestReport{SourceID: "docs", PagesProcessed: 3, ChunksCreated: 9}, nil
	}

	rec := f.do(t, http.MethodPost, "/api/v1/ingest/pages", map[string]any{
		"source_id": "docs",
		"force":     true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}

	report := decodeBody[domain.IngestReport](t, rec)
	if report.ChunksCreated != 9 {
		t.Errorf("chunks: got %d, want 9", report.ChunksCreated)
	}
}

func TestHandleIngestPages_Conflict(t *testing.T) {
	f := newTestServer(t)
	f.docs.ingestFn = func(ctx context.Context, sourceID string, force bool) (*domain.IngestReport, error) {
		return nil, domain.ErrIngestInProgress
	}

	rec := f.do(t, http.MethodPost, "/api/v1/ingest/pages", map[string]any{"source_id": "docs"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want 409", rec.Code)
	}
}

func TestHandleIngestPages_EmbeddingUnavailable(t *testing.T) {
	f := newTestServer(t)
	f.docs.ingestFn = func(ctx context.Context, sourceID string, force bool) (*domain.IngestReport, error) {
		return nil, domain.ErrEmbeddingUnavailable
	}

	rec := f.do(t, http.MethodPost, "/api/v1/ingest/pages", map[string]any{"source_id": "docs"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want 503", rec.Code)
	}
}

func TestHandleIngestApi(t *testing.T) {
	f := newTestServer(t)
	f.api.ingestFn = func(ctx context.Context, documentKey string, raw []byte, format string) (*domain.ApiIngestReport, error) {
		if documentKey != "billing" {
			t.Errorf("key: got %q", documentKey)
		}
		if string(raw) != `{"openapi":"3.0.0"}` {
			t.Errorf("raw: got %q", raw)
		}
		return &domain.ApiIngestReport{DocumentKey: "billing", EndpointCount: 4}, nil
	}

	rec := f.do(t, http.MethodPost, "/api/v1/ingest/api", map[string]string{
		"document_key": "billing",
		"spec":         `{"openapi":"3.0.0"}`,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}

	report := decodeBody[domain.ApiIngestReport](t, rec)
	if report.EndpointCount != 4 {
		t.Errorf("endpoints: got %d, want 4", report.EndpointCount)
	}
}

func TestHandleIngestApi_InvalidSpec(t *testing.T) {
	f := newTestServer(t)
	f.api.ingestFn = func(ctx context.Context, documentKey string, raw []byte, format string) (*domain.ApiIngestReport, error) {
		return nil, fmt.Errorf("%w: not an openapi document", domain.ErrInvalidSpec)
	}

	rec := f.do(t, http.MethodPost, "/api/v1/ingest/api", map[string]string{
		"document_key": "billing",
		"spec":         "not json",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rec.Code)
	}
}

func TestHandleCreateIngestJob_Pages(t *testing.T) {
	f := newTestServer(t)

	rec := f.do(t, http.MethodPost, "/api/v1/ingest/jobs", map[string]any{
		"type":      "pages",
		"source_id": "docs",
		"force":     true,
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status: got %d, want 202", rec.Code)
	}

	if len(f.queue.enqueued) != 1 {
		t.Fatalf("enqueued: got %d tasks, want 1", len(f.queue.enqueued))
	}
	task := f.queue.enqueued[0]
	if task.Type != domain.TaskTypeIngestSource {
		t.Errorf("type: got %q", task.Type)
	}
	if task.Payload["source_id"] != "docs" || task.Payload["force"] != "true" {
		t.Errorf("payload: got %v", task.Payload)
	}
}

func TestHandleCreateIngestJob_Api(t *testing.T) {
	f := newTestServer(t)

	rec := f.do(t, http.MethodPost, "/api/v1/ingest/jobs", map[string]any{
		"type":         "api",
		"document_key": "billing",
		"spec":         `{"openapi":"3.0.0"}`,
		"format":       "json",
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status: got %d, want 202", rec.Code)
	}

	task := f.queue.enqueued[0]
	if task.Type != domain.TaskTypeIngestApiSpec {
		t.Errorf("type: got %q", task.Type)
	}
	if task.Payload["document_key"] != "billing" {
		t.Errorf("payload: got %v", task.Payload)
	}
}

func TestHandleCreateIngestJob_UnknownType(t *testing.T) {
	f := newTestServer(t)

	rec := f.do(t, http.MethodPost, "/api/v1/ingest/jobs", map[string]any{"type": "sitemap"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rec.Code)
	}
}

func TestHandleGetIngestJob(t *testing.T) {
	f := newTestServer(t)

	rec := f.do(t, http.MethodPost, "/api/v1/ingest/jobs", map[string]any{
		"type":      "pages",
		"source_id": "docs",
	})
	created := decodeBody[map[string]string](t, rec)

	rec = f.do(t, http.MethodGet, "/api/v1/ingest/jobs/"+created["task_id"], nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}

	task := decodeBody[domain.Task](t, rec)
	if task.ID != created["task_id"] {
		t.Errorf("task id: got %q, want %q", task.ID, created["task_id"])
	}
}

func TestHandleGetIngestJob_NotFound(t *testing.T) {
	f := newTestServer(t)

	rec := f.do(t, http.MethodGet, "/api/v1/ingest/jobs/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", rec.Code)
	}
}

func TestHandleGetSettings(t *testing.T) {
	f := newTestServer(t)

	rec := f.do(t, http.MethodGet, "/api/v1/settings", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}

	settings := decodeBody[domain.Settings](t, rec)
	if settings.Retrieval.MinScore != domain.DefaultRetrievalParams().MinScore {
		t.Errorf("min score: got %v", settings.Retrieval.MinScore)
	}
}

func TestHandleGetAISettings(t *testing.T) {
	f := newTestServer(t)
	f.settings.getFn = func(ctx context.Context) (*domain.Settings, error) {
		s := domain.DefaultSettings()
		s.Embedding = domain.EmbeddingSettings{
			Provider: domain.AIProviderOpenAI,
			Model:    "text-embedding-3-small",
			APIKey:   "sk-secret",
		}
		return s, nil
	}

	rec := f.do(t, http.MethodGet, "/api/v1/settings/ai", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}

	body := rec.Body.String()
	if !bytes.Contains([]byte(body), []byte("text-embedding-3-small")) {
		t.Errorf("expected model in response, got %s", body)
	}
	if bytes.Contains([]byte(body), []byte("sk-secret")) {
		t.Error("api key must never serialize")
	}
}

func TestHandleUpdateAISettings_InvalidProvider(t *testing.T) {
	f := newTestServer(t)
	f.settings.updateAIFn = func(ctx context.Context, req driving.UpdateAISettingsRequest) (*domain.Settings, error) {
		return nil, fmt.Errorf("%w: anthropic", domain.ErrInvalidProvider)
	}

	rec := f.do(t, http.MethodPut, "/api/v1/settings/ai", map[string]any{
		"embedding": map[string]string{"provider": "anthropic"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rec.Code)
	}
}

func TestHandleUpdateAISettings_ValidationFailure(t *testing.T) {
	f := newTestServer(t)
	f.settings.updateAIFn = func(ctx context.Context, req driving.UpdateAISettingsRequest) (*domain.Settings, error) {
		return nil, errors.New("embedding health check failed: 401 unauthorized")
	}

	rec := f.do(t, http.MethodPut, "/api/v1/settings/ai", map[string]any{
		"embedding": map[string]string{"provider": "openai", "api_key": "bad"},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: got %d, want 422", rec.Code)
	}
}

func TestHandleUpdateRetrievalSettings(t *testing.T) {
	f := newTestServer(t)
	f.settings.updateRetrievalFn = func(ctx context.Context, params domain.RetrievalParams) (*domain.Settings, error) {
		s := domain.DefaultSettings()
		s.Retrieval = params
		return s, nil
	}

	rec := f.do(t, http.MethodPut, "/api/v1/settings/retrieval", map[string]any{
		"min_score": 0.5,
		"floor":     0.3,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
}

func TestHandleUpdateRetrievalSettings_Invalid(t *testing.T) {
	f := newTestServer(t)
	f.settings.updateRetrievalFn = func(ctx context.Context, params domain.RetrievalParams) (*domain.Settings, error) {
		return nil, fmt.Errorf("floor above min score: %w", domain.ErrInvalidInput)
	}

	rec := f.do(t, http.MethodPut, "/api/v1/settings/retrieval", map[string]any{
		"min_score": 0.3,
		"floor":     0.5,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rec.Code)
	}
}

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/groundline-labs/groundline-core/internal/core/domain"
	"github.com/groundline-labs/groundline-core/internal/core/ports/driving"
)

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse represents a simple status response
type StatusResponse struct {
	Status string `json:"status"`
}

// Health endpoints

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	ready := true

	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			checks["postgres"] = err.Error()
			ready = false
		} else {
			checks["postgres"] = "ok"
		}
	}
	if s.redisClient != nil {
		if err := s.redisClient.Ping(r.Context()); err != nil {
			checks["redis"] = err.Error()
			ready = false
		} else {
			checks["redis"] = "ok"
		}
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{"ready": ready, "checks": checks})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Query endpoint

// handleQuery runs the question-answering pipeline. Pipeline failures
// come back as 200 with success=false; only malformed requests get an
// error status.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req domain.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.answerService.Answer(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Ingestion endpoints

type ingestPagesRequest struct {
	SourceID string `json:"source_id"`
	Force    bool   `json:"force"`
}

func (s *Server) handleIngestPages(w http.ResponseWriter, r *http.Request) {
	var req ingestPagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	report, err := s.documentIngestor.IngestSource(r.Context(), req.SourceID, req.Force)
	if err != nil {
		s.writeIngestError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

type ingestApiRequest struct {
	DocumentKey string `json:"document_key"`
	Spec        string `json:"spec"`
	Format      string `json:"format,omitempty"`
}

func (s *Server) handleIngestApi(w http.ResponseWriter, r *http.Request) {
	var req ingestApiRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	report, err := s.apiIngestor.IngestSpec(r.Context(), req.DocumentKey, []byte(req.Spec), req.Format)
	if err != nil {
		s.writeIngestError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) writeIngestError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidSpec):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrIngestInProgress):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrEmbeddingUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error("ingestion failed", "error", err)
		writeError(w, http.StatusInternalServerError, "ingestion failed")
	}
}

// Background ingestion jobs

type createIngestJobRequest struct {
	Type string `json:"type"` // "pages" or "api"

	// pages
	SourceID string `json:"source_id,omitempty"`
	Force    bool   `json:"force,omitempty"`

	// api
	DocumentKey string `json:"document_key,omitempty"`
	Spec        string `json:"spec,omitempty"`
	Format      string `json:"format,omitempty"`
}

func (s *Server) handleCreateIngestJob(w http.ResponseWriter, r *http.Request) {
	var req createIngestJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var task *domain.Task
	switch req.Type {
	case "pages":
		task = domain.NewIngestSourceTask(req.SourceID, req.Force)
	case "api":
		if req.DocumentKey == "" || req.Spec == "" {
			writeError(w, http.StatusBadRequest, "document_key and spec are required")
			return
		}
		task = domain.NewIngestApiSpecTask(req.DocumentKey, req.Spec, req.Format)
	default:
		writeError(w, http.StatusBadRequest, "type must be \"pages\" or \"api\"")
		return
	}

	if err := s.taskQueue.Enqueue(r.Context(), task); err != nil {
		s.logger.Error("failed to enqueue task", "type", task.Type, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to enqueue task")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"task_id": task.ID,
		"status":  string(task.Status),
	})
}

func (s *Server) handleGetIngestJob(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("id")

	task, err := s.taskQueue.GetTask(r.Context(), taskID)
	if err != nil {
		s.logger.Error("failed to load task", "task_id", taskID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load task")
		return
	}
	if task == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleQueueStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.taskQueue.Stats(r.Context())
	if err != nil {
		s.logger.Error("failed to load queue stats", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load queue stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// Settings endpoints

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.settingsService.Get(r.Context())
	if err != nil {
		s.logger.Error("failed to load settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}

	writeJSON(w, http.StatusOK, settings)
}

// handleGetAISettings returns the AI provider configuration. API keys
// never serialize (domain tags), so this is safe to expose.
func (s *Server) handleGetAISettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.settingsService.Get(r.Context())
	if err != nil {
		s.logger.Error("failed to load settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"embedding": settings.Embedding,
		"llm":       settings.LLM,
	})
}

func (s *Server) handleUpdateAISettings(w http.ResponseWriter, r *http.Request) {
	var req driving.UpdateAISettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	settings, err := s.settingsService.UpdateAI(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidProvider), errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			// Validation against the provider failed (bad key, host down)
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleUpdateRetrievalSettings(w http.ResponseWriter, r *http.Request) {
	var params domain.RetrievalParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	settings, err := s.settingsService.UpdateRetrieval(r.Context(), params)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("failed to update retrieval settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update settings")
		return
	}

	writeJSON(w, http.StatusOK, settings)
}

// Helpers

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

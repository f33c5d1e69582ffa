package domain

import (
	"time"

	"github.com/google/uuid"
)

// GenerateID creates a unique random ID.
func GenerateID() string {
	return uuid.New().String()
}

// TaskType identifies the type of background task
type TaskType string

const (
	// TaskTypeIngestSource ingests all pages of a documentation source
	TaskTypeIngestSource TaskType = "ingest_source"
	// TaskTypeIngestApiSpec ingests an uploaded API specification
	TaskTypeIngestApiSpec TaskType = "ingest_api_spec"
)

// TaskStatus represents the current state of a task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Task represents a background ingestion job processed by workers
type Task struct {
	// ID is the unique identifier for this task
	ID string `json:"id"`

	// Type identifies what kind of task this is
	Type TaskType `json:"type"`

	// Payload contains task-specific data.
	// For ingest_source: {"source_id": "...", "force": "true|false"}
	// For ingest_api_spec: {"document_key": "...", "spec": "<raw>", "format": "json|yaml"}
	Payload map[string]string `json:"payload"`

	// Status tracking
	Status     TaskStatus `json:"status"`
	Error      string     `json:"error,omitempty"`
	RetryCount int        `json:"retry_count"`
	MaxRetries int        `json:"max_retries"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// MarkProcessing updates the task to processing state
func (t *Task) MarkProcessing() {
	now := time.Now()
	t.Status = TaskStatusProcessing
	t.StartedAt = &now
}

// MarkCompleted updates the task to completed state
func (t *Task) MarkCompleted() {
	now := time.Now()
	t.Status = TaskStatusCompleted
	t.CompletedAt = &now
}

// MarkFailed updates the task to failed state
func (t *Task) MarkFailed(err string) {
	now := time.Now()
	t.Status = TaskStatusFailed
	t.Error = err
	t.CompletedAt = &now
}

// CanRetry reports whether the task has retry attempts left
func (t *Task) CanRetry() bool {
	return t.RetryCount < t.MaxRetries
}

// Retry resets the task to pending with an incremented retry count
func (t *Task) Retry(reason string) {
	t.RetryCount++
	t.Status = TaskStatusPending
	t.Error = reason
	t.StartedAt = nil
}

// NewIngestSourceTask creates a task to ingest a documentation source.
func NewIngestSourceTask(sourceID string, force bool) *Task {
	forceVal := "false"
	if force {
		forceVal = "true"
	}
	return &Task{
		ID:         GenerateID(),
		Type:       TaskTypeIngestSource,
		Payload:    map[string]string{"source_id": sourceID, "force": forceVal},
		Status:     TaskStatusPending,
		MaxRetries: 3,
		CreatedAt:  time.Now(),
	}
}

// NewIngestApiSpecTask creates a task to ingest an API specification.
func NewIngestApiSpecTask(documentKey, spec, format string) *Task {
	return &Task{
		ID:         GenerateID(),
		Type:       TaskTypeIngestApiSpec,
		Payload:    map[string]string{"document_key": documentKey, "spec": spec, "format": format},
		Status:     TaskStatusPending,
		MaxRetries: 3,
		CreatedAt:  time.Now(),
	}
}

package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/groundline-labs/groundline-core/internal/core/domain"
	"github.com/groundline-labs/groundline-core/internal/core/ports/driven"
	"github.com/groundline-labs/groundline-core/internal/core/ports/driving"
)

// Worker processes ingestion tasks from the task queue.
type Worker struct {
	taskQueue        driven.TaskQueue
	documentIngestor driving.DocumentIngestor
	apiIngestor      driving.ApiIngestor
	logger           *slog.Logger

	// Configuration
	concurrency    int
	dequeueTimeout int // seconds

	// Internal state
	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// Config holds configuration for the worker.
type Config struct {
	TaskQueue        driven.TaskQueue
	DocumentIngestor driving.DocumentIngestor
	ApiIngestor      driving.ApiIngestor
	Logger           *slog.Logger
	Concurrency      int // Number of concurrent task processors
	DequeueTimeout   int // Seconds to wait for a task before checking again
}

// New creates a new task worker.
func New(cfg Config) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	dequeueTimeout := cfg.DequeueTimeout
	if dequeueTimeout <= 0 {
		dequeueTimeout = 5
	}

	return &Worker{
		taskQueue:        cfg.TaskQueue,
		documentIngestor: cfg.DocumentIngestor,
		apiIngestor:      cfg.ApiIngestor,
		logger:           logger,
		concurrency:      concurrency,
		dequeueTimeout:   dequeueTimeout,
	}
}

// Start begins the worker loop.
// It runs until Stop is called or context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info("worker starting",
		"concurrency", w.concurrency,
		"dequeue_timeout", w.dequeueTimeout,
	)

	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w.processLoop(ctx, workerID)
		}(i)
	}

	go func() {
		wg.Wait()
		close(w.doneCh)
	}()

	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.stopCh)
	w.mu.Unlock()

	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("worker stopped")
}

// Wait blocks until the worker stops.
func (w *Worker) Wait() {
	<-w.doneCh
}

// processLoop is the main processing loop for a worker goroutine.
func (w *Worker) processLoop(ctx context.Context, workerID int) {
	logger := w.logger.With("worker_id", workerID)
	logger.Info("worker goroutine started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("worker context cancelled")
			return
		case <-w.stopCh:
			logger.Info("worker stop signal received")
			return
		default:
		}

		task, err := w.taskQueue.DequeueWithTimeout(ctx, w.dequeueTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			logger.Error("failed to dequeue task", "error", err)
			time.Sleep(time.Second) // Back off on error
			continue
		}

		if task == nil {
			continue
		}

		w.processTask(ctx, task, logger)
	}
}

// processTask processes a single task.
func (w *Worker) processTask(ctx context.Context, task *domain.Task, logger *slog.Logger) {
	logger = logger.With("task_id", task.ID, "task_type", task.Type)
	logger.Info("processing task")

	startTime := time.Now()
	var err error

	switch task.Type {
	case domain.TaskTypeIngestSource:
		err = w.handleIngestSource(ctx, task)
	case domain.TaskTypeIngestApiSpec:
		err = w.handleIngestApiSpec(ctx, task)
	default:
		err = fmt.Errorf("unknown task type: %s", task.Type)
	}

	duration := time.Since(startTime)

	if err != nil {
		// Another run already holds the ingestion lock; retrying later
		// is the normal path, not a failure worth shouting about.
		if errors.Is(err, domain.ErrIngestInProgress) {
			logger.Info("ingestion already in progress, requeueing", "duration", duration)
		} else {
			logger.Error("task failed", "duration", duration, "error", err)
		}

		if nackErr := w.taskQueue.Nack(ctx, task.ID, err.Error()); nackErr != nil {
			logger.Error("failed to nack task", "nack_error", nackErr)
		}
		return
	}

	logger.Info("task completed", "duration", duration)

	if ackErr := w.taskQueue.Ack(ctx, task.ID); ackErr != nil {
		logger.Error("failed to ack task", "ack_error", ackErr)
	}
}

// handleIngestSource handles an ingest_source task.
func (w *Worker) handleIngestSource(ctx context.Context, task *domain.Task) error {
	sourceID := task.Payload["source_id"]
	force := task.Payload["force"] == "true"

	report, err := w.documentIngestor.IngestSource(ctx, sourceID, force)
	if err != nil {
		return err
	}

	w.logger.Info("source ingested",
		"source_id", report.SourceID,
		"pages_processed", report.PagesProcessed,
		"pages_skipped", report.PagesSkipped,
		"chunks_created", report.ChunksCreated,
		"errors", report.Errors,
	)
	return nil
}

// handleIngestApiSpec handles an ingest_api_spec task.
func (w *Worker) handleIngestApiSpec(ctx context.Context, task *domain.Task) error {
	documentKey := task.Payload["document_key"]
	spec := task.Payload["spec"]
	if documentKey == "" || spec == "" {
		return fmt.Errorf("document_key or spec not found in task payload")
	}

	report, err := w.apiIngestor.IngestSpec(ctx, documentKey, []byte(spec), task.Payload["format"])
	if err != nil {
		return err
	}

	w.logger.Info("api spec ingested",
		"document_key", report.DocumentKey,
		"endpoints", report.EndpointCount,
		"replaced", report.Replaced,
		"errors", report.Errors,
	)
	return nil
}

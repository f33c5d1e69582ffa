package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/groundline-labs/groundline-core/internal/core/domain"
	"github.com/groundline-labs/groundline-core/internal/core/ports/driven"
	"github.com/groundline-labs/groundline-core/internal/core/ports/driving"
	"github.com/groundline-labs/groundline-core/internal/openapi"
	"github.com/groundline-labs/groundline-core/internal/runtime"
)

// Ensure apiIngestor implements ApiIngestor
var _ driving.ApiIngestor = (*apiIngestor)(nil)

// apiIngestor implements the ApiIngestor interface: parse -> flatten
// schemas -> embed -> upsert. Re-uploading a documentKey replaces the
// previous upload's endpoints atomically from the caller's view:
// the old endpoints are purged before the new ones are written.
type apiIngestor struct {
	services   *runtime.Services
	index      driven.VectorIndex
	registry   driven.ApiDocumentStore
	lock       driven.DistributedLock
	usage      driven.UsageRecorder
	collection string
	logger     *slog.Logger
}

// NewApiIngestor creates a new ApiIngestor
func NewApiIngestor(
	services *runtime.Services,
	index driven.VectorIndex,
	registry driven.ApiDocumentStore,
	lock driven.DistributedLock,
	usage driven.UsageRecorder,
	collection string,
	logger *slog.Logger,
) driving.ApiIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &apiIngestor{
		services:   services,
		index:      index,
		registry:   registry,
		lock:       lock,
		usage:      usage,
		collection: collection,
		logger:     logger,
	}
}

// IngestSpec parses and indexes a raw OpenAPI document.
func (s *apiIngestor) IngestSpec(ctx context.Context, documentKey string, raw []byte, format string) (*domain.ApiIngestReport, error) {
	documentKey = strings.TrimSpace(documentKey)
	if documentKey == "" {
		return nil, fmt.Errorf("document key is required: %w", domain.ErrInvalidInput)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("specification body is required: %w", domain.ErrInvalidInput)
	}

	embedder := s.services.EmbeddingService()
	if embedder == nil || !s.services.Config().CanIngest() {
		return nil, domain.ErrEmbeddingUnavailable
	}

	lockName := "ingest:api:" + documentKey
	acquired, err := s.lock.Acquire(ctx, lockName, ingestLockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquiring ingest lock: %w", err)
	}
	if !acquired {
		return nil, domain.ErrIngestInProgress
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx), lockName); err != nil {
			s.logger.Warn("releasing ingest lock failed", "lock", lockName, "error", err)
		}
	}()

	doc, endpoints, err := openapi.Parse(raw, format)
	if err != nil {
		return nil, err
	}
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("%w: no operations found", domain.ErrInvalidSpec)
	}

	if err := s.index.EnsureCollection(ctx, s.collection, embedder.Dimensions()); err != nil {
		return nil, fmt.Errorf("ensuring collection: %w", err)
	}

	report := &domain.ApiIngestReport{DocumentKey: documentKey}

	// Replace-on-reupload: purge the previous upload's endpoints first
	previous, err := s.registry.Get(ctx, documentKey)
	switch {
	case err == nil:
		removed, err := s.index.DeleteByFilter(ctx, s.collection, domain.Filter{"document_id": previous.ID})
		if err != nil {
			return nil, fmt.Errorf("purging previous upload: %w", err)
		}
		report.Replaced = true
		s.logger.Info("replacing previous upload",
			"document_key", documentKey,
			"previous_id", previous.ID,
			"removed", removed)
	case errors.Is(err, domain.ErrNotFound):
		// first upload under this key
	default:
		return nil, fmt.Errorf("looking up document key: %w", err)
	}

	documentID := uuid.New().String()
	report.DocumentID = documentID
	totalUsage := domain.TokenUsage{}

	for _, endpoint := range endpoints {
		endpoint.ID = uuid.New().String()
		endpoint.DocumentKey = documentKey
		endpoint.DocumentID = documentID

		vectors, usage, err := embedder.Embed(ctx, []string{endpoint.FullText})
		totalUsage = totalUsage.Add(usage)
		if err != nil {
			s.logger.Error("embedding endpoint failed", "endpoint", endpoint.Signature(), "error", err)
			report.Errors++
			continue
		}

		point := driven.Point{
			ID:      endpoint.ID,
			Vector:  vectors[0],
			Payload: endpoint.IndexPayload(),
		}
		if err := s.index.Upsert(ctx, s.collection, []driven.Point{point}); err != nil {
			s.logger.Error("indexing endpoint failed", "endpoint", endpoint.Signature(), "error", err)
			report.Errors++
			continue
		}
		report.EndpointCount++
	}

	record := &domain.ApiDocument{
		Key:        documentKey,
		ID:         documentID,
		Title:      doc.Title,
		Version:    doc.Version,
		UploadedAt: time.Now().UTC(),
	}
	if err := s.registry.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("saving document registry entry: %w", err)
	}

	s.recordUsage(ctx, totalUsage)
	s.logger.Info("api specification ingested",
		"document_key", documentKey,
		"document_id", documentID,
		"endpoints", report.EndpointCount,
		"errors", report.Errors,
		"replaced", report.Replaced)

	return report, nil
}

func (s *apiIngestor) recordUsage(ctx context.Context, usage domain.TokenUsage) {
	if s.usage == nil || usage.TotalTokens == 0 {
		return
	}
	rec := driven.UsageRecord{
		Operation: "ingest_api",
		Usage:     usage,
		At:        time.Now().UTC(),
	}
	if err := s.usage.Record(ctx, rec); err != nil {
		s.logger.Warn("recording token usage failed", "error", err)
	}
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/groundline-labs/groundline-core/internal/core/domain"
	"github.com/groundline-labs/groundline-core/internal/core/ports/driven"
	"github.com/groundline-labs/groundline-core/internal/core/ports/driving"
	"github.com/groundline-labs/groundline-core/internal/runtime"
)

// Ensure documentIngestor implements DocumentIngestor
var _ driving.DocumentIngestor = (*documentIngestor)(nil)

// ingestLockTTL bounds how long one ingestion run may hold the lock.
const ingestLockTTL = 10 * time.Minute

// documentIngestor implements the DocumentIngestor interface:
// extract -> chunk -> embed -> upsert, one page at a time. Pages that
// fail are skipped and counted, never abort the run.
type documentIngestor struct {
	services      *runtime.Services
	index         driven.VectorIndex
	pages         driven.PageStore
	pipeline      driven.PostProcessorPipeline
	lock          driven.DistributedLock
	usage         driven.UsageRecorder
	collection    string
	defaultSource string
	logger        *slog.Logger
}

// NewDocumentIngestor creates a new DocumentIngestor
func NewDocumentIngestor(
	services *runtime.Services,
	index driven.VectorIndex,
	pages driven.PageStore,
	pipeline driven.PostProcessorPipeline,
	lock driven.DistributedLock,
	usage driven.UsageRecorder,
	collection string,
	defaultSource string,
	logger *slog.Logger,
) driving.DocumentIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentIngestor{
		services:      services,
		index:         index,
		pages:         pages,
		pipeline:      pipeline,
		lock:          lock,
		usage:         usage,
		collection:    collection,
		defaultSource: defaultSource,
		logger:        logger,
	}
}

// IngestSource ingests all pages of a source sequentially.
func (s *documentIngestor) IngestSource(ctx context.Context, sourceID string, force bool) (*domain.IngestReport, error) {
	sourceID = strings.TrimSpace(sourceID)
	if sourceID == "" {
		sourceID = s.defaultSource
	}
	if sourceID == "" {
		return nil, fmt.Errorf("source id is required: %w", domain.ErrInvalidInput)
	}

	embedder := s.services.EmbeddingService()
	if embedder == nil || !s.services.Config().CanIngest() {
		return nil, domain.ErrEmbeddingUnavailable
	}

	lockName := "ingest:source:" + sourceID
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

	if err := s.index.EnsureCollection(ctx, s.collection, embedder.Dimensions()); err != nil {
		return nil, fmt.Errorf("ensuring collection: %w", err)
	}

	pages, err := s.pages.GetBySource(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("loading pages for source %s: %w", sourceID, err)
	}

	report := &domain.IngestReport{SourceID: sourceID}
	totalUsage := domain.TokenUsage{}

	for _, page := range pages {
		indexed, err := s.index.CountByFilter(ctx, s.collection, domain.Filter{"page_id": page.ID})
		if err != nil {
			s.logger.Warn("checking existing chunks failed, re-indexing page", "page_id", page.ID, "error", err)
		}
		if indexed > 0 {
			if !force {
				report.PagesSkipped++
				continue
			}
			if _, err := s.index.DeleteByFilter(ctx, s.collection, domain.Filter{"page_id": page.ID}); err != nil {
				s.logger.Error("purging stale chunks failed", "page_id", page.ID, "error", err)
				report.Errors++
				continue
			}
		}

		created, pageUsage, err := s.ingestPage(ctx, embedder, page)
		totalUsage = totalUsage.Add(pageUsage)
		if err != nil {
			s.logger.Error("page ingestion failed", "page_id", page.ID, "error", err)
			report.Errors++
			continue
		}
		report.PagesProcessed++
		report.ChunksCreated += created
	}

	s.recordUsage(ctx, "ingest", totalUsage)
	s.logger.Info("source ingestion finished",
		"source_id", sourceID,
		"processed", report.PagesProcessed,
		"skipped", report.PagesSkipped,
		"chunks", report.ChunksCreated,
		"errors", report.Errors)

	return report, nil
}

// ingestPage chunks, embeds and indexes a single page.
func (s *documentIngestor) ingestPage(ctx context.Context, embedder driven.EmbeddingService, page *domain.Page) (int, domain.TokenUsage, error) {
	chunks := s.pipeline.Process(page.Content)
	if len(chunks) == 0 {
		return 0, domain.TokenUsage{}, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vectors, usage, err := embedder.Embed(ctx, texts)
	if err != nil {
		return 0, usage, fmt.Errorf("embedding chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return 0, usage, fmt.Errorf("embedding returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	points := make([]driven.Point, len(chunks))
	for i, c := range chunks {
		indexed := &domain.IndexedChunk{
			ID:          uuid.New().String(),
			Text:        c.Content,
			PageID:      page.ID,
			SourceID:    page.SourceID,
			SourceTitle: page.Title,
			SourceURL:   page.URL,
			ChunkIndex:  c.Position,
			TotalChunks: len(chunks),
			Vector:      vectors[i],
		}
		points[i] = driven.Point{
			ID:      indexed.ID,
			Vector:  indexed.Vector,
			Payload: indexed.IndexPayload(),
		}
	}

	if err := s.index.Upsert(ctx, s.collection, points); err != nil {
		return 0, usage, fmt.Errorf("indexing chunks: %w", err)
	}
	return len(points), usage, nil
}

func (s *documentIngestor) recordUsage(ctx context.Context, operation string, usage domain.TokenUsage) {
	if s.usage == nil || usage.TotalTokens == 0 {
		return
	}
	rec := driven.UsageRecord{
		Operation: operation,
		Usage:     usage,
		At:        time.Now().UTC(),
	}
	if err := s.usage.Record(ctx, rec); err != nil {
		s.logger.Warn("recording token usage failed", "error", err)
	}
}

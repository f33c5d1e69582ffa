package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/groundline-labs/groundline-core/internal/core/domain"
	"github.com/groundline-labs/groundline-core/internal/core/ports/driven/mocks"
	"github.com/groundline-labs/groundline-core/internal/postprocessors"
)

type ingestFixture struct {
	embedding *mocks.MockEmbeddingService
	index     *mocks.MockVectorIndex
	pages     *mocks.MockPageStore
	lock      *mocks.MockDistributedLock
	usage     *mocks.MockUsageRecorder
	svc       *documentIngestor
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()

	f := &ingestFixture{
		embedding: mocks.NewMockEmbeddingService(),
		index:     mocks.NewMockVectorIndex(),
		pages:     mocks.NewMockPageStore(),
		lock:      mocks.NewMockDistributedLock(),
		usage:     mocks.NewMockUsageRecorder(),
	}
	services := createTestServices(f.embedding, nil)
	f.svc = NewDocumentIngestor(
		services, f.index, f.pages, postprocessors.DefaultPipeline(),
		f.lock, f.usage, "content", "docs", nil,
	).(*documentIngestor)
	return f
}

func addPage(f *ingestFixture, id, sourceID string, contentLen int) {
	f.pages.AddPage(&domain.Page{
		ID:       id,
		SourceID: sourceID,
		Title:    "Page " + id,
		URL:      "https://docs.example.com/" + id,
		Content:  strings.Repeat("a", contentLen),
	})
}

func TestIngestSource(t *testing.T) {
	f := newIngestFixture(t)
	addPage(f, "p1", "docs", 2500)
	addPage(f, "p2", "docs", 400)

	report, err := f.svc.IngestSource(context.Background(), "docs", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.PagesProcessed != 2 {
		t.Errorf("expected 2 pages processed, got %d", report.PagesProcessed)
	}
	// 2500 chars chunk to 3 windows, 400 chars to 1
	if report.ChunksCreated != 4 {
		t.Errorf("expected 4 chunks, got %d", report.ChunksCreated)
	}
	if f.index.PointCount("content") != 4 {
		t.Errorf("expected 4 indexed points, got %d", f.index.PointCount("content"))
	}
	if f.lock.IsHeld("ingest:source:docs") {
		t.Error("expected the ingest lock to be released")
	}
}

func TestIngestSource_DefaultSource(t *testing.T) {
	f := newIngestFixture(t)
	addPage(f, "p1", "docs", 100)

	report, err := f.svc.IngestSource(context.Background(), "", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.SourceID != "docs" {
		t.Errorf("expected fallback to the default source, got %s", report.SourceID)
	}
}

func TestIngestSource_SkipsIndexedPages(t *testing.T) {
	f := newIngestFixture(t)
	addPage(f, "p1", "docs", 100)

	if _, err := f.svc.IngestSource(context.Background(), "docs", false); err != nil {
		t.Fatalf("first run: %v", err)
	}
	report, err := f.svc.IngestSource(context.Background(), "docs", false)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if report.PagesSkipped != 1 || report.PagesProcessed != 0 {
		t.Errorf("expected the page to be skipped, got %+v", report)
	}
}

func TestIngestSource_ForceReindexes(t *testing.T) {
	f := newIngestFixture(t)
	addPage(f, "p1", "docs", 100)

	if _, err := f.svc.IngestSource(context.Background(), "docs", false); err != nil {
		t.Fatalf("first run: %v", err)
	}
	report, err := f.svc.IngestSource(context.Background(), "docs", true)
	if err != nil {
		t.Fatalf("forced run: %v", err)
	}
	if report.PagesProcessed != 1 || report.PagesSkipped != 0 {
		t.Errorf("expected forced re-indexing, got %+v", report)
	}
	// Old chunks were purged, not duplicated
	if f.index.PointCount("content") != 1 {
		t.Errorf("expected 1 point after re-ingestion, got %d", f.index.PointCount("content"))
	}
}

func TestIngestSource_LockHeld(t *testing.T) {
	f := newIngestFixture(t)
	f.lock.Hold("ingest:source:docs")

	_, err := f.svc.IngestSource(context.Background(), "docs", false)
	if !errors.Is(err, domain.ErrIngestInProgress) {
		t.Fatalf("expected ErrIngestInProgress, got %v", err)
	}
}

func TestIngestSource_PageFailureContinues(t *testing.T) {
	f := newIngestFixture(t)
	addPage(f, "p1", "docs", 100)
	addPage(f, "p2", "docs", 100)
	f.embedding.SetFailNext(true)

	report, err := f.svc.IngestSource(context.Background(), "docs", false)
	if err != nil {
		t.Fatalf("per-page failures must not abort the run: %v", err)
	}
	if report.Errors != 1 {
		t.Errorf("expected 1 error, got %d", report.Errors)
	}
	if report.PagesProcessed != 1 {
		t.Errorf("expected the second page to be processed, got %d", report.PagesProcessed)
	}
}

func TestIngestSource_EmbeddingUnavailable(t *testing.T) {
	f := newIngestFixture(t)
	services := createTestServices(nil, nil)
	svc := NewDocumentIngestor(
		services, f.index, f.pages, postprocessors.DefaultPipeline(),
		f.lock, f.usage, "content", "docs", nil,
	)

	_, err := svc.IngestSource(context.Background(), "docs", false)
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
}

func TestIngestSource_NoSource(t *testing.T) {
	f := newIngestFixture(t)
	services := createTestServices(f.embedding, nil)
	svc := NewDocumentIngestor(
		services, f.index, f.pages, postprocessors.DefaultPipeline(),
		f.lock, f.usage, "content", "", nil,
	)

	_, err := svc.IngestSource(context.Background(), "", false)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestIngestSource_RecordsUsage(t *testing.T) {
	f := newIngestFixture(t)
	addPage(f, "p1", "docs", 1000)

	if _, err := f.svc.IngestSource(context.Background(), "docs", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	records := f.usage.Recorded()
	if len(records) != 1 || records[0].Operation != "ingest" {
		t.Fatalf("expected one ingest usage record, got %+v", records)
	}
}

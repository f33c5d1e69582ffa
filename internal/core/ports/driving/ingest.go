package driving

import (
	"context"

	"github.com/groundline-labs/groundline-core/internal/core/domain"
)

// DocumentIngestor indexes documentation pages: extract -> chunk ->
// embed -> upsert, sequentially, with per-page failures skipped.
type DocumentIngestor interface {
	// IngestSource ingests all pages of a source. An empty sourceID
	// falls back to the configured default source. With force set,
	// already-indexed pages are purged and re-indexed; otherwise they
	// are skipped.
	IngestSource(ctx context.Context, sourceID string, force bool) (*domain.IngestReport, error)
}

// ApiIngestor indexes an uploaded API specification: parse -> flatten
// schemas -> embed -> upsert. Re-uploading a documentKey replaces the
// previous upload's endpoints.
type ApiIngestor interface {
	// IngestSpec parses and indexes a raw OpenAPI document. Format is
	// "json", "yaml", or "" to sniff.
	IngestSpec(ctx context.Context, documentKey string, raw []byte, format string) (*domain.ApiIngestReport, error)
}

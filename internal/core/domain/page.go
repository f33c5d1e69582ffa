package domain

import "time"

// Page is one documentation page awaiting (or already past) indexing.
// Pages are loaded into the relational store by external collaborators;
// ingestion only reads them.
type Page struct {
	// ID is the page's stable external identifier. Re-ingestion
	// supersedes all chunks carrying this ID, it never mutates them.
	ID        string    `json:"id"`
	SourceID  string    `json:"source_id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Content   string    `json:"content"`
	FetchedAt time.Time `json:"fetched_at"`
}

// IndexedChunk is the unit of vector indexing for free-text pages.
// Immutable once stored. ChunkIndex is contiguous 0..TotalChunks-1
// for a given page at any point in time.
type IndexedChunk struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	PageID      string    `json:"page_id"`
	SourceID    string    `json:"source_id"`
	SourceTitle string    `json:"source_title"`
	SourceURL   string    `json:"source_url"`
	ChunkIndex  int       `json:"chunk_index"`
	TotalChunks int       `json:"total_chunks"`
	Vector      []float32 `json:"-"`
}

// IndexPayload builds the metadata stored alongside the chunk's vector.
func (c *IndexedChunk) IndexPayload() map[string]any {
	return map[string]any{
		PayloadKind:      KindChunk,
		PayloadFilterKey: c.SourceID,
		"text":           c.Text,
		"page_id":        c.PageID,
		"source_id":      c.SourceID,
		"title":          c.SourceTitle,
		"url":            c.SourceURL,
		"chunk_index":    c.ChunkIndex,
		"total_chunks":   c.TotalChunks,
	}
}

// IngestReport summarises one document-ingestion run. Per-page
// failures are counted here, never surfaced individually.
type IngestReport struct {
	SourceID       string `json:"source_id"`
	PagesProcessed int    `json:"pages_processed"`
	PagesSkipped   int    `json:"pages_skipped"`
	ChunksCreated  int    `json:"chunks_created"`
	Errors         int    `json:"errors"`
}

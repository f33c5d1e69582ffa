package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/groundline-labs/groundline-core/internal/core/domain"
	"github.com/groundline-labs/groundline-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.PageStore = (*PageStore)(nil)

// PageStore implements driven.PageStore using PostgreSQL
type PageStore struct {
	db *DB
}

// NewPageStore creates a new PageStore
func NewPageStore(db *DB) *PageStore {
	return &PageStore{db: db}
}

// Get retrieves a page by its stable external identifier
func (s *PageStore) Get(ctx context.Context, id string) (*domain.Page, error) {
	query := `
		SELECT id, source_id, title, url, content, fetched_at
		FROM pages
		WHERE id = $1
	`

	var page domain.Page
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&page.ID,
		&page.SourceID,
		&page.Title,
		&page.URL,
		&page.Content,
		&page.FetchedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("page %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get page: %w", err)
	}

	return &page, nil
}

// GetBySource retrieves all pages of a source, ordered by id for a
// stable ingestion order across runs.
func (s *PageStore) GetBySource(ctx context.Context, sourceID string) ([]*domain.Page, error) {
	query := `
		SELECT id, source_id, title, url, content, fetched_at
		FROM pages
		WHERE source_id = $1
		ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query, sourceID)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	var pages []*domain.Page
	for rows.Next() {
		var page domain.Page
		if err := rows.Scan(
			&page.ID,
			&page.SourceID,
			&page.Title,
			&page.URL,
			&page.Content,
			&page.FetchedAt,
		); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		pages = append(pages, &page)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pages: %w", err)
	}

	return pages, nil
}

// CountBySource returns the page count for a source
func (s *PageStore) CountBySource(ctx context.Context, sourceID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pages WHERE source_id = $1`, sourceID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pages: %w", err)
	}
	return count, nil
}

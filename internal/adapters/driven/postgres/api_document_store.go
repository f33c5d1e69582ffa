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
var _ driven.ApiDocumentStore = (*ApiDocumentStore)(nil)

// ApiDocumentStore implements driven.ApiDocumentStore using PostgreSQL
type ApiDocumentStore struct {
	db *DB
}

// NewApiDocumentStore creates a new ApiDocumentStore
func NewApiDocumentStore(db *DB) *ApiDocumentStore {
	return &ApiDocumentStore{db: db}
}

// Get retrieves a document by key
func (s *ApiDocumentStore) Get(ctx context.Context, key string) (*domain.ApiDocument, error) {
	query := `
		SELECT document_key, document_id, title, version, uploaded_at
		FROM api_documents
		WHERE document_key = $1
	`

	var doc domain.ApiDocument
	err := s.db.QueryRowContext(ctx, query, key).Scan(
		&doc.Key,
		&doc.ID,
		&doc.Title,
		&doc.Version,
		&doc.UploadedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("api document %s: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get api document: %w", err)
	}

	return &doc, nil
}

// Save creates or replaces the registry entry for a key
func (s *ApiDocumentStore) Save(ctx context.Context, doc *domain.ApiDocument) error {
	query := `
		INSERT INTO api_documents (document_key, document_id, title, version, uploaded_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (document_key) DO UPDATE SET
			document_id = EXCLUDED.document_id,
			title = EXCLUDED.title,
			version = EXCLUDED.version,
			uploaded_at = EXCLUDED.uploaded_at
	`

	_, err := s.db.ExecContext(ctx, query,
		doc.Key, doc.ID, doc.Title, doc.Version, doc.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("save api document: %w", err)
	}
	return nil
}

// Delete removes the registry entry for a key
func (s *ApiDocumentStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM api_documents WHERE document_key = $1`, key,
	)
	if err != nil {
		return fmt.Errorf("delete api document: %w", err)
	}
	return nil
}

// List returns all registered documents, newest upload first
func (s *ApiDocumentStore) List(ctx context.Context) ([]*domain.ApiDocument, error) {
	query := `
		SELECT document_key, document_id, title, version, uploaded_at
		FROM api_documents
		ORDER BY uploaded_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list api documents: %w", err)
	}
	defer rows.Close()

	var docs []*domain.ApiDocument
	for rows.Next() {
		var doc domain.ApiDocument
		if err := rows.Scan(&doc.Key, &doc.ID, &doc.Title, &doc.Version, &doc.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan api document: %w", err)
		}
		docs = append(docs, &doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate api documents: %w", err)
	}

	return docs, nil
}

package driven

import (
	"context"
	"time"

	"github.com/groundline-labs/groundline-core/internal/core/domain"
)

// PageStore reads documentation pages staged for ingestion (PostgreSQL).
// Writing pages is owned by external collaborators.
type PageStore interface {
	// Get retrieves a page by its stable external identifier
	Get(ctx context.Context, id string) (*domain.Page, error)

	// GetBySource retrieves all pages of a source in stable order
	GetBySource(ctx context.Context, sourceID string) ([]*domain.Page, error)

	// CountBySource returns the page count for a source
	CountBySource(ctx context.Context, sourceID string) (int, error)
}

// ConversationStore reads prior turns of a conversation as a plain
// ordered list. Conversation persistence itself is an external
// collaborator's concern.
type ConversationStore interface {
	// History returns up to limit trailing turns, oldest first
	History(ctx context.Context, conversationID string, limit int) ([]domain.ConversationTurn, error)
}

// UsageRecord is one token-usage ledger entry.
type UsageRecord struct {
	ConversationID string
	Operation      string // "query", "ingest", "ingest_api"
	Usage          domain.TokenUsage
	At             time.Time
}

// UsageRecorder reports token-usage counters upward. Failures must
// never fail the operation that produced the usage.
type UsageRecorder interface {
	Record(ctx context.Context, rec UsageRecord) error
}

// ApiDocumentStore persists the documentKey -> documentId registry
// that backs replace-on-reupload semantics (PostgreSQL).
type ApiDocumentStore interface {
	// Get retrieves a document by key; domain.ErrNotFound when absent
	Get(ctx context.Context, key string) (*domain.ApiDocument, error)

	// Save creates or replaces the registry entry for a key
	Save(ctx context.Context, doc *domain.ApiDocument) error

	// Delete removes the registry entry for a key
	Delete(ctx context.Context, key string) error

	// List returns all registered documents
	List(ctx context.Context) ([]*domain.ApiDocument, error)
}

// SettingsStore persists service settings (PostgreSQL, API keys
// encrypted at rest).
type SettingsStore interface {
	// GetSettings retrieves the current settings; defaults when unset
	GetSettings(ctx context.Context) (*domain.Settings, error)

	// SaveSettings persists settings
	SaveSettings(ctx context.Context, settings *domain.Settings) error
}

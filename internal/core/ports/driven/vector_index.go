package driven

import (
	"context"

	"github.com/groundline-labs/groundline-core/internal/core/domain"
)

// Point is one vector with its metadata payload, ready for indexing.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// VectorIndex stores vectors with arbitrary metadata and answers
// k-nearest-neighbor queries with optional metadata filters (Qdrant).
type VectorIndex interface {
	// EnsureCollection creates the collection if it does not exist
	EnsureCollection(ctx context.Context, collection string, dimensions int) error

	// Upsert inserts or replaces points
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search returns up to limit items ranked by descending similarity.
	// A nil filter matches everything.
	Search(ctx context.Context, collection string, vector []float32, limit int, filter domain.Filter) ([]domain.RetrievedItem, error)

	// DeleteByFilter removes all points matching the filter and
	// returns how many were removed
	DeleteByFilter(ctx context.Context, collection string, filter domain.Filter) (int, error)

	// CountByFilter returns the number of points matching the filter
	CountByFilter(ctx context.Context, collection string, filter domain.Filter) (int, error)

	// HealthCheck verifies the index is reachable
	HealthCheck(ctx context.Context) error
}

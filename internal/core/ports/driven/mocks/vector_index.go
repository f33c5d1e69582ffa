package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/groundline-labs/groundline-core/internal/core/domain"
	"github.com/groundline-labs/groundline-core/internal/core/ports/driven"
)

// MockVectorIndex is an in-memory mock implementation of VectorIndex
// for testing. Search returns scripted results when set, otherwise all
// stored points are returned with a constant score.
type MockVectorIndex struct {
	mu          sync.Mutex
	collections map[string]int
	points      map[string]map[string]storedPoint // collection -> id -> point

	// ScriptedResults, when non-nil, is returned by Search verbatim
	// (truncated to limit). Scores are taken as given.
	ScriptedResults []domain.RetrievedItem

	// DefaultScore is the score assigned to stored points when no
	// scripted results are set
	DefaultScore float64

	// SearchHook, when set, runs at the start of every Search call.
	// Tests use it to mutate state between retrieval and generation.
	SearchHook func()

	failNext bool

	// Captured inputs for assertions
	SearchCalls  int
	LastLimit    int
	LastFilter   domain.Filter
	LastVector   []float32
	UpsertCalls  int
	DeletedCount int
}

type storedPoint struct {
	vector  []float32
	payload map[string]any
}

// NewMockVectorIndex creates a new MockVectorIndex
func NewMockVectorIndex() *MockVectorIndex {
	return &MockVectorIndex{
		collections:  make(map[string]int),
		points:       make(map[string]map[string]storedPoint),
		DefaultScore: 0.9,
	}
}

func (m *MockVectorIndex) EnsureCollection(ctx context.Context, collection string, dimensions int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[collection]; !ok {
		m.collections[collection] = dimensions
		m.points[collection] = make(map[string]storedPoint)
	}
	return nil
}

func (m *MockVectorIndex) Upsert(ctx context.Context, collection string, points []driven.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return context.DeadlineExceeded
	}
	if m.points[collection] == nil {
		m.points[collection] = make(map[string]storedPoint)
	}
	for _, p := range points {
		m.points[collection][p.ID] = storedPoint{vector: p.Vector, payload: p.Payload}
	}
	m.UpsertCalls++
	return nil
}

func (m *MockVectorIndex) Search(ctx context.Context, collection string, vector []float32, limit int, filter domain.Filter) ([]domain.RetrievedItem, error) {
	if m.SearchHook != nil {
		m.SearchHook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SearchCalls++
	m.LastLimit = limit
	m.LastFilter = filter
	m.LastVector = vector

	if m.failNext {
		m.failNext = false
		return nil, context.DeadlineExceeded
	}

	if m.ScriptedResults != nil {
		items := m.ScriptedResults
		if len(items) > limit {
			items = items[:limit]
		}
		out := make([]domain.RetrievedItem, len(items))
		copy(out, items)
		return out, nil
	}

	var items []domain.RetrievedItem
	for id, p := range m.points[collection] {
		if !matchesFilter(p.payload, filter) {
			continue
		}
		items = append(items, domain.RetrievedItem{ID: id, Score: m.DefaultScore, Payload: p.payload})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *MockVectorIndex) DeleteByFilter(ctx context.Context, collection string, filter domain.Filter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, p := range m.points[collection] {
		if matchesFilter(p.payload, filter) {
			delete(m.points[collection], id)
			removed++
		}
	}
	m.DeletedCount += removed
	return removed, nil
}

func (m *MockVectorIndex) CountByFilter(ctx context.Context, collection string, filter domain.Filter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, p := range m.points[collection] {
		if matchesFilter(p.payload, filter) {
			count++
		}
	}
	return count, nil
}

func (m *MockVectorIndex) HealthCheck(ctx context.Context) error {
	return nil
}

// PointCount returns the number of stored points in a collection
func (m *MockVectorIndex) PointCount(collection string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.points[collection])
}

func (m *MockVectorIndex) SetFailNext(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = fail
}

func matchesFilter(payload map[string]any, filter domain.Filter) bool {
	for k, want := range filter {
		got, ok := payload[k].(string)
		if !ok || got != want {
			return false
		}
	}
	return true
}

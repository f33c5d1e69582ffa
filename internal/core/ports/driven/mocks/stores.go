package mocks

import (
	"context"
	"sync"

	"github.com/groundline-labs/groundline-core/internal/core/domain"
	"github.com/groundline-labs/groundline-core/internal/core/ports/driven"
)

// MockPageStore is an in-memory mock implementation of PageStore
type MockPageStore struct {
	mu    sync.Mutex
	pages map[string]*domain.Page
	order []string
}

// NewMockPageStore creates a new MockPageStore
func NewMockPageStore() *MockPageStore {
	return &MockPageStore{pages: make(map[string]*domain.Page)}
}

// AddPage stores a page for later retrieval
func (m *MockPageStore) AddPage(page *domain.Page) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pages[page.ID]; !ok {
		m.order = append(m.order, page.ID)
	}
	m.pages[page.ID] = page
}

func (m *MockPageStore) Get(ctx context.Context, id string) (*domain.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	page, ok := m.pages[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return page, nil
}

func (m *MockPageStore) GetBySource(ctx context.Context, sourceID string) ([]*domain.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Page
	for _, id := range m.order {
		if m.pages[id].SourceID == sourceID {
			out = append(out, m.pages[id])
		}
	}
	return out, nil
}

func (m *MockPageStore) CountBySource(ctx context.Context, sourceID string) (int, error) {
	pages, _ := m.GetBySource(ctx, sourceID)
	return len(pages), nil
}

// MockConversationStore is an in-memory mock implementation of ConversationStore
type MockConversationStore struct {
	mu    sync.Mutex
	turns map[string][]domain.ConversationTurn
}

// NewMockConversationStore creates a new MockConversationStore
func NewMockConversationStore() *MockConversationStore {
	return &MockConversationStore{turns: make(map[string][]domain.ConversationTurn)}
}

// AddTurn appends a turn to a conversation
func (m *MockConversationStore) AddTurn(conversationID string, turn domain.ConversationTurn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns[conversationID] = append(m.turns[conversationID], turn)
}

func (m *MockConversationStore) History(ctx context.Context, conversationID string, limit int) ([]domain.ConversationTurn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	turns := m.turns[conversationID]
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	out := make([]domain.ConversationTurn, len(turns))
	copy(out, turns)
	return out, nil
}

// MockApiDocumentStore is an in-memory mock implementation of ApiDocumentStore
type MockApiDocumentStore struct {
	mu   sync.Mutex
	docs map[string]*domain.ApiDocument
}

// NewMockApiDocumentStore creates a new MockApiDocumentStore
func NewMockApiDocumentStore() *MockApiDocumentStore {
	return &MockApiDocumentStore{docs: make(map[string]*domain.ApiDocument)}
}

func (m *MockApiDocumentStore) Get(ctx context.Context, key string) (*domain.ApiDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

func (m *MockApiDocumentStore) Save(ctx context.Context, doc *domain.ApiDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.Key] = doc
	return nil
}

func (m *MockApiDocumentStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, key)
	return nil
}

func (m *MockApiDocumentStore) List(ctx context.Context) ([]*domain.ApiDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.ApiDocument, 0, len(m.docs))
	for _, doc := range m.docs {
		out = append(out, doc)
	}
	return out, nil
}

// MockUsageRecorder is an in-memory mock implementation of UsageRecorder
type MockUsageRecorder struct {
	mu      sync.Mutex
	Records []driven.UsageRecord

	failAlways bool
}

// NewMockUsageRecorder creates a new MockUsageRecorder
func NewMockUsageRecorder() *MockUsageRecorder {
	return &MockUsageRecorder{}
}

func (m *MockUsageRecorder) Record(ctx context.Context, rec driven.UsageRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAlways {
		return context.DeadlineExceeded
	}
	m.Records = append(m.Records, rec)
	return nil
}

// Recorded returns a copy of the recorded entries
func (m *MockUsageRecorder) Recorded() []driven.UsageRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]driven.UsageRecord, len(m.Records))
	copy(out, m.Records)
	return out
}

func (m *MockUsageRecorder) SetFailAlways(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAlways = fail
}

// MockSettingsStore is an in-memory mock implementation of SettingsStore
type MockSettingsStore struct {
	mu       sync.Mutex
	settings *domain.Settings
}

// NewMockSettingsStore creates a new MockSettingsStore
func NewMockSettingsStore() *MockSettingsStore {
	return &MockSettingsStore{}
}

func (m *MockSettingsStore) GetSettings(ctx context.Context) (*domain.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settings == nil {
		return domain.DefaultSettings(), nil
	}
	return m.settings, nil
}

func (m *MockSettingsStore) SaveSettings(ctx context.Context, settings *domain.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = settings
	return nil
}

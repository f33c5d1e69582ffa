package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/groundline-labs/groundline-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.UsageRecorder = (*UsageStore)(nil)

// UsageStore implements driven.UsageRecorder using PostgreSQL
type UsageStore struct {
	db *DB
}

// NewUsageStore creates a new UsageStore
func NewUsageStore(db *DB) *UsageStore {
	return &UsageStore{db: db}
}

// Record appends one token-usage ledger entry
func (s *UsageStore) Record(ctx context.Context, rec driven.UsageRecord) error {
	at := rec.At
	if at.IsZero() {
		at = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO usage_log (conversation_id, operation, prompt_tokens, completion_tokens, total_tokens, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ConversationID,
		rec.Operation,
		rec.Usage.PromptTokens,
		rec.Usage.CompletionTokens,
		rec.Usage.TotalTokens,
		at,
	)
	if err != nil {
		return fmt.Errorf("record usage: %w", err)
	}
	return nil
}

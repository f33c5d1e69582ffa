package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/groundline-labs/groundline-core/internal/core/domain"
	"github.com/groundline-labs/groundline-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ConversationStore = (*ConversationStore)(nil)

// ConversationStore implements driven.ConversationStore using PostgreSQL
type ConversationStore struct {
	db *DB
}

// NewConversationStore creates a new ConversationStore
func NewConversationStore(db *DB) *ConversationStore {
	return &ConversationStore{db: db}
}

// History returns up to limit trailing turns of a conversation, oldest
// first. An unknown conversation yields an empty history, not an error.
func (s *ConversationStore) History(ctx context.Context, conversationID string, limit int) ([]domain.ConversationTurn, error) {
	// Fetch the trailing window newest-first, then reverse.
	query := `
		SELECT role, content
		FROM conversation_messages
		WHERE conversation_id = $1
		ORDER BY id DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	var turns []domain.ConversationTurn
	for rows.Next() {
		var turn domain.ConversationTurn
		if err := rows.Scan(&turn.Role, &turn.Content); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}

	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}

	return turns, nil
}

// AppendTurn records one turn at the end of a conversation.
func (s *ConversationStore) AppendTurn(ctx context.Context, conversationID string, turn domain.ConversationTurn) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversation_messages (conversation_id, role, content, created_at)
		 VALUES ($1, $2, $3, $4)`,
		conversationID, string(turn.Role), turn.Content, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

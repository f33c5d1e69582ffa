package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/groundline-labs/groundline-core/internal/core/domain"
	"github.com/groundline-labs/groundline-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SettingsStore = (*SettingsStore)(nil)

// SettingsStore implements driven.SettingsStore using PostgreSQL.
// API keys are encrypted with the SecretEncryptor before they touch
// the database; everything else is stored in plain columns.
type SettingsStore struct {
	db        *DB
	encryptor *SecretEncryptor
}

// NewSettingsStore creates a new SettingsStore
func NewSettingsStore(db *DB, encryptor *SecretEncryptor) *SettingsStore {
	return &SettingsStore{db: db, encryptor: encryptor}
}

// GetSettings retrieves the current settings, or defaults when the
// service has never been configured.
func (s *SettingsStore) GetSettings(ctx context.Context) (*domain.Settings, error) {
	query := `
		SELECT embedding_provider, embedding_model, embedding_api_key, embedding_base_url,
			   llm_provider, llm_model, llm_api_key, llm_base_url,
			   min_score, score_floor, step_down, context_limit, overfetch,
			   updated_at
		FROM settings
		WHERE id = 1
	`

	var (
		settings   domain.Settings
		embKeyBlob []byte
		llmKeyBlob []byte
	)

	err := s.db.QueryRowContext(ctx, query).Scan(
		&settings.Embedding.Provider,
		&settings.Embedding.Model,
		&embKeyBlob,
		&settings.Embedding.BaseURL,
		&settings.LLM.Provider,
		&settings.LLM.Model,
		&llmKeyBlob,
		&settings.LLM.BaseURL,
		&settings.Retrieval.MinScore,
		&settings.Retrieval.Floor,
		&settings.Retrieval.StepDown,
		&settings.Retrieval.ContextLimit,
		&settings.Retrieval.Overfetch,
		&settings.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DefaultSettings(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	if settings.Embedding.APIKey, err = s.decryptKey(embKeyBlob); err != nil {
		return nil, fmt.Errorf("decrypt embedding key: %w", err)
	}
	if settings.LLM.APIKey, err = s.decryptKey(llmKeyBlob); err != nil {
		return nil, fmt.Errorf("decrypt llm key: %w", err)
	}

	return &settings, nil
}

// SaveSettings persists settings
func (s *SettingsStore) SaveSettings(ctx context.Context, settings *domain.Settings) error {
	embKeyBlob, err := s.encryptKey(settings.Embedding.APIKey)
	if err != nil {
		return fmt.Errorf("encrypt embedding key: %w", err)
	}
	llmKeyBlob, err := s.encryptKey(settings.LLM.APIKey)
	if err != nil {
		return fmt.Errorf("encrypt llm key: %w", err)
	}

	settings.UpdatedAt = time.Now()

	query := `
		INSERT INTO settings (id, embedding_provider, embedding_model, embedding_api_key, embedding_base_url,
							  llm_provider, llm_model, llm_api_key, llm_base_url,
							  min_score, score_floor, step_down, context_limit, overfetch,
							  updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			embedding_provider = EXCLUDED.embedding_provider,
			embedding_model = EXCLUDED.embedding_model,
			embedding_api_key = EXCLUDED.embedding_api_key,
			embedding_base_url = EXCLUDED.embedding_base_url,
			llm_provider = EXCLUDED.llm_provider,
			llm_model = EXCLUDED.llm_model,
			llm_api_key = EXCLUDED.llm_api_key,
			llm_base_url = EXCLUDED.llm_base_url,
			min_score = EXCLUDED.min_score,
			score_floor = EXCLUDED.score_floor,
			step_down = EXCLUDED.step_down,
			context_limit = EXCLUDED.context_limit,
			overfetch = EXCLUDED.overfetch,
			updated_at = EXCLUDED.updated_at
	`

	_, err = s.db.ExecContext(ctx, query,
		string(settings.Embedding.Provider),
		settings.Embedding.Model,
		embKeyBlob,
		settings.Embedding.BaseURL,
		string(settings.LLM.Provider),
		settings.LLM.Model,
		llmKeyBlob,
		settings.LLM.BaseURL,
		settings.Retrieval.MinScore,
		settings.Retrieval.Floor,
		settings.Retrieval.StepDown,
		settings.Retrieval.ContextLimit,
		settings.Retrieval.Overfetch,
		settings.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (s *SettingsStore) encryptKey(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	return s.encryptor.EncryptString(key)
}

func (s *SettingsStore) decryptKey(blob []byte) (string, error) {
	if len(blob) == 0 {
		return "", nil
	}
	return s.encryptor.DecryptString(blob)
}

package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"bossai/internal/infra"
	"bossai/internal/sqlinline"
)

// Store persists provider API keys in the database. Environment variables
// take precedence at startup; the table is the fallback for deployments
// that rotate keys at runtime through the providerkey CLI.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// APIKey returns the stored key for a provider, empty when none is set.
func (s *Store) APIKey(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectProviderCredential, provider)
	var key string
	var props json.RawMessage
	if err := row.Scan(&key, &props); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(key), nil
}

// SetAPIKey stores or replaces the key for a provider.
func (s *Store) SetAPIKey(ctx context.Context, provider, key string) error {
	return s.upsert(ctx, provider, key, nil)
}

func (s *Store) upsert(ctx context.Context, provider, key string, props map[string]any) error {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return errors.New("provider is required")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("api key is required")
	}
	payload := props
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertProviderCredential, provider, key, raw)
	return err
}

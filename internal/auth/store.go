package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/stock-relay/internal/model"
)

// ErrClientNotFound is returned when no client holds the given key.
var ErrClientNotFound = errors.New("client not found")

// ClientStore looks up client records by API key.
type ClientStore interface {
	FindByAPIKey(ctx context.Context, apiKey string) (model.ClientRecord, error)
}

// Querier is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const findByAPIKeySQL = `
SELECT id, name, api_key, is_active, created_at
FROM clients
WHERE api_key = $1`

// PGClientStore reads client records from PostgreSQL.
type PGClientStore struct {
	db Querier
}

// NewPGClientStore creates a store backed by db.
func NewPGClientStore(db Querier) *PGClientStore {
	return &PGClientStore{db: db}
}

// FindByAPIKey returns the client holding apiKey.
func (s *PGClientStore) FindByAPIKey(ctx context.Context, apiKey string) (model.ClientRecord, error) {
	var c model.ClientRecord
	err := s.db.QueryRow(ctx, findByAPIKeySQL, apiKey).Scan(
		&c.ID,
		&c.Name,
		&c.APIKey,
		&c.IsActive,
		&c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ClientRecord{}, ErrClientNotFound
	}
	if err != nil {
		return model.ClientRecord{}, fmt.Errorf("query client: %w", err)
	}
	return c, nil
}

package eod

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/rickgao/stock-relay/internal/model"
)

// PriceStore reads historical prices.
type PriceStore interface {
	// FindPrices returns up to limit records matching ticker and date exactly.
	FindPrices(ctx context.Context, ticker string, date time.Time, limit int) ([]model.PriceRecord, error)
}

// Querier is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const findPricesSQL = `
SELECT ticker, recorded_at, close_price::text
FROM historical_prices
WHERE ticker = $1 AND recorded_at = $2::date
LIMIT $3`

// PGPriceStore reads the historical_prices table.
type PGPriceStore struct {
	db Querier
}

// NewPGPriceStore creates a store backed by db.
func NewPGPriceStore(db Querier) *PGPriceStore {
	return &PGPriceStore{db: db}
}

// FindPrices implements PriceStore.
func (s *PGPriceStore) FindPrices(ctx context.Context, ticker string, date time.Time, limit int) ([]model.PriceRecord, error) {
	rows, err := s.db.Query(ctx, findPricesSQL, ticker, model.Day(date), limit)
	if err != nil {
		return nil, fmt.Errorf("query prices: %w", err)
	}
	defer rows.Close()

	var out []model.PriceRecord
	for rows.Next() {
		var (
			rec   model.PriceRecord
			price string
		)
		if err := rows.Scan(&rec.Ticker, &rec.Date, &price); err != nil {
			return nil, fmt.Errorf("scan price row: %w", err)
		}
		rec.ClosePrice, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("parse close_price %q: %w", price, err)
		}
		rec.Date = model.Day(rec.Date)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read price rows: %w", err)
	}
	return out, nil
}

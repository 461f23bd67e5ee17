package eod

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rickgao/stock-relay/internal/model"
)

// Lookup errors.
var (
	ErrNotFound        = errors.New("price record not found")
	ErrDuplicateRecord = errors.New("multiple price records for one ticker and date")
)

// Service answers point lookups of closing prices.
type Service struct {
	store  PriceStore
	logger *slog.Logger
}

// NewService creates a lookup service.
func NewService(store PriceStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// Lookup returns the single record for ticker on date.
// date must already be a valid calendar date.
func (s *Service) Lookup(ctx context.Context, ticker string, date time.Time) (model.PriceRecord, error) {
	date = model.Day(date)

	records, err := s.store.FindPrices(ctx, ticker, date, 2)
	if err != nil {
		return model.PriceRecord{}, fmt.Errorf("lookup %s on %s: %w", ticker, model.FormatDate(date), err)
	}

	switch len(records) {
	case 0:
		return model.PriceRecord{}, ErrNotFound
	case 1:
		return records[0], nil
	default:
		s.logger.Error("duplicate price records",
			"ticker", ticker,
			"date", model.FormatDate(date),
			"rows", len(records),
		)
		return model.PriceRecord{}, fmt.Errorf("%w: %s on %s", ErrDuplicateRecord, ticker, model.FormatDate(date))
	}
}

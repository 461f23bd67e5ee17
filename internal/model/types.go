package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the ISO-8601 calendar date layout used on the wire and in SQL.
const DateLayout = "2006-01-02"

// ErrInvalidDate is returned by ParseDate for anything that is not YYYY-MM-DD.
var ErrInvalidDate = errors.New("invalid date format, use YYYY-MM-DD")

// -----------------------------------------------------------------------------
// Relational Types
// -----------------------------------------------------------------------------

// ClientRecord is a named API credential holder.
type ClientRecord struct {
	ID        int64     // Primary key
	Name      string    // Display name
	APIKey    string    // Credential string, unique across clients
	IsActive  bool      // Inactive clients are rejected
	CreatedAt time.Time // Creation time
}

// PriceRecord is an end-of-day closing price for one ticker on one date.
type PriceRecord struct {
	Ticker     string          // e.g. "OGDC"
	Date       time.Time       // Calendar date (midnight UTC)
	ClosePrice decimal.Decimal // Closing price
}

// -----------------------------------------------------------------------------
// Dates
// -----------------------------------------------------------------------------

// ParseDate parses a strict YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	if len(s) != len(DateLayout) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	d, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

// FormatDate formats a calendar date as YYYY-MM-DD.
func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// Day truncates t to its calendar date in t's location and returns it as midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

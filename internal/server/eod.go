package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rickgao/stock-relay/internal/auth"
	"github.com/rickgao/stock-relay/internal/eod"
	"github.com/rickgao/stock-relay/internal/model"
)

// EODResponse is the body of a successful GET /api/eod.
type EODResponse struct {
	Ticker string  `json:"ticker"`
	Date   string  `json:"date"`
	Price  float64 `json:"price"`
}

// handleEOD serves GET /api/eod?ticker=XXX&date=YYYY-MM-DD.
// Input is validated before any store is touched.
func (s *Server) handleEOD(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	date, err := model.ParseDate(q.Get("date"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date format. Use YYYY-MM-DD")
		return
	}
	ticker := strings.TrimSpace(q.Get("ticker"))
	if ticker == "" {
		respondError(w, http.StatusBadRequest, "ticker query parameter is required")
		return
	}

	// Header only: keys in URLs end up in access logs.
	credential := auth.FromRequest(r, s.cfg.AuthHeader, "")
	ok, err := s.deps.Validator.Validate(r.Context(), credential)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Could not validate credentials")
		return
	}
	if !ok {
		respondError(w, http.StatusForbidden, "Could not validate credentials")
		return
	}

	rec, err := s.deps.Prices.Lookup(r.Context(), ticker, date)
	switch {
	case errors.Is(err, eod.ErrNotFound):
		respondError(w, http.StatusNotFound, fmt.Sprintf("No data found for %s on %s", ticker, model.FormatDate(date)))
		return
	case err != nil:
		s.logger.Error("eod lookup failed", "ticker", ticker, "date", model.FormatDate(date), "error", err)
		respondError(w, http.StatusInternalServerError, "Database connection failed")
		return
	}

	respondJSON(w, http.StatusOK, EODResponse{
		Ticker: rec.Ticker,
		Date:   model.FormatDate(rec.Date),
		Price:  rec.ClosePrice.InexactFloat64(),
	})
}

package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// Validator checks caller credentials against a ClientStore.
type Validator struct {
	store  ClientStore
	logger *slog.Logger
}

// NewValidator creates a Validator.
func NewValidator(store ClientStore, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{store: store, logger: logger}
}

// Validate reports whether credential belongs to an active client.
//
// Unknown and inactive credentials both yield (false, nil). The error is non-nil
// only when the store itself failed, so callers can tell "denied" from "could not check".
func (v *Validator) Validate(ctx context.Context, credential string) (bool, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return false, nil
	}

	client, err := v.store.FindByAPIKey(ctx, credential)
	if errors.Is(err, ErrClientNotFound) {
		return false, nil
	}
	if err != nil {
		v.logger.Error("api key lookup failed", "error", err)
		return false, err
	}

	match := subtle.ConstantTimeCompare([]byte(client.APIKey), []byte(credential)) == 1
	return match && client.IsActive, nil
}

// FromRequest extracts a credential from header, falling back to queryParam.
// An empty queryParam disables the fallback.
func FromRequest(r *http.Request, header, queryParam string) string {
	if key := strings.TrimSpace(r.Header.Get(header)); key != "" {
		return key
	}
	if queryParam == "" {
		return ""
	}
	return strings.TrimSpace(r.URL.Query().Get(queryParam))
}

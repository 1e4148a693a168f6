// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

package auth

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/sentinelai/sentinel/internal/config"
	"github.com/sentinelai/sentinel/internal/database"
	"github.com/sentinelai/sentinel/internal/logging"
	"github.com/sentinelai/sentinel/internal/metrics"
	"github.com/sentinelai/sentinel/internal/models"
)

// KeyStore is the subset of the database layer needed to authenticate keys.
type KeyStore interface {
	GetAPIKeyByPrefix(ctx context.Context, prefix string) (*models.APIKey, error)
	TouchAPIKey(ctx context.Context, id int64, remoteIP string) error
}

type principalContextKey struct{}

// ContextWithPrincipal stores the authenticated principal in the context.
func ContextWithPrincipal(ctx context.Context, p *models.APIKeyPrincipal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (*models.APIKeyPrincipal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(*models.APIKeyPrincipal)
	return p, ok
}

// DevBypassPrincipal is attached to requests when key enforcement is off.
func DevBypassPrincipal() *models.APIKeyPrincipal {
	return &models.APIKeyPrincipal{
		Email: "dev-bypass",
		KeyID: "development",
		Label: "bypass",
	}
}

// Authenticator validates API keys on incoming requests.
type Authenticator struct {
	store KeyStore
	cfg   *config.Config
}

// NewAuthenticator builds an Authenticator backed by the given key store.
func NewAuthenticator(store KeyStore, cfg *config.Config) *Authenticator {
	return &Authenticator{store: store, cfg: cfg}
}

// RequireAPIKey enforces API key authentication on the wrapped handler.
// When enforcement is disabled a development bypass principal is attached
// so downstream handlers always see a principal.
func (a *Authenticator) RequireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.cfg.Security.RequireAPIKey {
			ctx := ContextWithPrincipal(r.Context(), DevBypassPrincipal())
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		principal, code, status := a.authenticate(r)
		if principal == nil {
			metrics.AuthFailures.WithLabelValues(code.code).Inc()
			logging.Ctx(r.Context()).Warn().
				Str("code", code.code).
				Str("path", r.URL.Path).
				Msg("api key authentication failed")
			writeAuthError(w, status, code)
			return
		}

		ctx := ContextWithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authError pairs a machine-readable code with a human message.
type authError struct {
	code    string
	message string
}

var (
	errKeyMissing = authError{"api_key_missing", "API key required. Set the " + APIKeyHeader + " header."}
	errKeyTest    = authError{"api_key_test_only", "Test API keys are not accepted in this environment."}
	errKeyInvalid = authError{"api_key_invalid", "API key is not valid."}
	errKeyRevoked = authError{"api_key_revoked", "API key has been revoked."}
	errKeyExpired = authError{"api_key_expired", "API key has expired."}
	errMisconfig  = authError{"api_key_misconfigured", "API key verification is not configured on the server."}
)

func (a *Authenticator) authenticate(r *http.Request) (*models.APIKeyPrincipal, authError, int) {
	apiKey := strings.TrimSpace(r.Header.Get(APIKeyHeader))
	if apiKey == "" {
		return nil, errKeyMissing, http.StatusUnauthorized
	}

	if IsTestKey(apiKey) && !a.testKeysAllowed() {
		return nil, errKeyTest, http.StatusForbidden
	}

	if a.cfg.Security.APIKeyPepper == "" {
		return nil, errMisconfig, http.StatusInternalServerError
	}

	record, err := a.store.GetAPIKeyByPrefix(r.Context(), KeyPrefix(apiKey))
	if err != nil {
		if errors.Is(err, database.ErrAPIKeyNotFound) {
			return nil, errKeyInvalid, http.StatusUnauthorized
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("api key lookup failed")
		return nil, errKeyInvalid, http.StatusUnauthorized
	}

	ok, err := VerifyAPIKey(apiKey, a.cfg.Security.APIKeyPepper, record.KeyHash)
	if err != nil {
		return nil, errMisconfig, http.StatusInternalServerError
	}
	if !ok {
		return nil, errKeyInvalid, http.StatusUnauthorized
	}

	if record.RevokedAt != nil {
		return nil, errKeyRevoked, http.StatusForbidden
	}
	if record.ExpiresAt != nil && record.ExpiresAt.Before(time.Now().UTC()) {
		return nil, errKeyExpired, http.StatusForbidden
	}

	// Usage telemetry is best effort; never fail the request on it.
	if err := a.store.TouchAPIKey(r.Context(), record.ID, remoteIP(r)); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("failed to record api key usage")
	}

	return &models.APIKeyPrincipal{
		Email: record.HolderEmail,
		KeyID: record.KeyPrefix,
		Label: record.HolderLabel,
	}, authError{}, 0
}

func (a *Authenticator) testKeysAllowed() bool {
	env := strings.ToLower(a.cfg.Server.Environment)
	return env == "test" || env == "testing"
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeAuthError(w http.ResponseWriter, status int, e authError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error: &models.APIError{
			Code:    e.code,
			Message: e.message,
		},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Error().Err(err).Msg("failed to encode auth error response")
	}
}

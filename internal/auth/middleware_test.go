// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/sentinelai/sentinel/internal/config"
	"github.com/sentinelai/sentinel/internal/database"
	"github.com/sentinelai/sentinel/internal/models"
)

type fakeKeyStore struct {
	keys    map[string]*models.APIKey
	touched []int64
}

func (s *fakeKeyStore) GetAPIKeyByPrefix(_ context.Context, prefix string) (*models.APIKey, error) {
	key, ok := s.keys[prefix]
	if !ok {
		return nil, database.ErrAPIKeyNotFound
	}
	return key, nil
}

func (s *fakeKeyStore) TouchAPIKey(_ context.Context, id int64, _ string) error {
	s.touched = append(s.touched, id)
	return nil
}

const testPepper = "unit-test-pepper"

// mintKey generates a key, hashes it, and registers it with the store.
func mintKey(t *testing.T, store *fakeKeyStore, prefix string, mutate func(*models.APIKey)) string {
	t.Helper()

	plaintext, err := GenerateAPIKey(prefix)
	if err != nil {
		t.Fatalf("GenerateAPIKey() error = %v", err)
	}
	hash, err := HashAPIKey(plaintext, testPepper)
	if err != nil {
		t.Fatalf("HashAPIKey() error = %v", err)
	}

	record := &models.APIKey{
		ID:          int64(len(store.keys) + 1),
		KeyPrefix:   KeyPrefix(plaintext),
		KeyHash:     hash,
		HolderEmail: "ops@example.com",
		HolderLabel: "ops",
		CreatedAt:   time.Now().UTC(),
	}
	if mutate != nil {
		mutate(record)
	}
	store.keys[record.KeyPrefix] = record
	return plaintext
}

func testConfig(environment string) *config.Config {
	cfg := &config.Config{}
	cfg.Server.Environment = environment
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeyPepper = testPepper
	return cfg
}

// doRequest runs the middleware and captures the principal seen downstream.
func doRequest(t *testing.T, auth *Authenticator, apiKey string) (*httptest.ResponseRecorder, *models.APIKeyPrincipal) {
	t.Helper()

	var principal *models.APIKeyPrincipal
	handler := auth.RequireAPIKey(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, _ = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
	if apiKey != "" {
		req.Header.Set(APIKeyHeader, apiKey)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, principal
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp.Error == nil {
		t.Fatal("response has no error payload")
	}
	return resp.Error.Code
}

func TestRequireAPIKeyValid(t *testing.T) {
	store := &fakeKeyStore{keys: map[string]*models.APIKey{}}
	plaintext := mintKey(t, store, DefaultKeyPrefix, nil)
	auth := NewAuthenticator(store, testConfig("production"))

	rec, principal := doRequest(t, auth, plaintext)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	if principal == nil {
		t.Fatal("no principal attached to request context")
	}
	if principal.Email != "ops@example.com" {
		t.Errorf("principal email = %q, want ops@example.com", principal.Email)
	}
	if len(store.touched) != 1 {
		t.Errorf("touched %d keys, want 1", len(store.touched))
	}
}

func TestRequireAPIKeyMissing(t *testing.T) {
	store := &fakeKeyStore{keys: map[string]*models.APIKey{}}
	auth := NewAuthenticator(store, testConfig("production"))

	rec, _ := doRequest(t, auth, "")

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if code := errorCode(t, rec); code != "api_key_missing" {
		t.Errorf("error code = %q, want api_key_missing", code)
	}
}

func TestRequireAPIKeyUnknownPrefix(t *testing.T) {
	store := &fakeKeyStore{keys: map[string]*models.APIKey{}}
	auth := NewAuthenticator(store, testConfig("production"))

	rec, _ := doRequest(t, auth, "sk_sentinel_0000000000000000000000000000000000000000000000000000000000000000")

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if code := errorCode(t, rec); code != "api_key_invalid" {
		t.Errorf("error code = %q, want api_key_invalid", code)
	}
}

func TestRequireAPIKeyHashMismatch(t *testing.T) {
	store := &fakeKeyStore{keys: map[string]*models.APIKey{}}
	plaintext := mintKey(t, store, DefaultKeyPrefix, nil)

	// Same lookup prefix, different random tail.
	forged := plaintext[:len(plaintext)-4] + "ffff"
	auth := NewAuthenticator(store, testConfig("production"))

	rec, _ := doRequest(t, auth, forged)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if code := errorCode(t, rec); code != "api_key_invalid" {
		t.Errorf("error code = %q, want api_key_invalid", code)
	}
}

func TestRequireAPIKeyRevoked(t *testing.T) {
	store := &fakeKeyStore{keys: map[string]*models.APIKey{}}
	revoked := time.Now().UTC().Add(-time.Hour)
	plaintext := mintKey(t, store, DefaultKeyPrefix, func(k *models.APIKey) {
		k.RevokedAt = &revoked
	})
	auth := NewAuthenticator(store, testConfig("production"))

	rec, _ := doRequest(t, auth, plaintext)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if code := errorCode(t, rec); code != "api_key_revoked" {
		t.Errorf("error code = %q, want api_key_revoked", code)
	}
}

func TestRequireAPIKeyExpired(t *testing.T) {
	store := &fakeKeyStore{keys: map[string]*models.APIKey{}}
	expired := time.Now().UTC().Add(-time.Minute)
	plaintext := mintKey(t, store, DefaultKeyPrefix, func(k *models.APIKey) {
		k.ExpiresAt = &expired
	})
	auth := NewAuthenticator(store, testConfig("production"))

	rec, _ := doRequest(t, auth, plaintext)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if code := errorCode(t, rec); code != "api_key_expired" {
		t.Errorf("error code = %q, want api_key_expired", code)
	}
}

func TestRequireAPIKeyTestKeyRejectedInProduction(t *testing.T) {
	store := &fakeKeyStore{keys: map[string]*models.APIKey{}}
	plaintext := mintKey(t, store, "sk_test_sentinel", nil)
	auth := NewAuthenticator(store, testConfig("production"))

	rec, _ := doRequest(t, auth, plaintext)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if code := errorCode(t, rec); code != "api_key_test_only" {
		t.Errorf("error code = %q, want api_key_test_only", code)
	}
}

func TestRequireAPIKeyTestKeyAcceptedInTestEnv(t *testing.T) {
	store := &fakeKeyStore{keys: map[string]*models.APIKey{}}
	plaintext := mintKey(t, store, "sk_test_sentinel", nil)
	auth := NewAuthenticator(store, testConfig("test"))

	rec, _ := doRequest(t, auth, plaintext)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
}

func TestRequireAPIKeyMissingPepper(t *testing.T) {
	store := &fakeKeyStore{keys: map[string]*models.APIKey{}}
	plaintext := mintKey(t, store, DefaultKeyPrefix, nil)

	cfg := testConfig("production")
	cfg.Security.APIKeyPepper = ""
	auth := NewAuthenticator(store, cfg)

	rec, _ := doRequest(t, auth, plaintext)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if code := errorCode(t, rec); code != "api_key_misconfigured" {
		t.Errorf("error code = %q, want api_key_misconfigured", code)
	}
}

func TestRequireAPIKeyBypassWhenDisabled(t *testing.T) {
	store := &fakeKeyStore{keys: map[string]*models.APIKey{}}
	cfg := testConfig("development")
	cfg.Security.RequireAPIKey = false
	auth := NewAuthenticator(store, cfg)

	rec, principal := doRequest(t, auth, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if principal == nil {
		t.Fatal("no principal attached to request context")
	}
	if principal.Email != "dev-bypass" || principal.KeyID != "development" {
		t.Errorf("bypass principal = %+v, want dev-bypass/development", principal)
	}
}

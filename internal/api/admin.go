// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sentinelai/sentinel/internal/auth"
	"github.com/sentinelai/sentinel/internal/database"
	"github.com/sentinelai/sentinel/internal/models"
	"github.com/sentinelai/sentinel/internal/validation"
)

// CreateAPIKey mints a new API key. The plaintext secret is returned exactly
// once; only its HMAC hash is persisted.
func (h *Handler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	var req models.APIKeyCreateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_json", "Request body must be valid JSON", err)
		return
	}

	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, verr)
		return
	}

	prefix := auth.DefaultKeyPrefix
	if req.Test {
		prefix = auth.TestKeyPrefix
	}

	apiKey, err := auth.GenerateAPIKey(prefix)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "key_generation_failed", "Failed to generate API key", err)
		return
	}

	hash, err := auth.HashAPIKey(apiKey, h.cfg.Security.APIKeyPepper)
	if err != nil {
		if errors.Is(err, auth.ErrPepperMissing) {
			respondError(w, http.StatusInternalServerError, "api_key_misconfigured",
				"API key authentication is not configured on the server", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "key_generation_failed", "Failed to hash API key", err)
		return
	}

	record := &models.APIKey{
		KeyPrefix:   auth.KeyPrefix(apiKey),
		KeyHash:     hash,
		HolderEmail: req.HolderEmail,
		HolderLabel: req.HolderLabel,
		Notes:       req.Notes,
		CreatedAt:   time.Now().UTC(),
	}
	if req.ExpiresInDays > 0 {
		expires := record.CreatedAt.AddDate(0, 0, req.ExpiresInDays)
		record.ExpiresAt = &expires
	}

	id, err := h.db.InsertAPIKey(r.Context(), record)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "storage_error", "Failed to store API key", err)
		return
	}

	respondSuccess(w, http.StatusCreated, models.APIKeyCreateResponse{
		ID:          id,
		KeyPrefix:   record.KeyPrefix,
		HolderEmail: record.HolderEmail,
		HolderLabel: record.HolderLabel,
		ExpiresAt:   record.ExpiresAt,
		Notes:       record.Notes,
		APIKey:      apiKey,
	})
}

// ListAPIKeys returns key records without hashes. Revoked keys are included
// only when include_revoked=true.
func (h *Handler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	includeRevoked := r.URL.Query().Get("include_revoked") == "true"

	keys, err := h.db.ListAPIKeys(r.Context(), includeRevoked)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "storage_error", "Failed to list API keys", err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"api_keys": keys,
		"count":    len(keys),
	})
}

// RevokeAPIKey revokes the active key with the given prefix.
func (h *Handler) RevokeAPIKey(w http.ResponseWriter, r *http.Request) {
	prefix := chi.URLParam(r, "prefix")

	if err := h.db.RevokeAPIKey(r.Context(), prefix); err != nil {
		if errors.Is(err, database.ErrAPIKeyNotFound) {
			respondError(w, http.StatusNotFound, "api_key_not_found", "No active API key matches that prefix", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "storage_error", "Failed to revoke API key", err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"key_prefix": prefix,
		"status":     "revoked",
	})
}

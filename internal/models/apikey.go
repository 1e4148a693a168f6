// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

package models

import (
	"time"
)

// APIKey is a persisted API key record. Only the HMAC hash and a short
// lookup prefix are stored; the plaintext key is shown once at creation.
type APIKey struct {
	ID          int64      `json:"id"`
	KeyPrefix   string     `json:"key_prefix"`
	KeyHash     string     `json:"-"`
	HolderEmail string     `json:"holder_email"`
	HolderLabel string     `json:"holder_label,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty"`
	LastUsedIP  string     `json:"last_used_ip,omitempty"`
}

// APIKeyPrincipal is the authenticated principal derived from an API key.
type APIKeyPrincipal struct {
	Email string `json:"email"`
	KeyID string `json:"key_id"`
	Label string `json:"label,omitempty"`
}

// APIKeyCreateRequest is the admin payload for minting a new key.
type APIKeyCreateRequest struct {
	HolderEmail string `json:"holder_email" validate:"required,email"`
	HolderLabel string `json:"holder_label,omitempty"`
	Notes       string `json:"notes,omitempty"`

	// ExpiresInDays sets an expiry relative to creation time. Zero means
	// no expiry.
	ExpiresInDays int `json:"expires_in_days,omitempty" validate:"gte=0"`

	// Test mints a test-environment key (sk_test prefix).
	Test bool `json:"test,omitempty"`
}

// APIKeyCreateResponse returns the minted key exactly once.
type APIKeyCreateResponse struct {
	ID          int64      `json:"id"`
	KeyPrefix   string     `json:"key_prefix"`
	HolderEmail string     `json:"holder_email"`
	HolderLabel string     `json:"holder_label,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	Notes       string     `json:"notes,omitempty"`

	// APIKey is the plaintext secret. It is never persisted or echoed again.
	APIKey string `json:"api_key"`
}

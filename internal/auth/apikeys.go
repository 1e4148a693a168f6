// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

// Package auth implements API key generation, hashing and request
// authentication.
//
// Keys are formatted as <prefix>_<64 hex chars>. Only an HMAC-SHA256 hash
// (keyed with a server-side pepper) and a short lookup prefix are persisted;
// the plaintext is shown exactly once at mint time.
package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	// APIKeyHeader carries the key on authenticated requests.
	APIKeyHeader = "X-Sentinel-API-Key"

	// DefaultKeyPrefix marks production keys.
	DefaultKeyPrefix = "sk_sentinel"

	// TestKeyPrefix marks keys only accepted in test environments.
	TestKeyPrefix = "sk_test"
)

// ErrPepperMissing indicates the server-side pepper is not configured.
var ErrPepperMissing = errors.New("api key pepper must be configured to hash keys")

// GenerateAPIKey mints a new key string as <prefix>_<hex> with 32 random
// bytes of entropy.
func GenerateAPIKey(prefix string) (string, error) {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate api key: %w", err)
	}
	return prefix + "_" + hex.EncodeToString(raw), nil
}

// KeyPrefix derives the short prefix used for lookup and display: the first
// 8 characters of the random part (everything after the last underscore).
func KeyPrefix(apiKey string) string {
	cleaned := strings.TrimSpace(apiKey)
	if idx := strings.LastIndex(cleaned, "_"); idx >= 0 {
		cleaned = cleaned[idx+1:]
	}
	if len(cleaned) > 8 {
		cleaned = cleaned[:8]
	}
	return cleaned
}

// HashAPIKey returns the hex HMAC-SHA256 of the key under the pepper.
func HashAPIKey(apiKey, pepper string) (string, error) {
	if pepper == "" {
		return "", ErrPepperMissing
	}

	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// VerifyAPIKey reports whether the key matches a stored hash in constant
// time.
func VerifyAPIKey(apiKey, pepper, storedHash string) (bool, error) {
	computed, err := HashAPIKey(apiKey, pepper)
	if err != nil {
		return false, err
	}
	return hmac.Equal([]byte(computed), []byte(storedHash)), nil
}

// IsTestKey reports whether the key is intended for test environments only.
func IsTestKey(apiKey string) bool {
	return strings.HasPrefix(apiKey, TestKeyPrefix+"_")
}

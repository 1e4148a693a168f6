// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

package models

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func TestIntentValid(t *testing.T) {
	for _, intent := range AllIntents() {
		if !intent.Valid() {
			t.Errorf("AllIntents() returned invalid intent %q", intent)
		}
	}

	invalid := []MissionIntent{"", "situational_awareness", "UNKNOWN", "SITUATIONAL"}
	for _, intent := range invalid {
		if intent.Valid() {
			t.Errorf("intent %q should be invalid", intent)
		}
	}
}

func TestDefaultIntent(t *testing.T) {
	if DefaultIntent != IntentSituational {
		t.Errorf("DefaultIntent = %q, want %q", DefaultIntent, IntentSituational)
	}
}

func TestEventMetadataFieldName(t *testing.T) {
	// Clients send metadata under "event_metadata"; the field name is part
	// of the wire contract.
	raw := []byte(`{"event_type":"aprs","event_metadata":{"lat":37.5}}`)
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.EventType != "aprs" {
		t.Errorf("event_type = %q, want aprs", ev.EventType)
	}
	if ev.Metadata["lat"] != 37.5 {
		t.Errorf("event_metadata.lat = %v, want 37.5", ev.Metadata["lat"])
	}
}

func TestAPIKeyHashNeverSerialized(t *testing.T) {
	key := APIKey{KeyPrefix: "abcd1234", KeyHash: "secret-hash", HolderEmail: "ops@example.com"}
	out, err := json.Marshal(key)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(out), "secret-hash") {
		t.Errorf("key hash leaked into JSON: %s", out)
	}
}

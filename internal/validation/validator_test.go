// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

package validation

import (
	"strings"
	"testing"
)

type testRequest struct {
	MissionID string  `validate:"required"`
	Latitude  float64 `validate:"gte=-90,lte=90"`
	Longitude float64 `validate:"gte=-180,lte=180"`
	Intent    string  `validate:"omitempty,mission_intent"`
}

func TestValidateStructPasses(t *testing.T) {
	req := testRequest{MissionID: "alpha", Latitude: 37.5, Longitude: -122.3}
	if err := ValidateStruct(&req); err != nil {
		t.Errorf("expected valid struct, got %v", err)
	}
}

func TestValidateStructRequired(t *testing.T) {
	req := testRequest{Latitude: 0, Longitude: 0}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected validation error for missing MissionID")
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	if !strings.Contains(apiErr.Message, "MissionID is required") {
		t.Errorf("message = %q, want required message", apiErr.Message)
	}
}

func TestValidateStructRangeMessage(t *testing.T) {
	req := testRequest{MissionID: "alpha", Latitude: 123.0}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected validation error for latitude out of range")
	}
	if !strings.Contains(err.Error(), "less than or equal to 90") {
		t.Errorf("message = %q, want lte message", err.Error())
	}
}

func TestMissionIntentValidator(t *testing.T) {
	tests := []struct {
		intent string
		valid  bool
	}{
		{"SITUATIONAL_AWARENESS", true},
		{"RADIO_SIGNAL_ACTIVITY_ANALYSIS", true},
		{"", true}, // omitempty
		{"NOT_AN_INTENT", false},
		{"situational_awareness", false},
	}

	for _, tt := range tests {
		req := testRequest{MissionID: "alpha", Intent: tt.intent}
		err := ValidateStruct(&req)
		if (err == nil) != tt.valid {
			t.Errorf("intent %q: valid = %v, want %v", tt.intent, err == nil, tt.valid)
		}
	}
}

func TestMultipleErrorsAggregated(t *testing.T) {
	req := testRequest{Latitude: 200, Longitude: -999}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	if len(err.Errors()) != 3 {
		t.Errorf("got %d errors, want 3", len(err.Errors()))
	}

	apiErr := err.ToAPIError()
	if _, ok := apiErr.Details["fields"]; !ok {
		t.Error("expected fields detail for multiple errors")
	}
}

// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

package ai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/sentinelai/sentinel/internal/config"
)

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(config.AIConfig{
		Model:   "gpt-4o-mini",
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	}, srv.Client())
}

func completionBody(content string) string {
	resp := map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]interface{}{"content": content}},
		},
	}
	raw, _ := json.Marshal(resp)
	return string(raw)
}

func TestAnalyzeMissionContext(t *testing.T) {
	var gotReq completionRequest
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		_, _ = w.Write([]byte(completionBody("Mission looks stable.")))
	}))
	defer srv.Close()

	got, err := newTestClient(srv).AnalyzeMissionContext(context.Background(), "analyze this", "you are a mission analyst")
	if err != nil {
		t.Fatalf("AnalyzeMissionContext() error = %v", err)
	}
	if got != "Mission looks stable." {
		t.Errorf("content = %q", got)
	}

	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotReq.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", gotReq.Model)
	}
	if gotReq.Temperature != 0.2 {
		t.Errorf("temperature = %v, want 0.2", gotReq.Temperature)
	}
	if gotReq.MaxTokens != 400 {
		t.Errorf("max_tokens = %d, want 400", gotReq.MaxTokens)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Role != "user" {
		t.Errorf("messages = %+v", gotReq.Messages)
	}
}

func TestAnalyzeMissionContextNoSystemMessage(t *testing.T) {
	var gotReq completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_, _ = w.Write([]byte(completionBody("ok")))
	}))
	defer srv.Close()

	if _, err := newTestClient(srv).AnalyzeMissionContext(context.Background(), "prompt", ""); err != nil {
		t.Fatalf("AnalyzeMissionContext() error = %v", err)
	}
	if len(gotReq.Messages) != 1 || gotReq.Messages[0].Role != "user" {
		t.Errorf("messages = %+v, want single user turn", gotReq.Messages)
	}
}

func TestAnalyzeMissionWithIntent(t *testing.T) {
	var gotReq completionRequest
	answer := `{"intent_id": "WEATHER_IMPACT", "summary": "Rain likely.", "risks": ["visibility"], "recommendations": ["delay launch"]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_, _ = w.Write([]byte(completionBody(answer)))
	}))
	defer srv.Close()

	result, err := newTestClient(srv).AnalyzeMissionWithIntent(context.Background(), "classify and analyze",
		map[string]interface{}{"mission_id": "m1"})
	if err != nil {
		t.Fatalf("AnalyzeMissionWithIntent() error = %v", err)
	}

	if gotReq.MaxTokens != 600 {
		t.Errorf("max_tokens = %d, want 600", gotReq.MaxTokens)
	}
	if result["intent_id"] != "WEATHER_IMPACT" {
		t.Errorf("intent_id = %v", result["intent_id"])
	}
	if result["summary"] != "Rain likely." {
		t.Errorf("summary = %v", result["summary"])
	}
}

func TestAnalyzeMissionWithIntentStripsCodeFence(t *testing.T) {
	answer := "```json\n{\"intent_id\": \"AIR_ACTIVITY\"}\n```"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(completionBody(answer)))
	}))
	defer srv.Close()

	result, err := newTestClient(srv).AnalyzeMissionWithIntent(context.Background(), "sys", map[string]interface{}{})
	if err != nil {
		t.Fatalf("AnalyzeMissionWithIntent() error = %v", err)
	}
	if result["intent_id"] != "AIR_ACTIVITY" {
		t.Errorf("intent_id = %v", result["intent_id"])
	}
}

func TestAnalyzeMissionWithIntentBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(completionBody("sorry, I cannot answer in JSON")))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).AnalyzeMissionWithIntent(context.Background(), "sys", map[string]interface{}{})
	if !errors.Is(err, ErrBadResponse) {
		t.Errorf("error = %v, want ErrBadResponse", err)
	}
}

func TestNotConfigured(t *testing.T) {
	client := NewClient(config.AIConfig{Model: "gpt-4o-mini"}, nil)
	if client.Configured() {
		t.Error("Configured() = true without api key")
	}
	if _, err := client.AnalyzeMissionContext(context.Background(), "p", ""); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("error = %v, want ErrNotConfigured", err)
	}
}

func TestBackendErrorsMapToUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).AnalyzeMissionContext(context.Background(), "p", "")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}

func TestCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(srv)
	for i := 0; i < 5; i++ {
		_, err := client.AnalyzeMissionContext(context.Background(), "p", "")
		if !errors.Is(err, ErrUnavailable) {
			t.Fatalf("call %d error = %v, want ErrUnavailable", i, err)
		}
	}

	// The breaker trips after three consecutive failures; later calls never
	// reach the backend.
	if calls != 3 {
		t.Errorf("backend saw %d calls, want 3", calls)
	}
	if client.BreakerState() != "open" {
		t.Errorf("BreakerState() = %q, want open", client.BreakerState())
	}
}

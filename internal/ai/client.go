// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

// Package ai wraps an OpenAI-compatible chat completions backend behind a
// circuit breaker. A misbehaving AI provider must never cascade into the
// rest of the analysis pipeline.
package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/sentinelai/sentinel/internal/config"
	"github.com/sentinelai/sentinel/internal/logging"
	"github.com/sentinelai/sentinel/internal/metrics"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Generation parameters for mission analysis calls.
const (
	analysisTemperature = 0.2
	maxTokensAnalysis   = 400
	maxTokensIntentCall = 600
)

var (
	// ErrNotConfigured is returned when no API key is set.
	ErrNotConfigured = errors.New("ai backend not configured")

	// ErrUnavailable is returned when the backend cannot serve the request,
	// including while the circuit breaker is open.
	ErrUnavailable = errors.New("ai service temporarily unavailable")

	// ErrBadResponse is returned when the backend answers with a payload
	// that cannot be interpreted.
	ErrBadResponse = errors.New("ai response format invalid")
)

// Client calls an OpenAI-compatible chat completions API.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[string]
}

// NewClient builds a Client from configuration. A nil httpClient gets a
// default with the configured timeout.
func NewClient(cfg config.AIConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	settings := gobreaker.Settings{
		Name:        "openai",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("AI circuit breaker state change")
		},
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: httpClient,
		breaker:    gobreaker.NewCircuitBreaker[string](settings),
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// BreakerState returns the circuit breaker state for health reporting.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// AnalyzeMissionContext sends a mission analysis prompt and returns the text
// response. An empty systemMessage omits the system turn.
func (c *Client) AnalyzeMissionContext(ctx context.Context, prompt, systemMessage string) (string, error) {
	messages := make([]Message, 0, 2)
	if systemMessage != "" {
		messages = append(messages, Message{Role: "system", Content: systemMessage})
	}
	messages = append(messages, Message{Role: "user", Content: prompt})

	return c.complete(ctx, messages, maxTokensAnalysis)
}

// AnalyzeMissionWithIntent classifies mission intent and generates the
// analysis in a single call. The payload is serialized as the user message
// and the model is expected to answer with a JSON object.
func (c *Client) AnalyzeMissionWithIntent(ctx context.Context, systemMessage string, payload interface{}) (map[string]interface{}, error) {
	userContent, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode intent payload: %w", err)
	}

	messages := []Message{
		{Role: "system", Content: systemMessage},
		{Role: "user", Content: string(userContent)},
	}

	content, err := c.complete(ctx, messages, maxTokensIntentCall)
	if err != nil {
		return nil, err
	}

	var result map[string]interface{}
	if err := json.Unmarshal([]byte(extractJSON(content)), &result); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Failed to decode AI response as JSON")
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return result, nil
}

// complete runs one chat completion through the circuit breaker.
func (c *Client) complete(ctx context.Context, messages []Message, maxTokens int) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	start := time.Now()
	content, err := c.breaker.Execute(func() (string, error) {
		return c.doComplete(ctx, messages, maxTokens)
	})

	switch {
	case err == nil:
		metrics.RecordAIRequest("ok", time.Since(start))
		return content, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordAIRequest("circuit_open", time.Since(start))
		return "", fmt.Errorf("%w: circuit breaker open", ErrUnavailable)
	default:
		metrics.RecordAIRequest("error", time.Since(start))
		return "", err
	}
}

func (c *Client) doComplete(ctx context.Context, messages []Message, maxTokens int) (string, error) {
	body, err := json.Marshal(completionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: analysisTemperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("AI request failed")
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logging.Ctx(ctx).Error().
			Int("status", resp.StatusCode).
			Msg("AI backend returned error")
		return "", fmt.Errorf("%w: backend returned HTTP %d", ErrUnavailable, resp.StatusCode)
	}

	var completion completionResponse
	if err := json.Unmarshal(raw, &completion); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrUnavailable, completion.Error.Message)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrBadResponse)
	}

	return completion.Choices[0].Message.Content, nil
}

// extractJSON strips markdown code fences models sometimes wrap JSON
// answers in.
func extractJSON(content string) string {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	}
	return strings.TrimSpace(trimmed)
}

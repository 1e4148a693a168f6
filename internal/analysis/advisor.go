// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

package analysis

import (
	"context"
	"errors"
	"fmt"

	"github.com/sentinelai/sentinel/internal/logging"
	"github.com/sentinelai/sentinel/internal/models"
)

// ErrUnsupportedIntent marks a request for an intent outside the registry.
// It is invalid input, distinct from a backend failure.
var ErrUnsupportedIntent = errors.New("unsupported mission intent")

// unavailableSummary is returned when the AI backend cannot serve a request.
const unavailableSummary = "AI analysis temporarily unavailable."

// Backend is the model interface the advisor dispatches to.
type Backend interface {
	AnalyzeMissionContext(ctx context.Context, prompt, systemMessage string) (string, error)
	AnalyzeMissionWithIntent(ctx context.Context, systemMessage string, payload interface{}) (map[string]interface{}, error)
}

// Advisor routes mission analysis requests: explicit intents dispatch
// through the intent registry, requests without an intent go through the
// auto-intent classifier. Backend failures always degrade to an
// "unavailable" result instead of surfacing as errors.
type Advisor struct {
	backend Backend
	builder *ContextBuilder
}

// NewAdvisor wires the advisor from its model backend and context builder.
func NewAdvisor(backend Backend, builder *ContextBuilder) *Advisor {
	return &Advisor{backend: backend, builder: builder}
}

// AnalyzeMission runs one mission analysis. An unknown explicit intent
// returns ErrUnsupportedIntent; everything else produces a result.
func (a *Advisor) AnalyzeMission(ctx context.Context, req *models.MissionAnalysisRequest) (*models.MissionAnalysisResponse, error) {
	if req.Intent != "" && !req.Intent.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedIntent, req.Intent)
	}

	payload := a.builder.Build(ctx, req)

	if req.Intent != "" {
		return a.analyzeWithIntent(ctx, payload, req.Intent), nil
	}
	return a.analyzeAutoIntent(ctx, payload), nil
}

// analyzeWithIntent dispatches one explicit-intent analysis. The result is
// always tagged with the requested intent, including on backend failure.
func (a *Advisor) analyzeWithIntent(ctx context.Context, payload *ContextPayload, intent models.MissionIntent) *models.MissionAnalysisResponse {
	prompt := buildIntentPrompt(payload, intent)

	summary, err := a.backend.AnalyzeMissionContext(ctx, prompt, systemMessage)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("intent", intent.String()).
			Msg("AI mission analysis unavailable")
		return unavailableResult(intent)
	}

	return &models.MissionAnalysisResponse{
		Intent:          intent,
		Summary:         summary,
		Risks:           []string{},
		Recommendations: []string{},
	}
}

// analyzeAutoIntent issues one model call that both selects the best-fit
// intent and performs the analysis. Any failure, malformed response or
// unknown intent id degrades to the default intent.
func (a *Advisor) analyzeAutoIntent(ctx context.Context, payload *ContextPayload) *models.MissionAnalysisResponse {
	result, err := a.backend.AnalyzeMissionWithIntent(ctx, autoIntentSystemMessage(), classificationPayload(payload))
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("AI auto-intent analysis unavailable")
		return unavailableResult(models.DefaultIntent)
	}

	intentID, _ := result["intent_id"].(string)
	intent := models.MissionIntent(intentID)
	if !intent.Valid() {
		logging.Ctx(ctx).Warn().
			Str("intent_id", intentID).
			Msg("AI returned unknown intent id")
		return unavailableResult(models.DefaultIntent)
	}

	summary, _ := result["summary"].(string)
	if summary == "" {
		summary = unavailableSummary
	}

	return &models.MissionAnalysisResponse{
		Intent:          intent,
		Summary:         summary,
		Risks:           coerceStringList(result["risks"]),
		Recommendations: coerceStringList(result["recommendations"]),
	}
}

func unavailableResult(intent models.MissionIntent) *models.MissionAnalysisResponse {
	return &models.MissionAnalysisResponse{
		Intent:          intent,
		Summary:         unavailableSummary,
		Risks:           []string{},
		Recommendations: []string{},
	}
}

// autoIntentSystemMessage instructs the model to classify and analyze in a
// single JSON answer.
func autoIntentSystemMessage() string {
	return systemMessage + " Select the single best-fit intent for the mission context " +
		"from the provided catalog and perform that analysis. Respond with only a JSON " +
		"object: {\"intent_id\", \"intent_label\", \"summary\", \"risks\", \"recommendations\"}. " +
		"risks and recommendations are arrays of short strings."
}

// classificationPayload is the structured document describing the mission
// and the full intent catalog.
func classificationPayload(payload *ContextPayload) map[string]interface{} {
	intents := make([]map[string]string, 0, len(models.AllIntents()))
	for _, intent := range models.AllIntents() {
		spec := intentRegistry[intent]
		intents = append(intents, map[string]string{
			"id":       intent.String(),
			"label":    spec.label,
			"guidance": spec.guidance,
		})
	}

	doc := map[string]interface{}{
		"mission_id":       payload.MissionID,
		"mission_metadata": payload.MissionMetadata,
		"notes":            payload.Notes,
		"intents":          intents,
	}
	if len(payload.Signals) > 0 {
		doc["signals"] = payload.Signals
	}
	if payload.Location != nil {
		doc["location"] = payload.Location
	}
	if payload.Weather != nil {
		doc["weather_summary"] = summarizeWeather(payload.Weather)
	}
	if len(payload.AirTraffic) > 0 {
		doc["air_traffic_summary"] = summarizeAirTraffic(payload.AirTraffic, payload.Location)
	}
	if len(payload.RadioMessages) > 0 {
		doc["radio_summary"] = summarizeRadio(payload.RadioMessages)
	}
	return doc
}

// coerceStringList accepts arrays of strings but also tolerates scalar
// answers, coercing them into single-element lists.
func coerceStringList(value interface{}) []string {
	switch v := value.(type) {
	case nil:
		return []string{}
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			} else {
				out = append(out, fmt.Sprintf("%v", item))
			}
		}
		return out
	case []string:
		return v
	case string:
		if v == "" {
			return []string{}
		}
		return []string{v}
	default:
		return []string{fmt.Sprintf("%v", v)}
	}
}

// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

package models

// MissionIntent routes a mission analysis request to specialized prompt
// construction. The zero value is not valid; use DefaultIntent.
type MissionIntent string

// Supported mission analysis intents.
const (
	IntentSituational         MissionIntent = "SITUATIONAL_AWARENESS"
	IntentRouteRisk           MissionIntent = "ROUTE_RISK_ASSESSMENT"
	IntentWeatherImpact       MissionIntent = "WEATHER_IMPACT"
	IntentAirspaceDeconflict  MissionIntent = "AIRSPACE_DECONFLICTION"
	IntentAirActivity         MissionIntent = "AIR_ACTIVITY_ANALYSIS"
	IntentRadioSignalActivity MissionIntent = "RADIO_SIGNAL_ACTIVITY_ANALYSIS"
)

// DefaultIntent is applied when a request carries no intent and automatic
// selection is unavailable.
const DefaultIntent = IntentSituational

// AllIntents lists every supported intent in a stable order.
func AllIntents() []MissionIntent {
	return []MissionIntent{
		IntentSituational,
		IntentRouteRisk,
		IntentWeatherImpact,
		IntentAirspaceDeconflict,
		IntentAirActivity,
		IntentRadioSignalActivity,
	}
}

// Valid reports whether the intent is one of the supported values.
func (m MissionIntent) Valid() bool {
	switch m {
	case IntentSituational, IntentRouteRisk, IntentWeatherImpact,
		IntentAirspaceDeconflict, IntentAirActivity, IntentRadioSignalActivity:
		return true
	}
	return false
}

func (m MissionIntent) String() string {
	return string(m)
}

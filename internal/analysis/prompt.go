// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/sentinelai/sentinel/internal/models"
)

// systemMessage frames every mission analysis call.
const systemMessage = "You are a mission analysis assistant for field operations. " +
	"Be concise, factual and risk-aware. Base conclusions only on the provided context."

// radioSummaryLimit caps radio messages rendered into a prompt.
const radioSummaryLimit = 10

// nearestTracksLimit caps individually listed aircraft in a prompt.
const nearestTracksLimit = 3

// intentSpec holds the prompt-construction strategy for one intent.
type intentSpec struct {
	label     string
	guidance  string
	directive string
}

// intentRegistry is the dispatch table keyed by intent. Each entry maps to a
// distinct directive appended to the common context prompt.
var intentRegistry = map[models.MissionIntent]intentSpec{
	models.IntentSituational: {
		label:    "Situational awareness",
		guidance: "General overview of mission state, notable events and overall risk posture.",
		directive: "Provide a concise situational overview: current mission state, " +
			"notable signals and an overall risk assessment with recommendations.",
	},
	models.IntentRouteRisk: {
		label:    "Route risk assessment",
		guidance: "Risks along a planned movement route: terrain, weather, traffic, signals.",
		directive: "Assess risks along the mission route. Highlight weather, air traffic " +
			"and signal observations that affect movement, and recommend mitigations.",
	},
	models.IntentWeatherImpact: {
		label:    "Weather impact",
		guidance: "How current and forecast weather affects mission feasibility and timing.",
		directive: "Analyze how the reported weather conditions impact the mission. " +
			"Call out visibility, wind, precipitation and timing considerations.",
	},
	models.IntentAirspaceDeconflict: {
		label:    "Airspace deconfliction",
		guidance: "Conflicts between mission activity and nearby air traffic or airspace use.",
		directive: "Evaluate potential conflicts with nearby air traffic. Identify tracks of " +
			"concern by proximity and altitude and recommend deconfliction measures.",
	},
	models.IntentAirActivity: {
		label:    "Air activity analysis",
		guidance: "Patterns and anomalies in observed air traffic around the mission area.",
		directive: "Analyze the observed air activity: traffic density, altitude distribution " +
			"and any unusual patterns relevant to the mission.",
	},
	models.IntentRadioSignalActivity: {
		label:    "Radio signal activity analysis",
		guidance: "Patterns in received radio packet traffic: sources, positions, cadence.",
		directive: "Analyze the radio signal activity: active stations, reported positions " +
			"and transmission patterns, and note anything anomalous.",
	},
}

// buildIntentPrompt renders the full prompt for an explicit intent: common
// context sections followed by the intent directive.
func buildIntentPrompt(payload *ContextPayload, intent models.MissionIntent) string {
	spec := intentRegistry[intent]

	var b strings.Builder
	b.WriteString("Mission analysis request.\n")
	writeContextSections(&b, payload)
	b.WriteString("\nDirective: ")
	b.WriteString(spec.directive)
	return b.String()
}

func writeContextSections(b *strings.Builder, payload *ContextPayload) {
	if payload.MissionID != "" {
		fmt.Fprintf(b, "Mission ID: %s\n", payload.MissionID)
	}
	if len(payload.MissionMetadata) > 0 {
		if raw, err := json.Marshal(payload.MissionMetadata); err == nil {
			fmt.Fprintf(b, "Mission metadata: %s\n", raw)
		}
	}
	if payload.Location != nil {
		fmt.Fprintf(b, "Mission location: %.4f, %.4f", payload.Location.Latitude, payload.Location.Longitude)
		if payload.Location.Description != "" {
			fmt.Fprintf(b, " (%s)", payload.Location.Description)
		}
		b.WriteString("\n")
	}
	if payload.Weather != nil {
		b.WriteString("Weather:\n")
		b.WriteString(summarizeWeather(payload.Weather))
	}
	if len(payload.AirTraffic) > 0 {
		b.WriteString("Air traffic:\n")
		b.WriteString(summarizeAirTraffic(payload.AirTraffic, payload.Location))
	}
	if len(payload.RadioMessages) > 0 {
		b.WriteString("Radio activity:\n")
		b.WriteString(summarizeRadio(payload.RadioMessages))
	}
	if len(payload.Signals) > 0 {
		b.WriteString("Signals:\n")
		for _, signal := range payload.Signals {
			fmt.Fprintf(b, "- [%s] %s\n", signal.Type, signal.Description)
		}
	}
	if payload.Notes != "" {
		fmt.Fprintf(b, "Notes: %s\n", payload.Notes)
	}
}

func summarizeWeather(w *models.WeatherSnapshot) string {
	var b strings.Builder
	appendMetric := func(name string, value *float64, unit string) {
		if value != nil {
			fmt.Fprintf(&b, "- %s: %.1f%s\n", name, *value, unit)
		}
	}

	appendMetric("temperature", w.TemperatureC, " C")
	appendMetric("wind speed", w.WindSpeedMPS, " m/s")
	appendMetric("wind direction", w.WindDirectionDeg, " deg")
	appendMetric("precipitation probability", w.PrecipProbabilityPct, "%")
	appendMetric("precipitation", w.PrecipitationMM, " mm")
	appendMetric("visibility", w.VisibilityKM, " km")
	appendMetric("cloud cover", w.CloudCoverPct, "%")
	if w.Condition != "" {
		fmt.Fprintf(&b, "- condition code: %s\n", w.Condition)
	}
	return b.String()
}

// summarizeAirTraffic renders altitude-band counts plus the tracks nearest
// to the mission location. Without a location the first tracks are listed
// unsorted.
func summarizeAirTraffic(tracks []models.AircraftTrack, location *models.MissionLocation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- %d aircraft in the area\n", len(tracks))

	if bands := altitudeBands(tracks); bands != "" {
		b.WriteString(bands)
	}

	nearest := tracks
	if location != nil {
		nearest = make([]models.AircraftTrack, len(tracks))
		copy(nearest, tracks)
		sort.SliceStable(nearest, func(i, j int) bool {
			di := distanceNM(location.Latitude, location.Longitude, nearest[i].Lat, nearest[i].Lon)
			dj := distanceNM(location.Latitude, location.Longitude, nearest[j].Lat, nearest[j].Lon)
			return di < dj
		})
	}
	if len(nearest) > nearestTracksLimit {
		nearest = nearest[:nearestTracksLimit]
	}

	for _, track := range nearest {
		b.WriteString("- ")
		b.WriteString(describeTrack(track, location))
		b.WriteString("\n")
	}
	return b.String()
}

// altitudeBands partitions tracks into four bands by altitude, rendered only
// when at least one track reports altitude.
func altitudeBands(tracks []models.AircraftTrack) string {
	var low, mid, high, upper, reported int
	for _, track := range tracks {
		if track.Altitude == nil {
			continue
		}
		reported++
		switch alt := *track.Altitude; {
		case alt <= 5000:
			low++
		case alt <= 10000:
			mid++
		case alt <= 20000:
			high++
		default:
			upper++
		}
	}
	if reported == 0 {
		return ""
	}
	return fmt.Sprintf("- altitude bands: <=5000ft: %d, 5001-10000ft: %d, 10001-20000ft: %d, >20000ft: %d\n",
		low, mid, high, upper)
}

func describeTrack(track models.AircraftTrack, location *models.MissionLocation) string {
	ident := track.Callsign
	if ident == "" {
		ident = track.ICAO
	}
	if ident == "" {
		ident = "unknown"
	}

	parts := []string{ident}
	if track.Altitude != nil {
		parts = append(parts, fmt.Sprintf("%.0f ft", *track.Altitude))
	}
	if track.GroundSpeed != nil {
		parts = append(parts, fmt.Sprintf("%.0f kt", *track.GroundSpeed))
	}
	if track.Heading != nil {
		parts = append(parts, fmt.Sprintf("hdg %.0f", *track.Heading))
	}
	if location != nil {
		nm := distanceNM(location.Latitude, location.Longitude, track.Lat, track.Lon)
		parts = append(parts, fmt.Sprintf("%.1f NM away", nm))
	}
	return strings.Join(parts, ", ")
}

func summarizeRadio(messages []models.StoredEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- %d radio packets in window\n", len(messages))

	limit := len(messages)
	if limit > radioSummaryLimit {
		limit = radioSummaryLimit
	}
	for _, msg := range messages[:limit] {
		source, _ := msg.Metadata["source_callsign"].(string)
		if source == "" {
			source = "unknown"
		}
		line := fmt.Sprintf("- %s at %s", source, msg.Timestamp.Format("15:04:05"))
		if lat, ok := msg.Metadata["lat"].(float64); ok {
			if lon, ok := msg.Metadata["lon"].(float64); ok {
				line += fmt.Sprintf(" (%.4f, %.4f)", lat, lon)
			}
		}
		if text, ok := msg.Metadata["text"].(string); ok && text != "" {
			line += ": " + text
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// distanceNM computes the great-circle distance in nautical miles.
func distanceNM(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusNM = 3440.065

	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLon := rad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusNM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

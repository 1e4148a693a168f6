// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

package analysis

import (
	"context"
	"time"

	"github.com/sentinelai/sentinel/internal/database"
	"github.com/sentinelai/sentinel/internal/logging"
	"github.com/sentinelai/sentinel/internal/models"
)

// radioHistoryLimit caps radio messages loaded into a context payload.
const radioHistoryLimit = 100

// radioLookback is the default radio-history window when the request gives
// no explicit start.
const radioLookback = time.Hour

// ContextPayload is the merged bundle of mission metadata and enrichment
// data handed to an analysis handler. Enrichment fields are nil when the
// corresponding source is disabled or unavailable.
type ContextPayload struct {
	MissionID       string
	MissionMetadata map[string]interface{}
	Signals         []models.MissionSignal
	Notes           string
	Location        *models.MissionLocation
	TimeWindow      *models.TimeWindow

	Weather       *models.WeatherSnapshot
	AirTraffic    []models.AircraftTrack
	RadioMessages []models.StoredEvent
}

// WeatherProvider fetches a weather snapshot for a location.
type WeatherProvider interface {
	GetWeather(ctx context.Context, lat, lon float64, window *models.TimeWindow) (*models.WeatherSnapshot, error)
}

// AirTrafficProvider fetches nearby aircraft tracks.
type AirTrafficProvider interface {
	GetAirTraffic(ctx context.Context, lat, lon, radiusNM float64) ([]models.AircraftTrack, error)
}

// RadioStore loads previously persisted radio events.
type RadioStore interface {
	ListEvents(ctx context.Context, filter database.EventFilter) ([]models.StoredEvent, error)
}

// ContextBuilder assembles mission context payloads. Each enrichment is
// feature-flag gated and fails soft: a disabled or failing source leaves its
// payload field nil, never aborts the build.
type ContextBuilder struct {
	weather WeatherProvider
	adsb    AirTrafficProvider
	radio   RadioStore

	weatherEnabled bool
	adsbEnabled    bool
	radioEnabled   bool

	now func() time.Time
}

// NewContextBuilder wires a builder from its enrichment sources. A nil
// source behaves as disabled regardless of its flag.
func NewContextBuilder(weather WeatherProvider, adsb AirTrafficProvider, radio RadioStore,
	weatherEnabled, adsbEnabled, radioEnabled bool) *ContextBuilder {
	return &ContextBuilder{
		weather:        weather,
		adsb:           adsb,
		radio:          radio,
		weatherEnabled: weatherEnabled && weather != nil,
		adsbEnabled:    adsbEnabled && adsb != nil,
		radioEnabled:   radioEnabled && radio != nil,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Build produces the context payload for one analysis request. It never
// fails: enrichment errors degrade to nil fields.
func (b *ContextBuilder) Build(ctx context.Context, req *models.MissionAnalysisRequest) *ContextPayload {
	payload := &ContextPayload{
		MissionID:       req.MissionID,
		MissionMetadata: req.MissionMetadata,
		Signals:         req.Signals,
		Notes:           req.Notes,
		Location:        req.Location,
		TimeWindow:      req.TimeWindow,
	}

	if b.weatherEnabled && req.Location != nil {
		snapshot, err := b.weather.GetWeather(ctx, req.Location.Latitude, req.Location.Longitude, req.TimeWindow)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Weather enrichment unavailable")
		} else {
			payload.Weather = snapshot
		}
	}

	if b.adsbEnabled && req.Location != nil {
		tracks, err := b.adsb.GetAirTraffic(ctx, req.Location.Latitude, req.Location.Longitude, 0)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Air traffic enrichment unavailable")
		} else if len(tracks) > 0 {
			payload.AirTraffic = tracks
		}
	}

	if b.radioEnabled {
		payload.RadioMessages = b.loadRadioHistory(ctx, req)
	}

	return payload
}

// loadRadioHistory reads stored radio events inside the effective window:
// explicit start, else one hour back; explicit end, else unbounded.
func (b *ContextBuilder) loadRadioHistory(ctx context.Context, req *models.MissionAnalysisRequest) []models.StoredEvent {
	filter := database.EventFilter{
		MissionID: req.MissionID,
		EventType: "aprs",
		Since:     b.now().Add(-radioLookback),
		Limit:     radioHistoryLimit,
	}
	if req.TimeWindow != nil && req.TimeWindow.Start != nil {
		filter.Since = *req.TimeWindow.Start
	}
	if req.TimeWindow != nil && req.TimeWindow.End != nil {
		filter.Until = *req.TimeWindow.End
	}

	events, err := b.radio.ListEvents(ctx, filter)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Radio history enrichment unavailable")
		return nil
	}
	return events
}

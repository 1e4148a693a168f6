// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

package ingest

import (
	"context"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/sentinelai/sentinel/internal/config"
	"github.com/sentinelai/sentinel/internal/logging"
	"github.com/sentinelai/sentinel/internal/metrics"
	"github.com/sentinelai/sentinel/internal/models"
)

// Unit conversions from the provider's metric state vectors.
const (
	metersToFeet = 3.28084
	mpsToKnots   = 1.94384
	mpsToFeetMin = 196.850394
	minLonScale  = 0.0001
)

// ADSBIngestor fetches nearby aircraft from an OpenSky-compatible states
// endpoint. Provider failures degrade to an empty track list; air traffic is
// enrichment, not a hard dependency.
type ADSBIngestor struct {
	baseURL         string
	defaultRadiusNM float64
	httpClient      *http.Client
	limiter         *rate.Limiter
}

// NewADSBIngestor builds an air-traffic ingestor. A nil client gets a
// default with the configured timeout.
func NewADSBIngestor(cfg config.ADSBConfig, httpClient *http.Client) *ADSBIngestor {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	radius := cfg.DefaultRadiusNM
	if radius <= 0 {
		radius = 25
	}

	return &ADSBIngestor{
		baseURL:         cfg.BaseURL,
		defaultRadiusNM: radius,
		httpClient:      httpClient,
		// Anonymous OpenSky access is tightly rate limited upstream.
		limiter: rate.NewLimiter(rate.Every(time.Second), 2),
	}
}

// openSkyResponse is the OpenSky states payload. Each state is a
// heterogeneous array, so entries decode as raw values.
type openSkyResponse struct {
	Time   int64           `json:"time"`
	States [][]interface{} `json:"states"`
}

// GetAirTraffic returns aircraft within radiusNM nautical miles of the
// location. Zero radius uses the configured default. Provider failures are
// logged and yield an empty list.
func (a *ADSBIngestor) GetAirTraffic(ctx context.Context, lat, lon, radiusNM float64) ([]models.AircraftTrack, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	radius := radiusNM
	if radius <= 0 {
		radius = a.defaultRadiusNM
	}

	// One nautical mile is one minute of latitude; longitude shrinks with
	// cos(lat), clamped to avoid blowing up near the poles.
	latDelta := radius / 60.0
	lonDelta := radius / math.Max(60.0*math.Cos(lat*math.Pi/180), minLonScale)

	params := url.Values{}
	params.Set("lamin", formatFloat(lat-latDelta))
	params.Set("lomin", formatFloat(lon-lonDelta))
	params.Set("lamax", formatFloat(lat+latDelta))
	params.Set("lomax", formatFloat(lon+lonDelta))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return []models.AircraftTrack{}, nil
	}

	resp, err := a.httpClient.Do(req)
	metrics.RecordIngestorRequest("adsb", err)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logging.Ctx(ctx).Warn().Err(err).Msg("ADS-B request failed")
		return []models.AircraftTrack{}, nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		logging.Ctx(ctx).Warn().Msg("ADS-B provider rate limit encountered")
		return []models.AircraftTrack{}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logging.Ctx(ctx).Warn().
			Int("status", resp.StatusCode).
			Msg("ADS-B provider returned error")
		return []models.AircraftTrack{}, nil
	}

	var payload openSkyResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to parse ADS-B response")
		return []models.AircraftTrack{}, nil
	}

	tracks := make([]models.AircraftTrack, 0, len(payload.States))
	for _, state := range payload.States {
		if track := normalizeTrack(state); track != nil {
			tracks = append(tracks, *track)
		}
	}

	logging.Ctx(ctx).Debug().Int("tracks", len(tracks)).Msg("Ingested aircraft tracks")
	return tracks, nil
}

// OpenSky state vector indices.
const (
	stateICAO         = 0
	stateCallsign     = 1
	stateTimePosition = 3
	stateLastContact  = 4
	stateLongitude    = 5
	stateLatitude     = 6
	stateBaroAltitude = 7
	stateVelocity     = 9
	stateTrueTrack    = 10
	stateVerticalRate = 11
	stateGeoAltitude  = 13
)

// normalizeTrack converts one raw state vector into an AircraftTrack,
// returning nil when the entry carries no position.
func normalizeTrack(state []interface{}) *models.AircraftTrack {
	if len(state) < 7 {
		return nil
	}

	lon := floatAt(state, stateLongitude)
	lat := floatAt(state, stateLatitude)
	if lat == nil || lon == nil {
		return nil
	}

	track := &models.AircraftTrack{
		ICAO:     strings.ToUpper(stringAt(state, stateICAO)),
		Callsign: strings.TrimSpace(stringAt(state, stateCallsign)),
		Lat:      *lat,
		Lon:      *lon,
		Heading:  floatAt(state, stateTrueTrack),
	}

	// Geometric altitude when reported, barometric otherwise.
	altitudeM := floatAt(state, stateGeoAltitude)
	if altitudeM == nil {
		altitudeM = floatAt(state, stateBaroAltitude)
	}
	track.Altitude = scale(altitudeM, metersToFeet)
	track.GroundSpeed = scale(floatAt(state, stateVelocity), mpsToKnots)
	track.VerticalRate = scale(floatAt(state, stateVerticalRate), mpsToFeetMin)

	lastSeen := floatAt(state, stateLastContact)
	if lastSeen == nil {
		lastSeen = floatAt(state, stateTimePosition)
	}
	if lastSeen != nil {
		ts := time.Unix(int64(*lastSeen), 0).UTC()
		track.LastSeen = &ts
	}

	return track
}

func floatAt(state []interface{}, idx int) *float64 {
	if idx >= len(state) {
		return nil
	}
	switch v := state[idx].(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	default:
		return nil
	}
}

func stringAt(state []interface{}, idx int) string {
	if idx >= len(state) {
		return ""
	}
	if s, ok := state[idx].(string); ok {
		return s
	}
	return ""
}

func scale(v *float64, factor float64) *float64 {
	if v == nil {
		return nil
	}
	scaled := *v * factor
	return &scaled
}

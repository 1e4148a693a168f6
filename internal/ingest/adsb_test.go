// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

package ingest

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/sentinelai/sentinel/internal/config"
)

// One OpenSky state vector: icao, callsign, country, time_position,
// last_contact, lon, lat, baro_alt, on_ground, velocity, true_track,
// vertical_rate, sensors, geo_alt, ...
const statesPayload = `{
	"time": 1787000000,
	"states": [
		["abc123", "UAL123  ", "United States", 1786999990, 1786999995,
		 -122.40, 37.70, 1200.0, false, 150.0, 270.0, 5.0, null, 1300.0],
		["def456", null, "Canada", 1786999990, null,
		 -122.50, 37.80, 900.0, false, null, null, null],
		["nopos1", "GHOST", "Nowhere", null, null, null, null, 1000.0]
	]
}`

func newADSBIngestor(srv *httptest.Server) *ADSBIngestor {
	return NewADSBIngestor(config.ADSBConfig{
		BaseURL:         srv.URL,
		Timeout:         5 * time.Second,
		DefaultRadiusNM: 25,
	}, srv.Client())
}

func TestGetAirTrafficNormalizesStates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(statesPayload))
	}))
	defer srv.Close()

	tracks, err := newADSBIngestor(srv).GetAirTraffic(context.Background(), 37.75, -122.45, 0)
	if err != nil {
		t.Fatalf("GetAirTraffic() error = %v", err)
	}

	// The position-less entry is dropped.
	if len(tracks) != 2 {
		t.Fatalf("got %d tracks, want 2", len(tracks))
	}

	first := tracks[0]
	if first.ICAO != "ABC123" {
		t.Errorf("ICAO = %q, want ABC123 (uppercased)", first.ICAO)
	}
	if first.Callsign != "UAL123" {
		t.Errorf("Callsign = %q, want UAL123 (trimmed)", first.Callsign)
	}
	if first.Lat != 37.70 || first.Lon != -122.40 {
		t.Errorf("position = %v,%v, want 37.70,-122.40", first.Lat, first.Lon)
	}

	// Geometric altitude (1300 m) wins over barometric; converted to feet.
	if first.Altitude == nil || math.Abs(*first.Altitude-1300*3.28084) > 0.01 {
		t.Errorf("Altitude = %v, want %v ft", first.Altitude, 1300*3.28084)
	}
	if first.GroundSpeed == nil || math.Abs(*first.GroundSpeed-150*1.94384) > 0.01 {
		t.Errorf("GroundSpeed = %v, want %v kt", first.GroundSpeed, 150*1.94384)
	}
	if first.Heading == nil || *first.Heading != 270 {
		t.Errorf("Heading = %v, want 270", first.Heading)
	}
	if first.VerticalRate == nil || math.Abs(*first.VerticalRate-5*196.850394) > 0.01 {
		t.Errorf("VerticalRate = %v, want %v fpm", first.VerticalRate, 5*196.850394)
	}
	if first.LastSeen == nil || first.LastSeen.Unix() != 1786999995 {
		t.Errorf("LastSeen = %v, want last_contact 1786999995", first.LastSeen)
	}

	second := tracks[1]
	if second.Callsign != "" {
		t.Errorf("Callsign = %q, want empty for null", second.Callsign)
	}
	// Short vector without geometric altitude falls back to barometric.
	if second.Altitude == nil || math.Abs(*second.Altitude-900*3.28084) > 0.01 {
		t.Errorf("Altitude = %v, want baro fallback", second.Altitude)
	}
	if second.GroundSpeed != nil {
		t.Errorf("GroundSpeed = %v, want nil", second.GroundSpeed)
	}
	// With last_contact null, time_position is used.
	if second.LastSeen == nil || second.LastSeen.Unix() != 1786999990 {
		t.Errorf("LastSeen = %v, want time_position fallback", second.LastSeen)
	}
}

func TestGetAirTrafficBoundingBox(t *testing.T) {
	var query url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		_, _ = w.Write([]byte(`{"time": 0, "states": []}`))
	}))
	defer srv.Close()

	lat, lon, radius := 37.75, -122.45, 30.0
	if _, err := newADSBIngestor(srv).GetAirTraffic(context.Background(), lat, lon, radius); err != nil {
		t.Fatalf("GetAirTraffic() error = %v", err)
	}

	latDelta := radius / 60.0
	lonDelta := radius / (60.0 * math.Cos(lat*math.Pi/180))

	checks := map[string]float64{
		"lamin": lat - latDelta,
		"lamax": lat + latDelta,
		"lomin": lon - lonDelta,
		"lomax": lon + lonDelta,
	}
	for param, want := range checks {
		got, err := strconv.ParseFloat(query.Get(param), 64)
		if err != nil {
			t.Fatalf("param %s = %q: %v", param, query.Get(param), err)
		}
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("param %s = %v, want %v", param, got, want)
		}
	}
}

func TestGetAirTrafficFailSoft(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "rate limited",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
		},
		{
			name: "malformed payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("not json"))
			},
		},
		{
			name: "null states",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"time": 0, "states": null}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			tracks, err := newADSBIngestor(srv).GetAirTraffic(context.Background(), 37.75, -122.45, 0)
			if err != nil {
				t.Fatalf("GetAirTraffic() error = %v, want nil (fail soft)", err)
			}
			if len(tracks) != 0 {
				t.Errorf("got %d tracks, want 0", len(tracks))
			}
		})
	}
}

func TestGetAirTrafficConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	ing := NewADSBIngestor(config.ADSBConfig{BaseURL: srv.URL, Timeout: time.Second}, nil)
	tracks, err := ing.GetAirTraffic(context.Background(), 1, 2, 0)
	if err != nil {
		t.Fatalf("GetAirTraffic() error = %v, want nil (fail soft)", err)
	}
	if len(tracks) != 0 {
		t.Errorf("got %d tracks, want 0", len(tracks))
	}
}

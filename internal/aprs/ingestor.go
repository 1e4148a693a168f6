// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

package aprs

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/sentinelai/sentinel/internal/auth"
	"github.com/sentinelai/sentinel/internal/config"
	"github.com/sentinelai/sentinel/internal/logging"
	"github.com/sentinelai/sentinel/internal/metrics"
	"github.com/sentinelai/sentinel/internal/models"
)

// loginVersion identifies this client to the APRS-IS server.
const loginVersion = "SentinelAI 1.0"

// RetryPolicy controls reconnect backoff. Backoff starts at Initial,
// multiplies by Multiplier per failed cycle and never exceeds Cap. A
// successful connect-and-stream cycle resets it.
type RetryPolicy struct {
	Initial    time.Duration
	Multiplier float64
	Cap        time.Duration
}

// DefaultRetryPolicy matches the APRS-IS operator guidance: 1s doubling up
// to one minute.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Initial: time.Second, Multiplier: 2, Cap: 60 * time.Second}
}

// Next returns the backoff that follows current.
func (p RetryPolicy) Next(current time.Duration) time.Duration {
	next := time.Duration(float64(current) * p.Multiplier)
	if next > p.Cap {
		next = p.Cap
	}
	return next
}

// Ingestor maintains a long-running APRS-IS TCP connection and forwards each
// parsed packet to the events API. It implements suture.Service.
type Ingestor struct {
	cfg       config.APRSConfig
	eventsURL string
	missionID string
	apiKey    string

	httpClient *http.Client
	retry      RetryPolicy

	// dial is injectable for tests; defaults to a net.Dialer.
	dial func(ctx context.Context, addr string) (net.Conn, error)
}

// Option customizes an Ingestor.
type Option func(*Ingestor)

// WithDialer overrides the TCP dialer.
func WithDialer(dial func(ctx context.Context, addr string) (net.Conn, error)) Option {
	return func(i *Ingestor) { i.dial = dial }
}

// WithRetryPolicy overrides the reconnect backoff policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(i *Ingestor) { i.retry = p }
}

// WithMissionID tags forwarded events with a mission.
func WithMissionID(missionID string) Option {
	return func(i *Ingestor) { i.missionID = missionID }
}

// WithAPIKey authenticates the event posts when the API enforces keys.
func WithAPIKey(key string) Option {
	return func(i *Ingestor) { i.apiKey = key }
}

// NewIngestor creates an APRS-IS ingestor posting events to
// baseURL + /api/v1/events.
func NewIngestor(cfg config.APRSConfig, baseURL string, httpClient *http.Client, opts ...Option) *Ingestor {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	ing := &Ingestor{
		cfg:        cfg,
		eventsURL:  baseURL + "/api/v1/events",
		httpClient: httpClient,
		retry:      DefaultRetryPolicy(),
	}
	ing.dial = func(ctx context.Context, addr string) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, "tcp", addr)
	}

	for _, opt := range opts {
		opt(ing)
	}
	return ing
}

// Serve runs the APRS stream until the context is cancelled. Cancellation is
// the only stop mechanism; any other exit is a connection failure that
// triggers backoff and reconnect.
func (i *Ingestor) Serve(ctx context.Context) error {
	backoff := i.retry.Initial

	for {
		err := i.connectAndStream(ctx)
		if ctx.Err() != nil {
			logging.Info().Msg("APRS ingestor stopping")
			return ctx.Err()
		}
		if err != nil {
			logging.Warn().Err(err).Msg("APRS ingestor error")
		} else {
			// The server closed a healthy stream; start fresh.
			backoff = i.retry.Initial
		}

		metrics.APRSReconnects.Inc()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = i.retry.Next(backoff)
	}
}

// connectAndStream dials APRS-IS, logs in and consumes lines until the
// connection drops or the context is cancelled.
func (i *Ingestor) connectAndStream(ctx context.Context) error {
	addr := net.JoinHostPort(i.cfg.Host, strconv.Itoa(i.cfg.Port))
	conn, err := i.dial(ctx, addr)
	if err != nil {
		return fmt.Errorf("failed to connect to APRS-IS at %s: %w", addr, err)
	}

	// Unblock the read loop on cancellation.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
			_ = conn.Close()
		}
	}()

	logging.Info().
		Str("host", i.cfg.Host).
		Int("port", i.cfg.Port).
		Str("callsign", i.cfg.Callsign).
		Msg("Connected to APRS-IS")

	if _, err := conn.Write([]byte(i.loginLine())); err != nil {
		return fmt.Errorf("failed to send APRS-IS login: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), 64*1024)
	for scanner.Scan() {
		i.handleLine(ctx, scanner.Text())
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("APRS-IS read failed: %w", err)
	}

	logging.Info().Msg("APRS connection closed; will attempt reconnect")
	return nil
}

// loginLine builds the APRS-IS login command, including a server-side filter
// when configured.
func (i *Ingestor) loginLine() string {
	passcode := i.cfg.Passcode
	if passcode == "" {
		passcode = "-1" // receive-only login
	}

	line := fmt.Sprintf("user %s pass %s vers %s", i.cfg.Callsign, passcode, loginVersion)
	if filter := i.buildFilter(); filter != "" {
		line += " filter " + filter
	}
	return line + "\n"
}

// buildFilter returns the server-side filter expression. An explicit filter
// wins; otherwise a radius filter is derived from center+radius settings.
func (i *Ingestor) buildFilter() string {
	if i.cfg.Filter != "" {
		return i.cfg.Filter
	}
	if i.cfg.FilterRadiusKM > 0 {
		return fmt.Sprintf("r/%s/%s/%s",
			formatCoord(i.cfg.FilterCenterLat),
			formatCoord(i.cfg.FilterCenterLon),
			formatCoord(i.cfg.FilterRadiusKM))
	}
	return ""
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// handleLine parses one line and forwards the packet to the events API.
func (i *Ingestor) handleLine(ctx context.Context, line string) {
	packet := ParsePacket(line)
	if packet == nil {
		metrics.APRSPacketsSkipped.Inc()
		return
	}
	metrics.APRSPacketsParsed.Inc()

	event := models.Event{
		EventType:   "aprs",
		Description: packet.Text,
		MissionID:   i.missionID,
		Source:      "aprs_is",
		Timestamp:   packet.Timestamp,
		Metadata: map[string]interface{}{
			"source_callsign": packet.Source,
			"dest_callsign":   packet.Destination,
			"lat":             packet.Lat,
			"lon":             packet.Lon,
			"altitude_m":      packet.AltitudeM,
			"text":            packet.Text,
			"raw_packet":      packet.Raw,
		},
	}

	body, err := json.Marshal(&event)
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to encode APRS event")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.eventsURL, bytes.NewReader(body))
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to build APRS event request")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if i.apiKey != "" {
		req.Header.Set(auth.APIKeyHeader, i.apiKey)
	}

	resp, err := i.httpClient.Do(req)
	if err != nil {
		logging.Warn().Err(err).Msg("APRS event post failed")
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		logging.Warn().
			Int("status", resp.StatusCode).
			Str("callsign", packet.Source).
			Msg("Failed to post APRS event")
	}
}

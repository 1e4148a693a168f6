// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

// Command server runs the Sentinel backend: event ingestion, mission
// analysis, APRS/weather/ADS-B enrichment and the websocket live feed,
// under a suture supervision tree.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sentinelai/sentinel/internal/ai"
	"github.com/sentinelai/sentinel/internal/analysis"
	"github.com/sentinelai/sentinel/internal/api"
	"github.com/sentinelai/sentinel/internal/aprs"
	"github.com/sentinelai/sentinel/internal/auth"
	"github.com/sentinelai/sentinel/internal/config"
	"github.com/sentinelai/sentinel/internal/database"
	"github.com/sentinelai/sentinel/internal/ingest"
	"github.com/sentinelai/sentinel/internal/logging"
	"github.com/sentinelai/sentinel/internal/supervisor"
	"github.com/sentinelai/sentinel/internal/supervisor/services"
	"github.com/sentinelai/sentinel/internal/websocket"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Server exited with error")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("version", api.Version).
		Str("environment", cfg.Server.Environment).
		Msg("Starting sentinel")

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close database")
		}
	}()

	hub := websocket.NewHub()
	sweeper := database.NewRetentionSweeper(db, cfg.Retention.Days)

	var aiClient *ai.Client
	if cfg.AI.APIKey != "" {
		aiClient = ai.NewClient(cfg.AI, nil)
	} else {
		logging.Warn().Msg("AI backend not configured; mission analysis degrades to rule-based output")
	}

	advisor := buildAdvisor(cfg, db, aiClient)
	engine := analysis.NewRuleBasedEngine(db)

	handler := api.NewHandler(db, hub, engine, advisor, aiClient, sweeper, cfg)
	authenticator := auth.NewAuthenticator(db, cfg)
	router := api.NewRouter(handler, authenticator)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddIngestService(services.NewHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(httpServer, 10*time.Second))

	if cfg.APRS.Enabled {
		ingestor := aprs.NewIngestor(cfg.APRS, cfg.Server.BaseURL, nil,
			aprs.WithAPIKey(cfg.APRS.APIKey))
		tree.AddIngestService(services.NewAPRSService(ingestor))
		logging.Info().
			Str("host", cfg.APRS.Host).
			Int("port", cfg.APRS.Port).
			Str("callsign", cfg.APRS.Callsign).
			Msg("APRS ingestor enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().
		Str("addr", httpServer.Addr).
		Bool("require_api_key", cfg.Security.RequireAPIKey).
		Msg("Serving")

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor: %w", err)
	}

	if unstopped, reportErr := tree.UnstoppedServiceReport(); reportErr == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop before timeout")
		}
	}

	logging.Info().Msg("Shutdown complete")
	return nil
}

// buildAdvisor wires the AI advisor with whichever context sources are
// enabled. A nil AI client still yields an advisor; its responses degrade
// to the unavailable placeholder.
func buildAdvisor(cfg *config.Config, db *database.DB, aiClient *ai.Client) *analysis.Advisor {
	var weather analysis.WeatherProvider
	if cfg.Weather.Enabled {
		weather = ingest.NewWeatherIngestor(cfg.Weather, nil)
	}

	var adsb analysis.AirTrafficProvider
	if cfg.ADSB.Enabled {
		adsb = ingest.NewADSBIngestor(cfg.ADSB, nil)
	}

	builder := analysis.NewContextBuilder(weather, adsb, db,
		cfg.Weather.Enabled, cfg.ADSB.Enabled, true)

	var backend analysis.Backend
	if aiClient != nil {
		backend = aiClient
	} else {
		backend = unavailableBackend{}
	}
	return analysis.NewAdvisor(backend, builder)
}

// unavailableBackend stands in when no AI credentials are configured, so
// analysis requests degrade instead of dereferencing a nil client.
type unavailableBackend struct{}

func (unavailableBackend) AnalyzeMissionContext(ctx context.Context, prompt, systemMessage string) (string, error) {
	return "", ai.ErrNotConfigured
}

func (unavailableBackend) AnalyzeMissionWithIntent(ctx context.Context, systemMessage string, payload interface{}) (map[string]interface{}, error) {
	return nil, ai.ErrNotConfigured
}

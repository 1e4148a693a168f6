// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sentinelai/sentinel/internal/ai"
	"github.com/sentinelai/sentinel/internal/analysis"
	"github.com/sentinelai/sentinel/internal/config"
	"github.com/sentinelai/sentinel/internal/database"
	wshub "github.com/sentinelai/sentinel/internal/websocket"
)

// Version is the build identifier reported by the health endpoint. Set via
// -ldflags at build time.
var Version = "dev"

// Handler bundles the dependencies of the HTTP endpoints.
type Handler struct {
	db       *database.DB
	hub      *wshub.Hub
	engine   analysis.Engine
	advisor  *analysis.Advisor
	aiClient *ai.Client
	sweeper  *database.RetentionSweeper
	cfg      *config.Config

	upgrader websocket.Upgrader
	started  time.Time
}

// NewHandler wires the endpoint dependencies. hub, advisor, aiClient and
// sweeper may be nil; the affected endpoints degrade or report unavailable.
func NewHandler(db *database.DB, hub *wshub.Hub, engine analysis.Engine,
	advisor *analysis.Advisor, aiClient *ai.Client,
	sweeper *database.RetentionSweeper, cfg *config.Config) *Handler {
	h := &Handler{
		db:       db,
		hub:      hub,
		engine:   engine,
		advisor:  advisor,
		aiClient: aiClient,
		sweeper:  sweeper,
		cfg:      cfg,
		started:  time.Now().UTC(),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkWSOrigin,
	}
	return h
}

// checkWSOrigin mirrors the CORS allowlist for websocket upgrades. Requests
// without an Origin header (CLI clients, same-origin) are accepted.
func (h *Handler) checkWSOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.cfg.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

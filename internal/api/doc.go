// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

// Package api implements the HTTP surface of the Sentinel backend: event
// ingestion, mission status and AI analysis endpoints, the websocket event
// feed, and admin key management, all served under /api/v1 behind API key
// authentication. Health, metrics and the root banner stay unauthenticated.
package api

// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

// Package models defines the shared domain types exchanged between the API
// layer, the ingestors, the analysis engines and the persistence layer.
package models

// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

package services

import (
	"context"
)

// StreamIngestor matches *aprs.Ingestor's Serve method. The ingestor owns
// its own reconnect loop; Serve returns only when the context ends.
type StreamIngestor interface {
	Serve(ctx context.Context) error
}

// APRSService wraps the APRS-IS ingestor as a supervised service.
type APRSService struct {
	ingestor StreamIngestor
	name     string
}

// NewAPRSService creates an APRS ingestor service wrapper.
func NewAPRSService(ingestor StreamIngestor) *APRSService {
	return &APRSService{
		ingestor: ingestor,
		name:     "aprs-ingestor",
	}
}

// Serve implements suture.Service.
func (s *APRSService) Serve(ctx context.Context) error {
	return s.ingestor.Serve(ctx)
}

// String implements fmt.Stringer for supervisor logging.
func (s *APRSService) String() string {
	return s.name
}

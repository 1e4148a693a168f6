// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

// Package aprs parses APRS-IS packets and maintains the long-running
// APRS-IS ingestion connection.
package aprs

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Packet is the normalized form of one APRS-IS packet.
type Packet struct {
	// Source is the transmitting callsign.
	Source string

	// Destination is the first element of the digipeater path, if any.
	Destination string

	// Lat and Lon are decimal degrees; nil when the packet carries no
	// parseable position.
	Lat *float64
	Lon *float64

	// AltitudeM is the reported altitude in meters, if present.
	AltitudeM *float64

	// Text is the packet body.
	Text string

	// Timestamp is the receive time (UTC); APRS packets carry no reliable
	// origination time in the subset handled here.
	Timestamp time.Time

	// Raw is the cleaned packet line as received.
	Raw string
}

// The position parser handles uncompressed position reports only
// (no mic-e, no compressed format). Latitude is ddmm.mm, longitude dddmm.mm.
var (
	positionRe = regexp.MustCompile(`(\d{4,5}\.\d{2})([NS])(.)(\d{5}\.\d{2})([EW])`)
	altitudeRe = regexp.MustCompile(`/A=(\d{6})`)
)

// ParsePacket parses a single APRS-IS line. It returns nil for server
// comments (lines starting with '#'), empty lines, and lines that are not
// APRS packets. Packets without a parseable position are still returned with
// nil coordinates.
func ParsePacket(line string) *Packet {
	cleaned := strings.TrimSpace(line)
	if cleaned == "" || strings.HasPrefix(cleaned, "#") {
		return nil
	}

	colon := strings.Index(cleaned, ":")
	if colon < 0 || !strings.Contains(cleaned, ">") {
		return nil
	}

	header, body := cleaned[:colon], cleaned[colon+1:]
	source, path, _ := strings.Cut(header, ">")
	if source == "" {
		return nil
	}

	var destination string
	if path != "" {
		destination, _, _ = strings.Cut(path, ",")
	}

	packet := &Packet{
		Source:      source,
		Destination: destination,
		Text:        strings.TrimSpace(body),
		Timestamp:   time.Now().UTC(),
		Raw:         cleaned,
	}

	if m := positionRe.FindStringSubmatch(body); m != nil {
		lat, latOK := dmToDecimal(m[1], m[2])
		lon, lonOK := dmToDecimal(m[4], m[5])
		if latOK && lonOK {
			packet.Lat = &lat
			packet.Lon = &lon
		}
	}

	if m := altitudeRe.FindStringSubmatch(body); m != nil {
		if feet, err := strconv.ParseFloat(m[1], 64); err == nil {
			meters := feet * 0.3048
			packet.AltitudeM = &meters
		}
	}

	return packet
}

// dmToDecimal converts APRS degrees-and-minutes notation ("3733.50") into
// decimal degrees, negating for south and west hemispheres.
func dmToDecimal(raw, direction string) (float64, bool) {
	if len(raw) < 5 {
		return 0, false
	}
	degrees, err := strconv.ParseFloat(raw[:len(raw)-5], 64)
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.ParseFloat(raw[len(raw)-5:], 64)
	if err != nil {
		return 0, false
	}

	value := degrees + minutes/60.0
	if direction == "S" || direction == "W" {
		value = -value
	}
	return value, true
}

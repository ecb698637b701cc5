// Waypool Realtime - Ride Matchmaking and Channel Coordination
// Copyright 2026 Waypool
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/waypool/waypool-realtime

package models

// HealthStatus reports the operational state of the realtime server.
//
// Status is "healthy" while the event hub is running and "degraded"
// otherwise. Connections and Channels reflect the live registry and
// channel table sizes at the time of the request.
type HealthStatus struct {
	Status      string  `json:"status"`
	Version     string  `json:"version"`
	Connections int     `json:"connections"`
	Channels    int     `json:"channels"`
	Uptime      float64 `json:"uptime_seconds"`
}

// Waypool Realtime - Ride Matchmaking and Channel Coordination
// Copyright 2026 Waypool
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/waypool/waypool-realtime

package api

import (
	"net/http"
	"time"

	"github.com/waypool/waypool-realtime/internal/models"
)

// Health reports the hub state plus live connection and channel counts for
// operational visibility.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if !h.hub.Running() {
		status = "degraded"
	}

	health := models.HealthStatus{
		Status:      status,
		Version:     Version,
		Connections: h.hub.ConnectionCount(),
		Channels:    h.hub.ChannelCount(),
		Uptime:      time.Since(h.startTime).Seconds(),
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   health,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// HealthLive is the liveness probe: 200 whenever the process is alive,
// regardless of hub state.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"alive":  true,
			"uptime": time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// HealthReady is the readiness probe: 200 only once the hub loop is
// draining lifecycle events, 503 otherwise.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if !h.hub.Running() {
		respondError(w, http.StatusServiceUnavailable, "NOT_READY", "realtime hub is not running", nil)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"ready": true,
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

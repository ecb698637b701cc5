// Waypool Realtime - Ride Matchmaking and Channel Coordination
// Copyright 2026 Waypool
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/waypool/waypool-realtime

// Package api provides the HTTP surface of the realtime server: the
// WebSocket upgrade endpoint, health probes and Prometheus metrics.
package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/waypool/waypool-realtime/internal/auth"
	"github.com/waypool/waypool-realtime/internal/config"
	"github.com/waypool/waypool-realtime/internal/logging"
	"github.com/waypool/waypool-realtime/internal/metrics"
	"github.com/waypool/waypool-realtime/internal/realtime"
)

// Version reported by the health endpoint.
const Version = "1.0.0"

// Handler holds the dependencies of all HTTP handlers.
type Handler struct {
	hub       *realtime.Hub
	verifier  *auth.Verifier
	config    *config.Config
	startTime time.Time
}

// NewHandler creates the HTTP handler set.
func NewHandler(hub *realtime.Hub, verifier *auth.Verifier, cfg *config.Config) *Handler {
	return &Handler{
		hub:       hub,
		verifier:  verifier,
		config:    cfg,
		startTime: time.Now(),
	}
}

// WebSocket authenticates and upgrades a realtime connection.
//
// The bearer token is verified before the upgrade; a bad credential is
// refused with 401 and never reaches the event router. Optional query
// metadata (screenName, rideId, deviceId) is logged for diagnostics only
// and plays no part in protocol logic.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	identity, err := h.verifier.VerifyToken(auth.TokenFromRequest(r))
	if err != nil {
		metrics.RecordAuthFailure(auth.FailureReason(err))
		logging.Warn().
			Str("reason", auth.FailureReason(err)).
			Str("remote_addr", r.RemoteAddr).
			Msg("websocket connection refused")
		respondError(w, http.StatusUnauthorized, auth.ErrorCode(err), "connection refused: "+err.Error(), nil)
		return
	}

	q := r.URL.Query()
	logging.Info().
		Str("user_id", identity.UserID).
		Str("screen_name", sanitizeLogValue(q.Get("screenName"))).
		Str("ride_id_hint", sanitizeLogValue(q.Get("rideId"))).
		Str("device_id", sanitizeLogValue(q.Get("deviceId"))).
		Msg("websocket connection authenticated")

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		logging.Error().Err(err).Msg("websocket upgrade error")
		return
	}

	client := realtime.NewClient(h.hub, conn, identity.UserID, identity.Name)
	if !h.hub.EnqueueRegister(client) {
		logging.Warn().
			Str("user_id", identity.UserID).
			Msg("dropping connection, event hub not running")
		_ = conn.Close()
		return
	}
	client.Start()
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout against slow-client attacks.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates browser origins against the configured
// CORS list. Mobile clients send no Origin header and are allowed; the
// bearer token is their gate.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if h.config == nil {
		return true
	}

	for _, allowed := range h.config.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Warn().
		Str("origin", sanitizeLogValue(origin)).
		Msg("websocket connection rejected from unauthorized origin")
	return false
}

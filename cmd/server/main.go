// Waypool Realtime - Ride Matchmaking and Channel Coordination
// Copyright 2026 Waypool
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/waypool/waypool-realtime

// Package main is the entry point for the Waypool realtime server.
//
// Waypool Realtime is the matchmaking and ride-channel coordination socket
// server of the Waypool companion app. Clients open an authenticated
// WebSocket, subscribe to ride channels, relay join requests and
// accept/reject decisions, and observe member presence. All state is
// in-process memory; the CRUD backend and token issuance are external
// collaborators.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered Koanf v2 loading (defaults, YAML file, env)
//  2. Logging: zerolog with the configured level and format
//  3. Token verifier: HS256 against the shared JWT_SECRET
//  4. Event hub: connection registry + channel membership table
//  5. Supervisor tree: messaging layer (hub) and API layer (HTTP server)
//
// # Configuration
//
// Highest priority wins:
//   - Environment variables (JWT_SECRET, HTTP_PORT, LOG_LEVEL, ...)
//   - Config file (config.yaml, or CONFIG_PATH)
//   - Built-in defaults
//
// JWT_SECRET is required; 32+ characters outside development.
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP listener stops
// accepting connections, in-flight requests drain within the shutdown
// timeout, and the hub closes every websocket client.
//
// # Example Usage
//
//	export JWT_SECRET=$(openssl rand -base64 32)
//	export HTTP_PORT=8090
//	./waypool-realtime
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/waypool/waypool-realtime/internal/api"
	"github.com/waypool/waypool-realtime/internal/auth"
	"github.com/waypool/waypool-realtime/internal/config"
	"github.com/waypool/waypool-realtime/internal/logging"
	"github.com/waypool/waypool-realtime/internal/realtime"
	"github.com/waypool/waypool-realtime/internal/supervisor"
	"github.com/waypool/waypool-realtime/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Default logger; config not yet available.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("environment", cfg.Server.Environment).
		Msg("Starting Waypool Realtime")

	verifier, err := auth.NewVerifier(cfg.Security.JWTSecret)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create token verifier")
	}

	// Shared state is built here and injected; nothing is package-global.
	registry := realtime.NewRegistry()
	channels := realtime.NewChannelTable()
	hub := realtime.NewHub(cfg.Realtime, registry, channels)

	router := api.NewRouter(hub, verifier, cfg)
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddMessagingService(services.NewHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Server stopped gracefully")
}

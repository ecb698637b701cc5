// Waypool Realtime - Ride Matchmaking and Channel Coordination
// Copyright 2026 Waypool
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/waypool/waypool-realtime

package config

import (
	"strings"
	"testing"
	"time"
)

// testSecret satisfies the 32-character production minimum.
const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != 8090 {
		t.Errorf("expected default port 8090, got %d", cfg.Server.Port)
	}
	if cfg.Server.Environment != "development" {
		t.Errorf("expected development environment, got %q", cfg.Server.Environment)
	}
	if cfg.Realtime.SendBuffer != 256 {
		t.Errorf("expected send buffer 256, got %d", cfg.Realtime.SendBuffer)
	}
	if cfg.Realtime.PongWait != 60*time.Second {
		t.Errorf("expected pong wait 60s, got %v", cfg.Realtime.PongWait)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level info, got %q", cfg.Logging.Level)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("HTTP_PORT", "9191")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("WS_EVENT_RATE", "5")
	t.Setenv("CORS_ORIGINS", "https://app.waypool.io, https://staging.waypool.io")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != 9191 {
		t.Errorf("expected port 9191 from env, got %d", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %q", cfg.Logging.Level)
	}
	if cfg.Realtime.EventRate != 5 {
		t.Errorf("expected event rate 5, got %v", cfg.Realtime.EventRate)
	}
	if len(cfg.Security.CORSOrigins) != 2 {
		t.Fatalf("expected 2 CORS origins, got %v", cfg.Security.CORSOrigins)
	}
	if cfg.Security.CORSOrigins[1] != "https://staging.waypool.io" {
		t.Errorf("expected trimmed origin, got %q", cfg.Security.CORSOrigins[1])
	}
}

func TestValidateRejectsMissingSecret(t *testing.T) {
	cfg := defaultConfig()

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error for empty jwt secret")
	}
	if !strings.Contains(err.Error(), "jwt_secret") {
		t.Errorf("expected jwt_secret in error, got %v", err)
	}
}

func TestValidateRejectsShortSecretInProduction(t *testing.T) {
	cfg := defaultConfig()
	cfg.Server.Environment = "production"
	cfg.Security.JWTSecret = "too-short"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for short secret in production")
	}

	// Development tolerates short secrets.
	cfg.Server.Environment = "development"
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected short secret accepted in development, got %v", err)
	}
}

func TestValidateRejectsBadRealtimeSettings(t *testing.T) {
	cfg := defaultConfig()
	cfg.Security.JWTSecret = testSecret

	cfg.Realtime.SendBuffer = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero send buffer")
	}

	cfg.Realtime.SendBuffer = 256
	cfg.Realtime.EventRate = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero event rate")
	}
}

func TestEnvTransformFuncSkipsUnknown(t *testing.T) {
	if got := envTransformFunc("PATH"); got != "" {
		t.Errorf("expected unknown env var skipped, got %q", got)
	}
	if got := envTransformFunc("JWT_SECRET"); got != "security.jwt_secret" {
		t.Errorf("expected security.jwt_secret, got %q", got)
	}
}

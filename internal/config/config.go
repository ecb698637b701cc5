// Waypool Realtime - Ride Matchmaking and Channel Coordination
// Copyright 2026 Waypool
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/waypool/waypool-realtime

// Package config provides layered configuration loading for the realtime
// server using Koanf v2. Precedence is ENV > config file > built-in defaults.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the realtime server.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Realtime RealtimeConfig `koanf:"realtime"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Environment is "development" or "production". Production enforces
	// stricter validation (JWT secret length).
	Environment string `koanf:"environment"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig holds authentication and HTTP hardening settings.
type SecurityConfig struct {
	// JWTSecret is the shared HMAC secret used to verify bearer tokens
	// issued by the external account service.
	JWTSecret string `koanf:"jwt_secret"`

	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// RealtimeConfig holds WebSocket transport and event-handling settings.
type RealtimeConfig struct {
	// SendBuffer is the per-client outbound message buffer. A client whose
	// buffer is full has messages dropped (best-effort delivery).
	SendBuffer int `koanf:"send_buffer"`

	// MaxMessageBytes limits inbound frame size.
	MaxMessageBytes int64 `koanf:"max_message_bytes"`

	// WriteWait is the deadline for a single outbound write.
	WriteWait time.Duration `koanf:"write_wait"`

	// PongWait is how long to wait for a transport pong before the read
	// deadline expires. Ping frames are sent at 90% of this interval.
	PongWait time.Duration `koanf:"pong_wait"`

	// EventRate and EventBurst bound inbound events per connection
	// (token bucket). Events beyond the limit receive an error event.
	EventRate  float64 `koanf:"event_rate"`
	EventBurst int     `koanf:"event_burst"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// minJWTSecretLen is the minimum secret length accepted outside development.
const minJWTSecretLen = 32

// Validate checks the configuration for values that would prevent the
// server from operating safely. Called after all layers are loaded.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}

	if c.Security.JWTSecret == "" {
		return fmt.Errorf("security.jwt_secret is required (set JWT_SECRET)")
	}
	if c.Server.Environment != "development" && len(c.Security.JWTSecret) < minJWTSecretLen {
		return fmt.Errorf("security.jwt_secret must be at least %d characters in %s",
			minJWTSecretLen, c.Server.Environment)
	}

	if c.Realtime.SendBuffer < 1 {
		return fmt.Errorf("realtime.send_buffer must be positive")
	}
	if c.Realtime.MaxMessageBytes < 1 {
		return fmt.Errorf("realtime.max_message_bytes must be positive")
	}
	if c.Realtime.EventRate <= 0 {
		return fmt.Errorf("realtime.event_rate must be positive")
	}
	if c.Realtime.EventBurst < 1 {
		return fmt.Errorf("realtime.event_burst must be positive")
	}
	if c.Realtime.PongWait <= 0 || c.Realtime.WriteWait <= 0 {
		return fmt.Errorf("realtime.pong_wait and realtime.write_wait must be positive")
	}

	return nil
}

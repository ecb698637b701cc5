// Waypool Realtime - Ride Matchmaking and Channel Coordination
// Copyright 2026 Waypool
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/waypool/waypool-realtime

package services

import (
	"context"
)

// ContextHub matches *realtime.Hub's RunWithContext method without
// importing the realtime package.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// HubService wraps the event hub as a supervised service. RunWithContext
// already follows the suture.Service pattern; this wrapper only adds the
// name used in supervisor logs.
type HubService struct {
	hub  ContextHub
	name string
}

// NewHubService creates the hub service wrapper.
func NewHubService(hub ContextHub) *HubService {
	return &HubService{
		hub:  hub,
		name: "realtime-hub",
	}
}

// Serve implements suture.Service; returns ctx.Err() on normal shutdown.
func (s *HubService) Serve(ctx context.Context) error {
	return s.hub.RunWithContext(ctx)
}

// String implements fmt.Stringer; suture uses it in log messages.
func (s *HubService) String() string {
	return s.name
}

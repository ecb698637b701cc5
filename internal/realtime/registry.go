// Waypool Realtime - Ride Matchmaking and Channel Coordination
// Copyright 2026 Waypool
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/waypool/waypool-realtime

package realtime

import (
	"sync"
)

// Registry maps user identity to its single live connection. Exactly one
// connection per user is permitted; a newer connection for the same user
// supersedes the old one, which the hub then closes explicitly.
//
// Registry is owned by the hub and injected at startup; it is not ambient
// package state, so tests get a fresh instance each.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]*Client),
	}
}

// Register inserts or overwrites the entry for the client's user. If a
// previous connection for the same user existed, it is returned so the
// caller can notify and close it.
func (r *Registry) Register(client *Client) (evicted *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.clients[client.UserID]
	r.clients[client.UserID] = client

	if prev == client {
		return nil
	}
	return prev
}

// Lookup resolves a user identity to its live connection.
func (r *Registry) Lookup(userID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	client, ok := r.clients[userID]
	return client, ok
}

// Remove deletes the entry for the client's user, but only if the current
// entry is that exact client. A superseded connection disconnecting later
// must not strip the newer connection's registration.
func (r *Registry) Remove(client *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.clients[client.UserID]
	if !ok || current != client {
		return false
	}

	delete(r.clients, client.UserID)
	return true
}

// Size returns the current connected-user count.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.clients)
}

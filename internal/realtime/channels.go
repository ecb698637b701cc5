// Waypool Realtime - Ride Matchmaking and Channel Coordination
// Copyright 2026 Waypool
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/waypool/waypool-realtime

package realtime

import (
	"sort"
	"sync"
)

// ChannelTable maps ride id to the set of member user identities. Channels
// are created lazily on first join and deleted when their member set
// becomes empty.
type ChannelTable struct {
	mu       sync.RWMutex
	channels map[string]map[string]struct{}
}

// Departure records one channel a user left during LeaveAll.
type Departure struct {
	RideID    string
	Remaining int
}

// NewChannelTable creates an empty channel membership table.
func NewChannelTable() *ChannelTable {
	return &ChannelTable{
		channels: make(map[string]map[string]struct{}),
	}
}

// Join adds the user to the ride channel, creating it if absent, and
// returns the member count. Re-joining is a no-op beyond confirming
// membership.
func (t *ChannelTable) Join(rideID, userID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	members, ok := t.channels[rideID]
	if !ok {
		members = make(map[string]struct{})
		t.channels[rideID] = members
	}
	members[userID] = struct{}{}

	return len(members)
}

// Leave removes the user from the ride channel and returns the remaining
// member count. An emptied channel is deleted entirely.
func (t *ChannelTable) Leave(rideID, userID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.leaveLocked(rideID, userID)
}

func (t *ChannelTable) leaveLocked(rideID, userID string) int {
	members, ok := t.channels[rideID]
	if !ok {
		return 0
	}

	delete(members, userID)
	if len(members) == 0 {
		delete(t.channels, rideID)
		return 0
	}

	return len(members)
}

// Members returns a sorted snapshot of the channel's member identities.
// Sorting gives broadcasts a deterministic delivery order.
func (t *ChannelTable) Members(rideID string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	members, ok := t.channels[rideID]
	if !ok {
		return nil
	}

	snapshot := make([]string, 0, len(members))
	for userID := range members {
		snapshot = append(snapshot, userID)
	}
	sort.Strings(snapshot)

	return snapshot
}

// LeaveAll removes the user from every channel it belongs to and reports
// each affected ride id with its remaining member count. Used by disconnect
// cleanup so the hub can notify survivors.
func (t *ChannelTable) LeaveAll(userID string) []Departure {
	t.mu.Lock()
	defer t.mu.Unlock()

	var affected []string
	for rideID, members := range t.channels {
		if _, ok := members[userID]; ok {
			affected = append(affected, rideID)
		}
	}
	sort.Strings(affected)

	departures := make([]Departure, 0, len(affected))
	for _, rideID := range affected {
		departures = append(departures, Departure{
			RideID:    rideID,
			Remaining: t.leaveLocked(rideID, userID),
		})
	}

	return departures
}

// Count returns the number of channels with at least one member.
func (t *ChannelTable) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.channels)
}

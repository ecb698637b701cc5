// Waypool Realtime - Ride Matchmaking and Channel Coordination
// Copyright 2026 Waypool
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/waypool/waypool-realtime

package realtime

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/waypool/waypool-realtime/internal/config"
)

const (
	testWriteWait = 2 * time.Second
	testPongWait  = 10 * time.Second
)

func testRealtimeConfig() config.RealtimeConfig {
	return config.RealtimeConfig{
		SendBuffer:      16,
		MaxMessageBytes: 64 * 1024,
		WriteWait:       testWriteWait,
		PongWait:        testPongWait,
		EventRate:       100,
		EventBurst:      100,
	}
}

func newTestHub() *Hub {
	return NewHub(testRealtimeConfig(), NewRegistry(), NewChannelTable())
}

func newTestClient(h *Hub, userID, name string) *Client {
	return NewClient(h, nil, userID, name)
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	h := newTestHub()
	r := h.registry

	c1 := newTestClient(h, "user-1", "Alice")
	if evicted := r.Register(c1); evicted != nil {
		t.Errorf("expected no eviction on first register, got %v", evicted.UserID)
	}

	got, ok := r.Lookup("user-1")
	if !ok || got != c1 {
		t.Errorf("expected lookup to return registered client")
	}
	if r.Size() != 1 {
		t.Errorf("expected size 1, got %d", r.Size())
	}
}

func TestRegistryLookupMissing(t *testing.T) {
	r := NewRegistry()

	if _, ok := r.Lookup("nobody"); ok {
		t.Error("expected lookup miss for unknown user")
	}
}

func TestRegistrySupersedeReturnsEvicted(t *testing.T) {
	h := newTestHub()
	r := h.registry

	c1 := newTestClient(h, "user-1", "Alice")
	c2 := newTestClient(h, "user-1", "Alice")

	r.Register(c1)
	evicted := r.Register(c2)

	if evicted != c1 {
		t.Fatalf("expected first connection evicted, got %v", evicted)
	}
	if r.Size() != 1 {
		t.Errorf("expected single entry after supersede, got %d", r.Size())
	}

	got, _ := r.Lookup("user-1")
	if got != c2 {
		t.Error("expected lookup to resolve to newer connection")
	}
}

func TestRegistryRemoveOnlyExactClient(t *testing.T) {
	h := newTestHub()
	r := h.registry

	c1 := newTestClient(h, "user-1", "Alice")
	c2 := newTestClient(h, "user-1", "Alice")

	r.Register(c1)
	r.Register(c2)

	// The superseded connection must not remove the newer entry.
	if r.Remove(c1) {
		t.Error("expected remove of superseded client to be a no-op")
	}
	if _, ok := r.Lookup("user-1"); !ok {
		t.Fatal("expected newer connection still registered")
	}

	if !r.Remove(c2) {
		t.Error("expected remove of current client to succeed")
	}
	if r.Size() != 0 {
		t.Errorf("expected empty registry, got size %d", r.Size())
	}
}

func TestRegistryRemoveAbsent(t *testing.T) {
	h := newTestHub()
	r := h.registry

	if r.Remove(newTestClient(h, "user-1", "")) {
		t.Error("expected remove of unregistered client to return false")
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	h := newTestHub()
	r := h.registry

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", n)
			c := newTestClient(h, userID, "")
			r.Register(c)
			r.Lookup(userID)
			r.Remove(c)
		}(i)
	}
	wg.Wait()

	if r.Size() != 0 {
		t.Errorf("expected empty registry after concurrent churn, got %d", r.Size())
	}
}

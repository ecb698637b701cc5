// Waypool Realtime - Ride Matchmaking and Channel Coordination
// Copyright 2026 Waypool
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/waypool/waypool-realtime

package supervisor

import (
	"context"
	"testing"
	"time"

	"github.com/waypool/waypool-realtime/internal/logging"
)

// blockingService runs until its context is canceled.
type blockingService struct {
	started chan struct{}
}

func (s *blockingService) Serve(ctx context.Context) error {
	close(s.started)
	<-ctx.Done()
	return ctx.Err()
}

func (s *blockingService) String() string { return "blocking-service" }

func TestNewTreeAppliesDefaults(t *testing.T) {
	tree := NewTree(logging.NewSlogLogger(), TreeConfig{})

	if tree.config.FailureThreshold != 5.0 {
		t.Errorf("expected default failure threshold, got %v", tree.config.FailureThreshold)
	}
	if tree.config.ShutdownTimeout != 10*time.Second {
		t.Errorf("expected default shutdown timeout, got %v", tree.config.ShutdownTimeout)
	}
}

func TestTreeRunsAndStopsServices(t *testing.T) {
	tree := NewTree(logging.NewSlogLogger(), DefaultTreeConfig())

	msg := &blockingService{started: make(chan struct{})}
	api := &blockingService{started: make(chan struct{})}
	tree.AddMessagingService(msg)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	for _, svc := range []*blockingService{msg, api} {
		select {
		case <-svc.started:
		case <-time.After(2 * time.Second):
			t.Fatalf("%s did not start", svc.String())
		}
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil && err != context.Canceled {
			t.Errorf("unexpected terminal error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("tree did not stop after cancel")
	}
}

// Waypool Realtime - Ride Matchmaking and Channel Coordination
// Copyright 2026 Waypool
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/waypool/waypool-realtime

package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

// mockServer implements HTTPServer for testing.
type mockServer struct {
	listenErr   error
	shutdownErr error
	started     chan struct{}
	stop        chan struct{}
	shutdowns   int
}

func newMockServer(listenErr error) *mockServer {
	return &mockServer{
		listenErr: listenErr,
		started:   make(chan struct{}),
		stop:      make(chan struct{}),
	}
}

func (m *mockServer) ListenAndServe() error {
	close(m.started)
	if m.listenErr != nil {
		return m.listenErr
	}
	<-m.stop
	return http.ErrServerClosed
}

func (m *mockServer) Shutdown(ctx context.Context) error {
	m.shutdowns++
	close(m.stop)
	return m.shutdownErr
}

func TestHTTPServiceGracefulShutdown(t *testing.T) {
	srv := newMockServer(nil)
	svc := NewHTTPServerService(srv, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	<-srv.started
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop after cancel")
	}

	if srv.shutdowns != 1 {
		t.Errorf("expected 1 shutdown call, got %d", srv.shutdowns)
	}
}

func TestHTTPServiceListenFailure(t *testing.T) {
	listenErr := errors.New("listen tcp: address already in use")
	svc := NewHTTPServerService(newMockServer(listenErr), time.Second)

	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, listenErr) {
		t.Errorf("expected wrapped listen error, got %v", err)
	}
}

func TestHTTPServiceString(t *testing.T) {
	svc := NewHTTPServerService(newMockServer(nil), 0)
	if svc.String() != "http-server" {
		t.Errorf("expected http-server, got %q", svc.String())
	}
	if svc.shutdownTimeout != 10*time.Second {
		t.Errorf("expected default shutdown timeout, got %v", svc.shutdownTimeout)
	}
}

// stubHub implements ContextHub.
type stubHub struct {
	ran chan struct{}
}

func (s *stubHub) RunWithContext(ctx context.Context) error {
	close(s.ran)
	<-ctx.Done()
	return ctx.Err()
}

func TestHubServiceDelegates(t *testing.T) {
	hub := &stubHub{ran: make(chan struct{})}
	svc := NewHubService(hub)

	if svc.String() != "realtime-hub" {
		t.Errorf("expected realtime-hub, got %q", svc.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	<-hub.ran
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("hub service did not stop")
	}
}

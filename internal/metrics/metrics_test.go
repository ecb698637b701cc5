// Waypool Realtime - Ride Matchmaking and Channel Coordination
// Copyright 2026 Waypool
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/waypool/waypool-realtime

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordEventReceived(t *testing.T) {
	before := testutil.ToFloat64(EventsReceived.WithLabelValues("ping"))
	RecordEventReceived("ping")
	after := testutil.ToFloat64(EventsReceived.WithLabelValues("ping"))

	if after != before+1 {
		t.Errorf("expected counter to increment by 1, got %v -> %v", before, after)
	}
}

func TestRecordEventError(t *testing.T) {
	before := testutil.ToFloat64(EventErrors.WithLabelValues("malformed"))
	RecordEventError("malformed")
	after := testutil.ToFloat64(EventErrors.WithLabelValues("malformed"))

	if after != before+1 {
		t.Errorf("expected counter to increment by 1, got %v -> %v", before, after)
	}
}

func TestRecordAuthFailure(t *testing.T) {
	before := testutil.ToFloat64(AuthFailures.WithLabelValues("expired"))
	RecordAuthFailure("expired")
	after := testutil.ToFloat64(AuthFailures.WithLabelValues("expired"))

	if after != before+1 {
		t.Errorf("expected counter to increment by 1, got %v -> %v", before, after)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/health", "200"))
	RecordAPIRequest("GET", "/api/v1/health", 200, 5*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/health", "200"))

	if after != before+1 {
		t.Errorf("expected counter to increment by 1, got %v -> %v", before, after)
	}
}

func TestConnectionGauge(t *testing.T) {
	WSConnections.Set(0)
	WSConnections.Inc()
	WSConnections.Inc()
	WSConnections.Dec()

	if got := testutil.ToFloat64(WSConnections); got != 1 {
		t.Errorf("expected gauge value 1, got %v", got)
	}
}

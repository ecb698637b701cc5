// Waypool Realtime - Ride Matchmaking and Channel Coordination
// Copyright 2026 Waypool
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/waypool/waypool-realtime

package realtime

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"

	"github.com/waypool/waypool-realtime/internal/config"
	"github.com/waypool/waypool-realtime/internal/logging"
	"github.com/waypool/waypool-realtime/internal/metrics"
	"github.com/waypool/waypool-realtime/internal/validation"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful shutdown path.
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline may indicate a hung shutdown operation.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Hub owns the connection registry and channel membership table and routes
// events between connections. It is constructed with its state injected so
// tests get fresh instances; nothing here is package-global.
//
// Lifecycle events (register/unregister) flow through channels drained by
// RunWithContext. Event dispatch happens synchronously on each connection's
// read goroutine; table mutations complete before any send is enqueued, so
// no lock is ever held across transport I/O.
type Hub struct {
	cfg      config.RealtimeConfig
	registry *Registry
	channels *ChannelTable

	Register   chan *Client
	Unregister chan *Client

	running atomic.Bool

	// stopped is closed whenever the hub loop is not draining lifecycle
	// channels, so enqueues never block against a dead receiver. A fresh
	// channel is armed at the top of each RunWithContext.
	stopMu  sync.Mutex
	stopped chan struct{}
}

// NewHub creates a hub around the given registry and channel table.
func NewHub(cfg config.RealtimeConfig, registry *Registry, channels *ChannelTable) *Hub {
	stopped := make(chan struct{})
	close(stopped)

	return &Hub{
		cfg:        cfg,
		registry:   registry,
		channels:   channels,
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		stopped:    stopped,
	}
}

// Running reports whether the hub loop is draining lifecycle events.
func (h *Hub) Running() bool {
	return h.running.Load()
}

// ConnectionCount returns the live connection count for health reporting.
func (h *Hub) ConnectionCount() int {
	return h.registry.Size()
}

// ChannelCount returns the active channel count for health reporting.
func (h *Hub) ChannelCount() int {
	return h.channels.Count()
}

// RunWithContext drains lifecycle events until the context is canceled.
// Designed for suture supervision; on cancellation all connected clients
// are closed and ctx.Err() is returned.
//
// Priority-based selection keeps behavior predictable when multiple
// channels are ready: shutdown first, then lifecycle events.
func (h *Hub) RunWithContext(ctx context.Context) error {
	h.stopMu.Lock()
	h.stopped = make(chan struct{})
	h.stopMu.Unlock()
	h.running.Store(true)

	defer func() {
		h.running.Store(false)
		h.stopMu.Lock()
		close(h.stopped)
		h.stopMu.Unlock()
	}()

	for {
		// Priority 1: shutdown (non-blocking check).
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		// Priority 2: block until a lifecycle event or shutdown arrives.
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)
		}
	}
}

func (h *Hub) stopSignal() <-chan struct{} {
	h.stopMu.Lock()
	defer h.stopMu.Unlock()
	return h.stopped
}

// EnqueueRegister hands a new connection to the hub loop. Returns false,
// with the client's send channel closed, when the hub is not running; the
// caller should drop the connection rather than wait for a receiver that
// will never come.
func (h *Hub) EnqueueRegister(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.stopSignal():
		client.closeSend()
		return false
	}
}

// enqueueUnregister reports a disconnect to the hub loop. After shutdown
// the loop has already closed every client, so a stopped hub makes this a
// no-op instead of a permanently blocked goroutine.
func (h *Hub) enqueueUnregister(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.stopSignal():
	}
}

// registerClient records the connection and evicts any superseded one.
// The evicted connection gets a final connection_replaced event before its
// send channel is closed; its later unregister is a no-op for shared state.
func (h *Hub) registerClient(client *Client) {
	evicted := h.registry.Register(client)

	metrics.WSConnectionsTotal.Inc()
	metrics.WSConnections.Set(float64(h.registry.Size()))

	if evicted != nil {
		metrics.WSEvictions.Inc()
		evicted.trySend(Message{
			Event: EventConnectionReplaced,
			Data:  ConnectionReplacedPayload{Message: "connection superseded by a newer connection for this user"},
		})
		evicted.closeSend()
		logging.Info().
			Str("user_id", client.UserID).
			Msg("evicted superseded connection")
	}

	logging.Info().
		Str("user_id", client.UserID).
		Int("connections", h.registry.Size()).
		Msg("client connected")
}

// unregisterClient runs disconnect cleanup in a fixed order: registry
// remove, leave all channels, then one member_left broadcast per channel
// that still has members. A superseded connection skips cleanup entirely
// so the newer connection keeps its registration and memberships.
//
// The registry remove happens before the send channel closes; from that
// point no broadcaster can resolve this client.
func (h *Hub) unregisterClient(client *Client) {
	if !h.registry.Remove(client) {
		client.closeSend()
		logging.Debug().
			Str("user_id", client.UserID).
			Msg("skipping cleanup for superseded connection")
		return
	}
	client.closeSend()

	metrics.WSConnections.Set(float64(h.registry.Size()))

	departures := h.channels.LeaveAll(client.UserID)
	now := time.Now().UTC().Format(time.RFC3339)
	for _, dep := range departures {
		metrics.ChannelLeaves.Inc()
		if dep.Remaining == 0 {
			// Emptied channel, dropped silently.
			continue
		}
		h.broadcastToChannel(dep.RideID, client.UserID, Message{
			Event: EventMemberLeft,
			Data: MemberLeftPayload{
				UserID:    client.UserID,
				Timestamp: now,
				Members:   dep.Remaining,
			},
		})
	}
	metrics.RideChannels.Set(float64(h.channels.Count()))

	logging.Info().
		Str("user_id", client.UserID).
		Int("channels_left", len(departures)).
		Int("connections", h.registry.Size()).
		Msg("client disconnected")
}

// shutdown closes all connected clients in ID order and logs the reason.
// ctx.Err() is expected during graceful shutdown, so it is not logged as
// an error.
func (h *Hub) shutdown(ctx context.Context) {
	clients := h.snapshotClients()
	for _, client := range clients {
		h.registry.Remove(client)
		client.closeSend()
	}

	logging.Info().
		Str("component", "realtime-hub").
		Str("reason", string(shutdownReason(ctx))).
		Int("clients_closed", len(clients)).
		Msg("realtime hub stopped")
}

// snapshotClients returns all registered clients sorted by ID for a
// consistent close order.
func (h *Hub) snapshotClients() []*Client {
	h.registry.mu.RLock()
	clients := make([]*Client, 0, len(h.registry.clients))
	for _, client := range h.registry.clients {
		clients = append(clients, client)
	}
	h.registry.mu.RUnlock()

	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

func shutdownReason(ctx context.Context) ShutdownReason {
	if ctx.Err() == context.DeadlineExceeded {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}

// HandleEvent decodes and dispatches one inbound event. Called from the
// sender's read goroutine; events from one connection are processed in
// arrival order. Any failure is reported to the sender alone.
func (h *Hub) HandleEvent(client *Client, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		metrics.RecordEventError("malformed")
		h.sendError(client, "malformed event envelope")
		return
	}

	switch env.Event {
	case EventPing:
		h.handlePing(client, env.Data)
	case EventJoinRideChannel:
		h.handleJoinChannel(client, env.Data)
	case EventJoinRequest:
		h.handleJoinRequest(client, env.Data)
	case EventRequestResponse:
		h.handleRequestResponse(client, env.Data)
	default:
		metrics.RecordEventError("unknown_event")
		h.sendError(client, "unknown event type: "+env.Event)
	}
}

// handlePing answers with the original timestamp, the server receipt time
// and the current registry size.
func (h *Hub) handlePing(client *Client, data json.RawMessage) {
	var payload PingPayload
	if !h.decodePayload(client, EventPing, data, &payload) {
		return
	}

	client.trySend(Message{
		Event: EventPong,
		Data: PongPayload{
			Timestamp:   payload.Timestamp,
			Received:    time.Now().UTC().Format(time.RFC3339),
			UserID:      client.UserID,
			Connections: h.registry.Size(),
		},
	})
}

// handleJoinChannel subscribes the sender to a ride channel and
// acknowledges with the member count.
func (h *Hub) handleJoinChannel(client *Client, data json.RawMessage) {
	var payload JoinChannelPayload
	if !h.decodePayload(client, EventJoinRideChannel, data, &payload) {
		return
	}

	count := h.channels.Join(payload.RideID, client.UserID)
	metrics.ChannelJoins.Inc()
	metrics.RideChannels.Set(float64(h.channels.Count()))

	logging.Debug().
		Str("user_id", client.UserID).
		Str("ride_id", payload.RideID).
		Str("context", payload.Context).
		Int("members", count).
		Msg("joined ride channel")

	client.trySend(Message{
		Event: EventChannelJoined,
		Data: ChannelJoinedPayload{
			RideID:  payload.RideID,
			Message: "joined ride channel",
			Members: count,
		},
	})
}

// handleJoinRequest broadcasts the sender's join request to every other
// member of the channel. The sender does not receive its own request.
func (h *Hub) handleJoinRequest(client *Client, data json.RawMessage) {
	var payload JoinRequestPayload
	if !h.decodePayload(client, EventJoinRequest, data, &payload) {
		return
	}

	h.broadcastToChannel(payload.RideID, client.UserID, Message{
		Event: EventJoinRequest,
		Data: JoinRequestBroadcast{
			User: UserRef{
				ID:   client.UserID,
				Name: client.Name,
			},
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// handleRequestResponse broadcasts the decision to the whole channel and,
// if the target user is connected, additionally unicasts a personal
// status notice. An offline target is not an error.
func (h *Hub) handleRequestResponse(client *Client, data json.RawMessage) {
	var payload RequestResponsePayload
	if !h.decodePayload(client, EventRequestResponse, data, &payload) {
		return
	}

	now := time.Now().UTC().Format(time.RFC3339)
	h.broadcastToChannel(payload.RideID, "", Message{
		Event: EventRequestUpdate,
		Data: RequestUpdatePayload{
			UserID:    payload.UserID,
			Status:    payload.Status,
			UpdatedAt: now,
		},
	})

	if target, ok := h.registry.Lookup(payload.UserID); ok {
		target.trySend(Message{
			Event: EventRequestStatusChange,
			Data: RequestStatusChangedPayload{
				RideID:  payload.RideID,
				Status:  payload.Status,
				Message: "your join request was " + payload.Status,
			},
		})
	}
}

// decodePayload unmarshals and validates an event payload. On failure the
// sender gets an error event and false is returned; no state is mutated.
func (h *Hub) decodePayload(client *Client, event string, data json.RawMessage, payload interface{}) bool {
	if len(data) == 0 {
		metrics.RecordEventError("malformed")
		h.sendError(client, event+": missing payload")
		return false
	}
	if err := json.Unmarshal(data, payload); err != nil {
		metrics.RecordEventError("malformed")
		h.sendError(client, event+": malformed payload")
		return false
	}
	if verr := validation.ValidateStruct(payload); verr != nil {
		metrics.RecordEventError("validation")
		h.sendError(client, event+": "+verr.Error())
		return false
	}

	metrics.RecordEventReceived(event)
	return true
}

// broadcastToChannel sends a message to the channel's current members in
// sorted identity order, skipping excludeUserID when set. Members without
// a live connection are skipped; best-effort delivery.
func (h *Hub) broadcastToChannel(rideID, excludeUserID string, msg Message) {
	for _, userID := range h.channels.Members(rideID) {
		if userID == excludeUserID {
			continue
		}
		if member, ok := h.registry.Lookup(userID); ok {
			member.trySend(msg)
		}
	}
}

// sendError reports a failure to the sender only.
func (h *Hub) sendError(client *Client, message string) {
	client.trySend(Message{
		Event: EventError,
		Data:  ErrorPayload{Message: message},
	})
}

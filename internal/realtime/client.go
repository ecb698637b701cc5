// Waypool Realtime - Ride Matchmaking and Channel Coordination
// Copyright 2026 Waypool
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/waypool/waypool-realtime

package realtime

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/waypool/waypool-realtime/internal/logging"
	"github.com/waypool/waypool-realtime/internal/metrics"
)

// clientIDCounter generates unique, monotonically increasing IDs for
// clients so broadcast and shutdown ordering is deterministic.
var clientIDCounter atomic.Uint64

// Client is the middleman between one websocket connection and the hub.
// It owns the transport goroutines; all shared state lives in the hub's
// registry and channel table.
type Client struct {
	id uint64

	UserID      string
	Name        string
	ConnectedAt time.Time

	hub     *Hub
	conn    *websocket.Conn
	send    chan Message
	limiter *rate.Limiter

	sendMu sync.RWMutex
	closed bool
}

// NewClient creates a client for a verified identity. The send buffer and
// rate limiter are sized from the hub's realtime configuration.
func NewClient(hub *Hub, conn *websocket.Conn, userID, name string) *Client {
	return &Client{
		id:          clientIDCounter.Add(1),
		UserID:      userID,
		Name:        name,
		ConnectedAt: time.Now(),
		hub:         hub,
		conn:        conn,
		send:        make(chan Message, hub.cfg.SendBuffer),
		limiter:     rate.NewLimiter(rate.Limit(hub.cfg.EventRate), hub.cfg.EventBurst),
	}
}

// ID returns the client's unique identifier for deterministic ordering.
func (c *Client) ID() uint64 {
	return c.id
}

// trySend enqueues a message without blocking. A full buffer drops the
// message and a closed client discards it. Broadcasts run on other
// connections' read goroutines, so this must stay safe against a
// concurrent closeSend; the read lock excludes the close.
func (c *Client) trySend(msg Message) {
	c.sendMu.RLock()
	defer c.sendMu.RUnlock()
	if c.closed {
		return
	}

	select {
	case c.send <- msg:
		metrics.RecordEventSent(msg.Event)
	default:
		metrics.DroppedSends.Inc()
		logging.Warn().
			Str("user_id", c.UserID).
			Str("event", msg.Event).
			Msg("dropped outbound event, send buffer full")
	}
}

// closeSend marks the client closed and closes the send channel.
// Idempotent. The write lock waits out any in-flight trySend, so the
// channel is never closed under a sender.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// readPump pumps inbound events from the websocket to the hub's router.
// One goroutine per connection; events from a single client are processed
// strictly in arrival order.
func (c *Client) readPump() {
	defer func() {
		c.hub.enqueueUnregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(c.hub.cfg.MaxMessageBytes)
	if err := c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongWait)); err != nil {
		logging.Error().Err(err).Str("user_id", c.UserID).Msg("failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logging.Warn().Err(err).Str("user_id", c.UserID).Msg("unexpected websocket close")
			}
			break
		}

		if !c.limiter.Allow() {
			metrics.RecordEventError("rate_limited")
			c.trySend(Message{
				Event: EventError,
				Data:  ErrorPayload{Message: "event rate limit exceeded"},
			})
			continue
		}

		c.hub.HandleEvent(c, data)
	}
}

// writePump pumps outbound messages from the send channel to the websocket
// and keeps the transport alive with ping frames. Exits when the hub closes
// the send channel or a write fails.
func (c *Client) writePump() {
	pingPeriod := c.hub.cfg.PongWait * 9 / 10
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteWait)); err != nil {
				logging.Error().Err(err).Str("user_id", c.UserID).Msg("failed to set write deadline")
				return
			}

			if !ok {
				// Hub closed the channel.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				logging.Warn().Err(err).Str("user_id", c.UserID).Msg("failed to write event")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start begins reading and writing for the client.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

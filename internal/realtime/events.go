// Waypool Realtime - Ride Matchmaking and Channel Coordination
// Copyright 2026 Waypool
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/waypool/waypool-realtime

package realtime

import (
	"github.com/goccy/go-json"
)

// Inbound event types
const (
	EventPing            = "ping"
	EventJoinRideChannel = "join_ride_channel"
	EventJoinRequest     = "join_request"
	EventRequestResponse = "request_response"
)

// Outbound event types
const (
	EventPong                = "pong"
	EventChannelJoined       = "channel_joined"
	EventRequestUpdate       = "request_update"
	EventRequestStatusChange = "request_status_changed"
	EventMemberLeft          = "member_left"
	EventConnectionReplaced  = "connection_replaced"
	EventError               = "error"
)

// Message is the wire envelope for every event in both directions.
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// envelope is the inbound decode target; Data stays raw until the event
// type selects a payload struct.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// PingPayload is the inbound heartbeat. Timestamp is echoed back untouched,
// so its type is left to the client (epoch millis or RFC3339).
type PingPayload struct {
	Timestamp interface{} `json:"timestamp" validate:"required"`
}

// JoinChannelPayload subscribes the sender to a ride channel. Context is
// optional client metadata ("search", "invite") used only for logging.
type JoinChannelPayload struct {
	RideID  string `json:"rideId" validate:"required,min=1,max=128"`
	Context string `json:"context" validate:"omitempty,max=64"`
}

// JoinRequestPayload announces the sender wants to join the ride.
type JoinRequestPayload struct {
	RideID string `json:"rideId" validate:"required,min=1,max=128"`
}

// RequestResponsePayload carries a member's accept-or-reject decision on a
// pending join request. UserID names the requester being answered.
type RequestResponsePayload struct {
	RideID string `json:"rideId" validate:"required,min=1,max=128"`
	UserID string `json:"userId" validate:"required,min=1,max=128"`
	Status string `json:"status" validate:"required,oneof=accepted rejected"`
}

// PongPayload answers an application-level ping.
type PongPayload struct {
	Timestamp   interface{} `json:"timestamp"`
	Received    string      `json:"received"`
	UserID      string      `json:"userId"`
	Connections int         `json:"connections"`
}

// ChannelJoinedPayload acknowledges a channel join with the member count.
type ChannelJoinedPayload struct {
	RideID  string `json:"rideId"`
	Message string `json:"message"`
	Members int    `json:"members"`
}

// UserRef identifies a user in broadcast payloads.
type UserRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// JoinRequestBroadcast notifies channel members of a pending join request.
type JoinRequestBroadcast struct {
	User      UserRef `json:"user"`
	Timestamp string  `json:"timestamp"`
}

// RequestUpdatePayload is the channel-wide view of a request decision.
type RequestUpdatePayload struct {
	UserID    string `json:"userId"`
	Status    string `json:"status"`
	UpdatedAt string `json:"updatedAt"`
}

// RequestStatusChangedPayload is the personal notice sent to the user whose
// request was decided, independent of whether they watch the channel list.
type RequestStatusChangedPayload struct {
	RideID  string `json:"rideId"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// MemberLeftPayload notifies survivors that a member disconnected. Members
// is the remaining member count.
type MemberLeftPayload struct {
	UserID    string `json:"userId"`
	Timestamp string `json:"timestamp"`
	Members   int    `json:"members"`
}

// ConnectionReplacedPayload is the final event on a superseded connection.
type ConnectionReplacedPayload struct {
	Message string `json:"message"`
}

// ErrorPayload reports a per-event failure back to the sender only.
type ErrorPayload struct {
	Message string `json:"message"`
}

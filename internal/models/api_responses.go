// Waypool Realtime - Ride Matchmaking and Channel Coordination
// Copyright 2026 Waypool
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/waypool/waypool-realtime

package models

import (
	"time"
)

// APIResponse is the standardized response wrapper used by all HTTP endpoints.
//
// Status field values:
//   - "success": Request completed successfully, see Data field
//   - "error": Request failed, see Error field for details
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"status": "healthy", "connections": 12},
//	  "metadata": {"timestamp": "2026-08-31T12:00:00Z"}
//	}
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {
//	    "code": "EXPIRED_CREDENTIAL",
//	    "message": "Token has expired"
//	  },
//	  "metadata": {"timestamp": "2026-08-31T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
}

// APIError represents an error response with structured error details.
//
// Common error codes:
//   - MISSING_CREDENTIAL: No token supplied
//   - EXPIRED_CREDENTIAL: Token expired
//   - INVALID_CREDENTIAL: Token failed verification
//   - VALIDATION_ERROR: Invalid input parameters
//   - NOT_FOUND: Resource doesn't exist
//   - RATE_LIMIT_EXCEEDED: Too many requests
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

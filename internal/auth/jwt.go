// Waypool Realtime - Ride Matchmaking and Channel Coordination
// Copyright 2026 Waypool
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/waypool/waypool-realtime

// Package auth verifies bearer tokens presented at connection time.
//
// Tokens are issued by the external Waypool account service and signed with
// a shared HMAC-SHA256 secret. This package only verifies; it never issues.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Sentinel errors returned by VerifyToken. Callers map these to the
// MISSING_CREDENTIAL, EXPIRED_CREDENTIAL and INVALID_CREDENTIAL codes.
var (
	ErrMissingToken = errors.New("no credential supplied")
	ErrExpiredToken = errors.New("credential has expired")
	ErrInvalidToken = errors.New("credential failed verification")
)

// Claims are the JWT claims carried by Waypool account tokens. The subject
// claim holds the user id. Name is an optional display name used in
// join_request notifications.
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the verified result of a successful token check.
type Identity struct {
	UserID string
	Name   string
}

// Verifier validates HS256 bearer tokens against a shared secret.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a token verifier. The secret must be non-empty;
// length requirements are enforced by config validation.
func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is required but was empty")
	}

	// Stored as []byte so the comparison path never interns the secret.
	return &Verifier{secret: []byte(secret)}, nil
}

// VerifyToken validates a token string and extracts the caller's identity.
//
// Validation rejects tokens with an unexpected signing algorithm, a bad
// signature, expired or not-yet-valid time claims, or a missing subject.
// The returned error is one of the package sentinels, wrapped with detail.
func (v *Verifier) VerifyToken(tokenString string) (*Identity, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrExpiredToken, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject claim", ErrInvalidToken)
	}

	return &Identity{
		UserID: claims.Subject,
		Name:   claims.Name,
	}, nil
}

// TokenFromRequest extracts a bearer token from an HTTP request. The
// Authorization header takes precedence; the token query parameter is the
// fallback for browser WebSocket clients that cannot set headers.
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if after, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(after)
		}
		// A non-Bearer scheme is a malformed credential, not a missing
		// one; return it as-is so verification rejects it as invalid.
		return header
	}

	return r.URL.Query().Get("token")
}

// ErrorCode maps a verification error to its API error code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrMissingToken):
		return "MISSING_CREDENTIAL"
	case errors.Is(err, ErrExpiredToken):
		return "EXPIRED_CREDENTIAL"
	default:
		return "INVALID_CREDENTIAL"
	}
}

// FailureReason maps a verification error to its metrics label.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, ErrMissingToken):
		return "missing"
	case errors.Is(err, ErrExpiredToken):
		return "expired"
	default:
		return "invalid"
	}
}

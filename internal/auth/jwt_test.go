// Waypool Realtime - Ride Matchmaking and Channel Coordination
// Copyright 2026 Waypool
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/waypool/waypool-realtime

package auth

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-at-least-32-characters-long"

func signToken(t *testing.T, secret string, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return signed
}

func validClaims(userID, name string) *Claims {
	return &Claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestNewVerifierRequiresSecret(t *testing.T) {
	if _, err := NewVerifier(""); err == nil {
		t.Fatal("expected error for empty secret")
	}
	if _, err := NewVerifier(testSecret); err != nil {
		t.Fatalf("expected verifier created, got %v", err)
	}
}

func TestVerifyTokenValid(t *testing.T) {
	v, _ := NewVerifier(testSecret)
	tokenString := signToken(t, testSecret, validClaims("user-1", "Alice"))

	identity, err := v.VerifyToken(tokenString)
	if err != nil {
		t.Fatalf("expected valid token, got %v", err)
	}
	if identity.UserID != "user-1" {
		t.Errorf("expected user-1, got %q", identity.UserID)
	}
	if identity.Name != "Alice" {
		t.Errorf("expected Alice, got %q", identity.Name)
	}
}

func TestVerifyTokenMissing(t *testing.T) {
	v, _ := NewVerifier(testSecret)

	_, err := v.VerifyToken("")
	if !errors.Is(err, ErrMissingToken) {
		t.Errorf("expected ErrMissingToken, got %v", err)
	}
}

func TestVerifyTokenExpired(t *testing.T) {
	v, _ := NewVerifier(testSecret)
	claims := validClaims("user-1", "")
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	tokenString := signToken(t, testSecret, claims)

	_, err := v.VerifyToken(tokenString)
	if !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	v, _ := NewVerifier(testSecret)
	tokenString := signToken(t, "another-secret-also-32-chars-long!!", validClaims("user-1", ""))

	_, err := v.VerifyToken(tokenString)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyTokenMalformed(t *testing.T) {
	v, _ := NewVerifier(testSecret)

	_, err := v.VerifyToken("not-a-jwt")
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyTokenMissingSubject(t *testing.T) {
	v, _ := NewVerifier(testSecret)
	tokenString := signToken(t, testSecret, validClaims("", ""))

	_, err := v.VerifyToken(tokenString)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for missing subject, got %v", err)
	}
}

func TestTokenFromRequestHeader(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Authorization", "Bearer abc123")

	if got := TokenFromRequest(r); got != "abc123" {
		t.Errorf("expected abc123, got %q", got)
	}
}

func TestTokenFromRequestQuery(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws?token=qry456", nil)

	if got := TokenFromRequest(r); got != "qry456" {
		t.Errorf("expected qry456, got %q", got)
	}
}

func TestTokenFromRequestHeaderWinsOverQuery(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws?token=qry456", nil)
	r.Header.Set("Authorization", "Bearer hdr789")

	if got := TokenFromRequest(r); got != "hdr789" {
		t.Errorf("expected header token, got %q", got)
	}
}

func TestTokenFromRequestMalformedHeader(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws?token=qry456", nil)
	r.Header.Set("Authorization", "Basic abc123")

	// A present-but-malformed header must not degrade to "missing": the
	// raw value is returned so verification fails as invalid.
	if got := TokenFromRequest(r); got != "Basic abc123" {
		t.Errorf("expected raw header for non-bearer scheme, got %q", got)
	}

	v, _ := NewVerifier(testSecret)
	_, err := v.VerifyToken(TokenFromRequest(r))
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for non-bearer header, got %v", err)
	}
	if code := ErrorCode(err); code != "INVALID_CREDENTIAL" {
		t.Errorf("expected INVALID_CREDENTIAL, got %q", code)
	}
}

func TestErrorCodeMapping(t *testing.T) {
	cases := []struct {
		err  error
		code string
	}{
		{ErrMissingToken, "MISSING_CREDENTIAL"},
		{ErrExpiredToken, "EXPIRED_CREDENTIAL"},
		{ErrInvalidToken, "INVALID_CREDENTIAL"},
	}

	for _, c := range cases {
		if got := ErrorCode(c.err); got != c.code {
			t.Errorf("ErrorCode(%v) = %q, want %q", c.err, got, c.code)
		}
	}
}

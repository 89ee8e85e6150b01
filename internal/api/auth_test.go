// Galaktika - Social Reading Tracker and Knowledge Galaxy
// Copyright 2026 Galaktika contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/galaktika-app/galaktika

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, subject, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: subject})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func authRequest(header string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/galaxy", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	return req
}

func TestUserIDVerified(t *testing.T) {
	a := NewAuthenticator(true, "secret")

	id, err := a.userID(authRequest("Bearer " + signedToken(t, "reader-1", "secret")))
	if err != nil {
		t.Fatalf("userID: %v", err)
	}
	if id != "reader-1" {
		t.Errorf("userID = %q, want reader-1", id)
	}
}

func TestUserIDRejections(t *testing.T) {
	a := NewAuthenticator(true, "secret")

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"empty token", "Bearer "},
		{"garbage token", "Bearer not.a.jwt"},
		{"wrong secret", "Bearer " + signedToken(t, "reader-1", "other")},
		{"no subject", "Bearer " + signedToken(t, "", "secret")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := a.userID(authRequest(tt.header)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestUserIDUnverifiedMode(t *testing.T) {
	a := NewAuthenticator(false, "")

	// Signature is not checked; any well-formed token with a subject works.
	id, err := a.userID(authRequest("Bearer " + signedToken(t, "reader-9", "whatever")))
	if err != nil {
		t.Fatalf("userID: %v", err)
	}
	if id != "reader-9" {
		t.Errorf("userID = %q, want reader-9", id)
	}

	// But a subject is still required.
	if _, err := a.userID(authRequest("Bearer " + signedToken(t, "", "whatever"))); err == nil {
		t.Error("expected error for empty subject")
	}
}

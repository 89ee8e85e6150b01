// Galaktika - Social Reading Tracker and Knowledge Galaxy
// Copyright 2026 Galaktika contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/galaktika-app/galaktika

package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/galaktika-app/galaktika/internal/models"
)

type userIDKey struct{}

// UserIDFromContext returns the authenticated user identifier, or "".
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey{}).(string); ok {
		return id
	}
	return ""
}

// contextWithUserID attaches the user identifier for downstream handlers.
func contextWithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey{}, id)
}

// Authenticator resolves the per-request user identity from a bearer
// token. With verification enabled, tokens must be HMAC-signed with the
// configured secret. With verification disabled (local development), the
// subject claim is read without checking the signature.
type Authenticator struct {
	verify bool
	secret []byte
}

// NewAuthenticator builds an Authenticator. secret is required when
// verify is true.
func NewAuthenticator(verify bool, secret string) *Authenticator {
	return &Authenticator{verify: verify, secret: []byte(secret)}
}

// Middleware authenticates the request and stores the user identifier in
// the request context. Requests without a usable identity get 401.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := a.userID(r)
		if err != nil {
			respondError(w, http.StatusUnauthorized, models.ErrCodeUnauthorized, "authentication required", err)
			return
		}
		next.ServeHTTP(w, r.WithContext(contextWithUserID(r.Context(), userID)))
	})
}

// userID extracts and validates the bearer token, returning its subject.
func (a *Authenticator) userID(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", fmt.Errorf("missing Authorization header")
	}
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return "", fmt.Errorf("malformed Authorization header")
	}

	var claims jwt.RegisteredClaims
	if a.verify {
		token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return a.secret, nil
		})
		if err != nil {
			return "", fmt.Errorf("invalid token: %w", err)
		}
		if !token.Valid {
			return "", fmt.Errorf("invalid token")
		}
	} else {
		if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
			return "", fmt.Errorf("unparseable token: %w", err)
		}
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return claims.Subject, nil
}

// Copyright (c) 2026 BonAppetit. All rights reserved.
// Author: bonappetittpo@gmail.com

package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/taibuivan/bonappetit/internal/platform/apperr"
	"github.com/taibuivan/bonappetit/internal/platform/constants"
	"github.com/taibuivan/bonappetit/internal/platform/ctxutil"
	"github.com/taibuivan/bonappetit/internal/platform/respond"
	"github.com/taibuivan/bonappetit/internal/platform/sec"
)

// TokenVerifier defines the interface needed to verify tokens in middleware.
//
// # Why an interface?
//
// Defining TokenVerifier here decouples the guards from the concrete
// [sec.TokenService], allowing us to easily inject mocks during unit testing.
type TokenVerifier interface {
	VerifyToken(tokenStr string) (*sec.SessionClaims, error)
}

// # Access Guards
//
// Two variants share one verification step. Both answer 401 when no bearer
// token is presented and 403 when verification fails (bad signature,
// malformed, expired); the stricter variant additionally answers 403 for
// guest-role tokens. Verified claims are attached to the request context as
// a typed value for downstream handlers.

// RequireSession accepts any token that verifies, regardless of role.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header; 401 if absent.
//  2. Parse and verify via [TokenVerifier]; 403 on any failure.
//  3. Inject [*sec.SessionClaims] into the request context.
func RequireSession(verifier TokenVerifier) func(http.Handler) http.Handler {
	return guard(verifier, false)
}

// RequireUser additionally rejects guest-role tokens with 403.
//
// # Usage
//
// Mount in front of any endpoint that needs an established identity, not
// merely a valid token.
func RequireUser(verifier TokenVerifier) func(http.Handler) http.Handler {
	return guard(verifier, true)
}

// guard is the shared verification step behind both Access Guard variants.
func guard(verifier TokenVerifier, rejectGuests bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get(constants.HeaderAuthorization)

			// ── 1. Presence Check ─────────────────────────────────────────────
			if authHeader == "" {
				respond.Error(writer, request, apperr.Unauthenticated("Authentication required"))
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				respond.Error(writer, request, apperr.Forbidden("Not authorized"))
				return
			}

			// ── 3. Token Verification ─────────────────────────────────────────
			claims, err := verifier.VerifyToken(parts[1])
			if err != nil {
				respond.Error(writer, request, apperr.Forbidden("Not authorized"))
				return
			}

			// ── 4. Role Check ─────────────────────────────────────────────────
			if rejectGuests && sec.UserRole(claims.Role).IsGuest() {
				respond.Error(writer, request, apperr.Forbidden("Not authorized"))
				return
			}

			// ── 5. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithSessionClaims(request.Context(), claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// # Maintenance Capability

// AdminOnly gates maintenance endpoints behind a static shared secret sent
// in the AdminPassword header.
//
// This is a deliberately separate capability check, not part of the session
// state machine: it carries no identity and issues no claims. The comparison
// is constant-time.
func AdminOnly(adminSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			presented := request.Header.Get(constants.HeaderAdminPassword)

			if presented == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(adminSecret)) != 1 {
				respond.Error(writer, request, apperr.Forbidden("Not authorized"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

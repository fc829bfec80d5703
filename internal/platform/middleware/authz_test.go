// Copyright (c) 2026 BonAppetit. All rights reserved.
// Author: bonappetittpo@gmail.com

package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/bonappetit/internal/platform/ctxutil"
	"github.com/taibuivan/bonappetit/internal/platform/middleware"
	"github.com/taibuivan/bonappetit/internal/platform/sec"
)

// # Test Doubles

// stubVerifier resolves a fixed token string to fixed claims.
type stubVerifier struct {
	token  string
	claims *sec.SessionClaims
}

func (verifier *stubVerifier) VerifyToken(tokenStr string) (*sec.SessionClaims, error) {
	if tokenStr == verifier.token {
		return verifier.claims, nil
	}
	return nil, errors.New("signature is invalid")
}

// stubCounter returns a fixed count or error for every increment.
type stubCounter struct {
	count int64
	err   error
}

func (counter *stubCounter) Increment(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return counter.count, counter.err
}

// okHandler records whether the guarded handler was reached.
func okHandler(reached *bool) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		*reached = true
		writer.WriteHeader(http.StatusOK)
	})
}

// # Session Guards

/*
TestGuard_StatusCodes covers the 401/403 split of both guard variants.
*/
func TestGuard_StatusCodes(t *testing.T) {
	userClaims := &sec.SessionClaims{UserID: "user-1", Role: string(sec.RoleUser)}
	guestClaims := &sec.SessionClaims{Role: string(sec.RoleGuest)}

	tests := []struct {
		name       string
		guard      func(middleware.TokenVerifier) func(http.Handler) http.Handler
		verifier   *stubVerifier
		authHeader string
		wantStatus int
		wantPass   bool
	}{
		{
			name:       "missing_header",
			guard:      middleware.RequireSession,
			verifier:   &stubVerifier{token: "good", claims: userClaims},
			authHeader: "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed_header",
			guard:      middleware.RequireSession,
			verifier:   &stubVerifier{token: "good", claims: userClaims},
			authHeader: "good",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "wrong_scheme",
			guard:      middleware.RequireSession,
			verifier:   &stubVerifier{token: "good", claims: userClaims},
			authHeader: "Basic good",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "invalid_token",
			guard:      middleware.RequireSession,
			verifier:   &stubVerifier{token: "good", claims: userClaims},
			authHeader: "Bearer forged",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "valid_user_token",
			guard:      middleware.RequireSession,
			verifier:   &stubVerifier{token: "good", claims: userClaims},
			authHeader: "Bearer good",
			wantStatus: http.StatusOK,
			wantPass:   true,
		},
		{
			name:       "session_guard_accepts_guest",
			guard:      middleware.RequireSession,
			verifier:   &stubVerifier{token: "good", claims: guestClaims},
			authHeader: "Bearer good",
			wantStatus: http.StatusOK,
			wantPass:   true,
		},
		{
			name:       "user_guard_rejects_guest",
			guard:      middleware.RequireUser,
			verifier:   &stubVerifier{token: "good", claims: guestClaims},
			authHeader: "Bearer good",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "user_guard_accepts_user",
			guard:      middleware.RequireUser,
			verifier:   &stubVerifier{token: "good", claims: userClaims},
			authHeader: "Bearer good",
			wantStatus: http.StatusOK,
			wantPass:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached := false
			handler := tt.guard(tt.verifier)(okHandler(&reached))

			request := httptest.NewRequest(http.MethodGet, "/session", nil)
			if tt.authHeader != "" {
				request.Header.Set("Authorization", tt.authHeader)
			}

			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			assert.Equal(t, tt.wantPass, reached)
			if !tt.wantPass {
				assert.Contains(t, recorder.Body.String(), `"status":"error"`)
			}
		})
	}
}

/*
TestGuard_InjectsClaims verifies downstream handlers see the verified claims.
*/
func TestGuard_InjectsClaims(t *testing.T) {
	claims := &sec.SessionClaims{UserID: "user-1", Email: "ana@example.com", Role: string(sec.RoleUser)}
	verifier := &stubVerifier{token: "good", claims: claims}

	var seen *sec.SessionClaims
	handler := middleware.RequireUser(verifier)(http.HandlerFunc(
		func(writer http.ResponseWriter, request *http.Request) {
			seen = ctxutil.GetSessionClaims(request.Context())
			writer.WriteHeader(http.StatusOK)
		}))

	request := httptest.NewRequest(http.MethodGet, "/session", nil)
	request.Header.Set("Authorization", "Bearer good")

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "user-1", seen.UserID)
	assert.Equal(t, "ana@example.com", seen.Email)
}

// # Admin Capability

/*
TestAdminOnly verifies the static shared-secret header check.
*/
func TestAdminOnly(t *testing.T) {
	tests := []struct {
		name       string
		presented  string
		wantStatus int
		wantPass   bool
	}{
		{"missing_header", "", http.StatusForbidden, false},
		{"wrong_secret", "guesswork", http.StatusForbidden, false},
		{"correct_secret", "sesame-open", http.StatusOK, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached := false
			handler := middleware.AdminOnly("sesame-open")(okHandler(&reached))

			request := httptest.NewRequest(http.MethodPost, "/expired-reset-codes/purge", nil)
			if tt.presented != "" {
				request.Header.Set("Adminpassword", tt.presented)
			}

			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			assert.Equal(t, tt.wantPass, reached)
		})
	}
}

// # Hourly Quota

/*
TestHourlyQuota covers the allow, block, and backend-down branches.
*/
func TestHourlyQuota(t *testing.T) {
	tests := []struct {
		name       string
		counter    *stubCounter
		wantStatus int
		wantPass   bool
	}{
		{"under_limit", &stubCounter{count: 1}, http.StatusOK, true},
		{"at_limit", &stubCounter{count: 10}, http.StatusOK, true},
		{"over_limit", &stubCounter{count: 11}, http.StatusTooManyRequests, false},
		{"backend_down_fails_open", &stubCounter{err: errors.New("redis gone")}, http.StatusOK, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached := false
			handler := middleware.HourlyQuota(tt.counter)(okHandler(&reached))

			request := httptest.NewRequest(http.MethodPost, "/register", nil)
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			assert.Equal(t, tt.wantPass, reached)
		})
	}
}

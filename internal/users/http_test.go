// Copyright (c) 2026 BonAppetit. All rights reserved.
// Author: bonappetittpo@gmail.com

package users_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/bonappetit/internal/platform/sec"
	"github.com/taibuivan/bonappetit/internal/users"
)

// # Test Doubles

// fixedQuotaCounter returns a preset count for every increment.
type fixedQuotaCounter struct {
	count int64
}

func (counter *fixedQuotaCounter) Increment(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return counter.count, nil
}

// # Helpers

func newTestRouter(t *testing.T) (http.Handler, *captureNotifier) {
	return newTestRouterWithQuota(t, &fixedQuotaCounter{count: 1})
}

func newTestRouterWithQuota(t *testing.T, counter *fixedQuotaCounter) (http.Handler, *captureNotifier) {
	t.Helper()

	tokens, err := sec.NewTokenService("test-secret-0123456789", "bonappetit.test")
	require.NoError(t, err)

	repo := newMemoryUserRepository()
	notifier := &captureNotifier{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	service := users.NewService(repo, tokens, notifier, logger)
	handler := users.NewHandler(service, tokens, counter)
	return handler.Routes(), notifier
}

func doJSON(t *testing.T, router http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	request := httptest.NewRequest(method, path, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		request.Header.Set(key, value)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

// # Registration & Login

/*
TestHandler_Register_Validation verifies missing fields produce the exact
"Invalid registration data" rejection.
*/
func TestHandler_Register_Validation(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing_email", `{"name":"Ana","alias":"ana","password":"hunter2squared"}`},
		{"missing_name", `{"email":"ana@example.com","alias":"ana","password":"hunter2squared"}`},
		{"missing_alias", `{"email":"ana@example.com","name":"Ana","password":"hunter2squared"}`},
		{"missing_password", `{"email":"ana@example.com","name":"Ana","alias":"ana"}`},
		{"malformed_json", `{"email":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response := doJSON(t, router, http.MethodPost, "/register", tt.body, nil)

			assert.Equal(t, http.StatusBadRequest, response.Code)
			assert.Contains(t, response.Body.String(), `"status":"error"`)
			assert.Contains(t, response.Body.String(), "Invalid registration data")
		})
	}
}

/*
TestHandler_Register_Flow verifies the success envelope and duplicate conflict.
*/
func TestHandler_Register_Flow(t *testing.T) {
	router, _ := newTestRouter(t)
	body := `{"email":"ana@example.com","name":"Ana","alias":"ana","password":"hunter2squared"}`

	response := doJSON(t, router, http.MethodPost, "/register", body, nil)
	assert.Equal(t, http.StatusOK, response.Code)
	assert.Contains(t, response.Body.String(), `"status":"success"`)

	duplicate := doJSON(t, router, http.MethodPost, "/register", body, nil)
	assert.Equal(t, http.StatusBadRequest, duplicate.Code)
	assert.Contains(t, duplicate.Body.String(), `"status":"error"`)
}

/*
TestHandler_Login verifies the success payload and the byte-identical
rejection for unknown email versus wrong password.
*/
func TestHandler_Login(t *testing.T) {
	router, _ := newTestRouter(t)
	registerBody := `{"email":"ana@example.com","name":"Ana","alias":"ana","password":"hunter2squared"}`
	require.Equal(t, http.StatusOK,
		doJSON(t, router, http.MethodPost, "/register", registerBody, nil).Code)

	success := doJSON(t, router, http.MethodPost, "/login",
		`{"email":"ana@example.com","password":"hunter2squared"}`, nil)
	assert.Equal(t, http.StatusOK, success.Code)
	assert.Contains(t, success.Body.String(), "Login successful")
	assert.Contains(t, success.Body.String(), `"token"`)

	missing := doJSON(t, router, http.MethodPost, "/login", `{"email":"ana@example.com"}`, nil)
	assert.Equal(t, http.StatusBadRequest, missing.Code)
	assert.Contains(t, missing.Body.String(), "Email and password are required for login")

	unknown := doJSON(t, router, http.MethodPost, "/login",
		`{"email":"ghost@example.com","password":"hunter2squared"}`, nil)
	wrongPassword := doJSON(t, router, http.MethodPost, "/login",
		`{"email":"ana@example.com","password":"not-the-password"}`, nil)

	// Same status, byte-identical body: no account enumeration.
	assert.Equal(t, http.StatusBadRequest, unknown.Code)
	assert.Equal(t, unknown.Code, wrongPassword.Code)
	assert.Equal(t, unknown.Body.String(), wrongPassword.Body.String())
	assert.Contains(t, unknown.Body.String(), "Invalid email or password")
}

/*
TestHandler_Guest verifies the anonymous session endpoint.
*/
func TestHandler_Guest(t *testing.T) {
	router, _ := newTestRouter(t)

	response := doJSON(t, router, http.MethodPost, "/guest", ``, nil)
	assert.Equal(t, http.StatusOK, response.Code)
	assert.Contains(t, response.Body.String(), "Login successful")
	assert.Contains(t, response.Body.String(), `"token"`)
}

// # Password Recovery

/*
TestHandler_SendResetCode verifies the two branches answer identically.
*/
func TestHandler_SendResetCode(t *testing.T) {
	router, notifier := newTestRouter(t)
	registerBody := `{"email":"ana@example.com","name":"Ana","alias":"ana","password":"hunter2squared"}`
	require.Equal(t, http.StatusOK,
		doJSON(t, router, http.MethodPost, "/register", registerBody, nil).Code)

	existing := doJSON(t, router, http.MethodPost, "/send-password-change-verification-code",
		`{"email":"ana@example.com"}`, nil)
	unknown := doJSON(t, router, http.MethodPost, "/send-password-change-verification-code",
		`{"email":"ghost@example.com"}`, nil)

	assert.Equal(t, http.StatusOK, existing.Code)
	assert.Equal(t, existing.Code, unknown.Code)
	assert.Equal(t, existing.Body.String(), unknown.Body.String())
	assert.Contains(t, existing.Body.String(),
		"If an account exists with that email, a verification code has been sent.")

	// Only the real account received a code.
	assert.Equal(t, 1, notifier.deliveries())

	missing := doJSON(t, router, http.MethodPost, "/send-password-change-verification-code", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, missing.Code)
	assert.Contains(t, missing.Body.String(),
		"An email address is required to send the password change verification code.")
}

/*
TestHandler_RecoveryFlow runs the full verify → change-password sequence over
the wire, including replay of the consumed code.
*/
func TestHandler_RecoveryFlow(t *testing.T) {
	router, notifier := newTestRouter(t)
	registerBody := `{"email":"ana@example.com","name":"Ana","alias":"ana","password":"hunter2squared"}`
	require.Equal(t, http.StatusOK,
		doJSON(t, router, http.MethodPost, "/register", registerBody, nil).Code)
	require.Equal(t, http.StatusOK,
		doJSON(t, router, http.MethodPost, "/send-password-change-verification-code",
			`{"email":"ana@example.com"}`, nil).Code)
	require.Equal(t, 1, notifier.deliveries())
	code := notifier.codes[0]

	verify := doJSON(t, router, http.MethodPost, "/verify-password-change-verification-code",
		`{"email":"ana@example.com","verificationCode":`+strconv.Itoa(code)+`}`, nil)
	assert.Equal(t, http.StatusOK, verify.Code)
	assert.Contains(t, verify.Body.String(), "Verification code is correct.")

	change := doJSON(t, router, http.MethodPost, "/change-password",
		`{"email":"ana@example.com","verificationCode":`+strconv.Itoa(code)+`,"newPassword":"brand-new-password"}`, nil)
	assert.Equal(t, http.StatusOK, change.Code)
	assert.Contains(t, change.Body.String(), "Password updated successfully.")

	// New credential works, old one is dead.
	newLogin := doJSON(t, router, http.MethodPost, "/login",
		`{"email":"ana@example.com","password":"brand-new-password"}`, nil)
	assert.Equal(t, http.StatusOK, newLogin.Code)

	oldLogin := doJSON(t, router, http.MethodPost, "/login",
		`{"email":"ana@example.com","password":"hunter2squared"}`, nil)
	assert.Equal(t, http.StatusBadRequest, oldLogin.Code)

	// The committed code cannot be replayed.
	replay := doJSON(t, router, http.MethodPost, "/change-password",
		`{"email":"ana@example.com","verificationCode":`+strconv.Itoa(code)+`,"newPassword":"yet-another-pass"}`, nil)
	assert.Equal(t, http.StatusBadRequest, replay.Code)
	assert.Contains(t, replay.Body.String(), "Password reset failed.")
}

/*
TestHandler_Recovery_Validation verifies the recovery endpoints' exact
missing-field messages, including structurally invalid codes.
*/
func TestHandler_Recovery_Validation(t *testing.T) {
	router, _ := newTestRouter(t)

	verify := doJSON(t, router, http.MethodPost, "/verify-password-change-verification-code",
		`{"email":"ana@example.com","verificationCode":42}`, nil)
	assert.Equal(t, http.StatusBadRequest, verify.Code)
	assert.Contains(t, verify.Body.String(),
		"A verification code and an email is required to change your password.")

	change := doJSON(t, router, http.MethodPost, "/change-password",
		`{"email":"ana@example.com","verificationCode":123456}`, nil)
	assert.Equal(t, http.StatusBadRequest, change.Code)
	assert.Contains(t, change.Body.String(),
		"A verification code, email and new password is required to change your password.")
}

// # Session & Profile

/*
TestHandler_GetSession verifies the guard chain and the claims echo.
*/
func TestHandler_GetSession(t *testing.T) {
	router, _ := newTestRouter(t)
	registerBody := `{"email":"ana@example.com","name":"Ana","alias":"ana","password":"hunter2squared"}`
	require.Equal(t, http.StatusOK,
		doJSON(t, router, http.MethodPost, "/register", registerBody, nil).Code)

	login := doJSON(t, router, http.MethodPost, "/login",
		`{"email":"ana@example.com","password":"hunter2squared"}`, nil)
	require.Equal(t, http.StatusOK, login.Code)
	token := extractToken(t, login.Body.String())

	// No token at all.
	anonymous := doJSON(t, router, http.MethodGet, "/session", ``, nil)
	assert.Equal(t, http.StatusUnauthorized, anonymous.Code)

	// Guest tokens verify but are not account sessions.
	guest := doJSON(t, router, http.MethodPost, "/guest", ``, nil)
	require.Equal(t, http.StatusOK, guest.Code)
	guestToken := extractToken(t, guest.Body.String())

	rejected := doJSON(t, router, http.MethodGet, "/session", ``, map[string]string{
		"Authorization": "Bearer " + guestToken,
	})
	assert.Equal(t, http.StatusForbidden, rejected.Code)

	// A registered session echoes its claims.
	session := doJSON(t, router, http.MethodGet, "/session", ``, map[string]string{
		"Authorization": "Bearer " + token,
	})
	assert.Equal(t, http.StatusOK, session.Code)
	assert.Contains(t, session.Body.String(), "ana@example.com")
	assert.Contains(t, session.Body.String(), `"role":"user"`)
}

/*
TestHandler_GetUser verifies profile reads and the uniform miss.
*/
func TestHandler_GetUser(t *testing.T) {
	router, _ := newTestRouter(t)
	registerBody := `{"email":"ana@example.com","name":"Ana","alias":"ana","password":"hunter2squared"}`
	require.Equal(t, http.StatusOK,
		doJSON(t, router, http.MethodPost, "/register", registerBody, nil).Code)

	login := doJSON(t, router, http.MethodPost, "/login",
		`{"email":"ana@example.com","password":"hunter2squared"}`, nil)
	require.Equal(t, http.StatusOK, login.Code)

	tokens, err := sec.NewTokenService("test-secret-0123456789", "bonappetit.test")
	require.NoError(t, err)
	claims, err := tokens.VerifyToken(extractToken(t, login.Body.String()))
	require.NoError(t, err)

	found := doJSON(t, router, http.MethodGet, "/"+claims.UserID, ``, nil)
	assert.Equal(t, http.StatusOK, found.Code)
	assert.Contains(t, found.Body.String(), "ana@example.com")
	assert.NotContains(t, found.Body.String(), "passwordhash")

	// Unknown ID and malformed ID answer the same way.
	missing := doJSON(t, router, http.MethodGet, "/019563b2-0000-7000-8000-000000000000", ``, nil)
	malformed := doJSON(t, router, http.MethodGet, "/not-a-uuid", ``, nil)

	assert.Equal(t, http.StatusBadRequest, missing.Code)
	assert.Equal(t, missing.Code, malformed.Code)
	assert.Equal(t, missing.Body.String(), malformed.Body.String())
	assert.Contains(t, missing.Body.String(), "User not found")
}

// # Abuse Quotas

/*
TestHandler_HourlyQuota verifies the 429 once the rolling-hour limit is hit.
*/
func TestHandler_HourlyQuota(t *testing.T) {
	router, _ := newTestRouterWithQuota(t, &fixedQuotaCounter{count: 11})

	response := doJSON(t, router, http.MethodPost, "/register",
		`{"email":"ana@example.com","name":"Ana","alias":"ana","password":"hunter2squared"}`, nil)
	assert.Equal(t, http.StatusTooManyRequests, response.Code)

	// Unquoted endpoints stay reachable.
	login := doJSON(t, router, http.MethodPost, "/login",
		`{"email":"ana@example.com","password":"hunter2squared"}`, nil)
	assert.NotEqual(t, http.StatusTooManyRequests, login.Code)
}

// # Small Helpers

func extractToken(t *testing.T, body string) string {
	t.Helper()
	var envelope struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &envelope))
	require.NotEmpty(t, envelope.Token)
	return envelope.Token
}

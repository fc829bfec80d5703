// Copyright (c) 2026 BonAppetit. All rights reserved.
// Author: bonappetittpo@gmail.com

package dberr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/bonappetit/internal/platform/apperr"
	"github.com/taibuivan/bonappetit/internal/platform/dberr"
)

/*
TestIsUniqueViolation verifies SQLSTATE 23505 detection through wrapped chains.
*/
func TestIsUniqueViolation(t *testing.T) {
	unique := &pgconn.PgError{Code: pgerrcode.UniqueViolation}

	assert.True(t, dberr.IsUniqueViolation(unique))
	assert.True(t, dberr.IsUniqueViolation(fmt.Errorf("insert failed: %w", unique)))

	assert.False(t, dberr.IsUniqueViolation(nil))
	assert.False(t, dberr.IsUniqueViolation(errors.New("connection refused")))
	assert.False(t, dberr.IsUniqueViolation(&pgconn.PgError{Code: pgerrcode.NotNullViolation}))
}

/*
TestWrap verifies the driver-error classification: a missing row becomes
NOT_FOUND, a unique violation becomes CONFLICT, and a connectivity failure
stays INTERNAL with the cause retained.
*/
func TestWrap(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "no_rows",
			err:         fmt.Errorf("query failed: %w", pgx.ErrNoRows),
			wantCode:    "NOT_FOUND",
			wantStatus:  400,
			wantMessage: "User not found",
		},
		{
			name:        "unique_violation",
			err:         fmt.Errorf("insert failed: %w", &pgconn.PgError{Code: pgerrcode.UniqueViolation}),
			wantCode:    "CONFLICT",
			wantStatus:  400,
			wantMessage: "Email or alias is already registered",
		},
		{
			name:        "connectivity_failure",
			err:         errors.New("dial tcp 10.0.0.5:5432: connect: connection refused"),
			wantCode:    "INTERNAL_ERROR",
			wantStatus:  500,
			wantMessage: "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := dberr.Wrap(tt.err, "User", "Email or alias is already registered")
			require.Error(t, wrapped)

			ae := apperr.As(wrapped)
			require.NotNil(t, ae)
			assert.Equal(t, tt.wantCode, ae.Code)
			assert.Equal(t, tt.wantStatus, ae.HTTPStatus)
			assert.EqualError(t, ae, tt.wantMessage)
		})
	}
}

/*
TestWrap_Nil verifies a nil error passes through untouched.
*/
func TestWrap_Nil(t *testing.T) {
	assert.NoError(t, dberr.Wrap(nil, "User", "duplicate"))
}

/*
TestWrap_RetainsCause verifies the driver detail survives for logging while
the client-facing message hides it.
*/
func TestWrap_RetainsCause(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.5:5432: connect: connection refused")

	wrapped := dberr.Wrap(cause, "User", "duplicate")
	assert.True(t, errors.Is(wrapped, cause))
	assert.NotContains(t, wrapped.Error(), "dial tcp")
}

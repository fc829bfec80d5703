// Copyright (c) 2026 BonAppetit. All rights reserved.
// Author: bonappetittpo@gmail.com

/*
Package users — application service for the account state machine.

It orchestrates registration, credential verification, guest sessions, and
the emailed-code password-recovery flow by composing the credential hasher,
the token issuer, the reset-code generator, and the account store.

Architecture:

  - Service: Orchestrates business logic (Register, Login, recovery flow).
  - Repository: Abstracted interface over PostgreSQL (account records).
  - Security: bcrypt hashing and HS256 session tokens via platform/sec.

The package ensures that every externally visible failure of an operation is
a single uniform message, so no response distinguishes "account missing"
from "credentials wrong".
*/
package users

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/taibuivan/bonappetit/internal/platform/apperr"
	"github.com/taibuivan/bonappetit/internal/platform/constants"
	"github.com/taibuivan/bonappetit/internal/platform/notify"
	"github.com/taibuivan/bonappetit/internal/platform/sec"
)

// # Contracts & Types

// TokenProvider defines the contract for issuing session tokens.
type TokenProvider interface {
	// IssueUserToken creates a signed 24h session token carrying the full
	// identity claims of a registered user with role=user.
	IssueUserToken(userID, name, email, alias string, timeToLive time.Duration) (string, error)

	// IssueGuestToken creates a signed 24h session token with role=guest
	// and no identity claims.
	IssueGuestToken(timeToLive time.Duration) (string, error)
}

// # Uniform Rejections
//
// One error value per operation. Reusing the same value for every failing
// branch guarantees byte-identical responses: unknown email and wrong
// password, missing code and expired code, are indistinguishable on the wire.
var (
	errInvalidCredentials = apperr.Unauthorized("Invalid email or password")
	errInvalidVerify      = apperr.Unauthorized("Invalid verification attempt.")
	errResetFailed        = apperr.Unauthorized("Password reset failed.")
)

// isMissing reports whether err is the store's NOT_FOUND classification.
// Only a genuine miss may collapse into a uniform rejection; a driver or
// connectivity failure must surface as a 500 so the caller can retry.
func isMissing(err error) bool {
	ae := apperr.As(err)
	return ae != nil && ae.Code == "NOT_FOUND"
}

// Service implements the account authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, token
// issuance, or the recovery flow must be reviewed by the security team.
type Service struct {
	userRepository UserRepository
	tokenProvider  TokenProvider
	notifier       notify.Notifier
	logger         *slog.Logger
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	userRepo UserRepository,
	tokenProv TokenProvider,
	notifier notify.Notifier,
	logger *slog.Logger,
) *Service {
	return &Service{
		userRepository: userRepo,
		tokenProvider:  tokenProv,
		notifier:       notifier,
		logger:         logger,
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Email    string
	Name     string
	Alias    string
	Password string
}

/*
Register validates, hashes, and persists a brand new user account.

Description: Moves an account from NEW to REGISTERED. The duplicate probe is
advisory; a concurrent create for the same email or alias is still caught by
the store's unique constraints and surfaces as the same CONFLICT.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *User: Created entity
  - error: apperr.Conflict (if identity exists) or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*User, error) {

	// Advisory duplicate probe. Client-safe Conflict on a hit.
	if _, err := service.userRepository.FindByEmailOrAlias(context, input.Email, input.Alias); err == nil {
		return nil, apperr.Conflict("Email or alias is already registered")
	}

	// Prevent storing plain-text passwords. Default cost balances security
	// against CPU utilization during registration spikes.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("users_service_hash_failed: %w", err))
	}

	// Time-sortable ID to prevent PG index fragmentation.
	user := &User{
		ID:               newID(),
		Email:            input.Email,
		Alias:            input.Alias,
		Name:             input.Name,
		PasswordHash:     hashedPassword,
		FavouriteRecipes: []string{},
	}

	// Persist. The store maps a 23505 on email/alias to apperr.Conflict.
	if err := service.userRepository.Create(context, user); err != nil {
		if apperr.IsAppError(err) {
			return nil, err
		}
		return nil, apperr.Internal(fmt.Errorf("users_service_register_failed: %w", err))
	}

	service.logger.Info("user_registered", slog.String("user_id", user.ID))

	return user, nil
}

// # Authentication Flow

/*
Login validates user credentials and issues a session token.

Description: Verifies identity, performs bcrypt's constant-time password
comparison, and issues a self-contained 24h token with role=user. Unknown
email and wrong password return the identical error value.

Parameters:
  - context: context.Context
  - email: string
  - password: string

Returns:
  - string: Signed session token
  - error: Uniform credential rejection or internal failures
*/
func (service *Service) Login(context context.Context, email, password string) (string, error) {
	user, err := service.userRepository.FindByEmail(context, email)
	if err != nil {
		if !isMissing(err) {
			return "", apperr.Internal(fmt.Errorf("users_service_login_lookup_failed: %w", err))
		}
		// Generic message to prevent account enumeration.
		return "", errInvalidCredentials
	}

	if !sec.CheckPasswordHash(password, user.PasswordHash) {
		return "", errInvalidCredentials
	}

	token, err := service.tokenProvider.IssueUserToken(
		user.ID, user.Name, user.Email, user.Alias, constants.SessionTokenTTL)
	if err != nil {
		return "", apperr.Internal(fmt.Errorf("users_service_token_issue_failed: %w", err))
	}

	return token, nil
}

/*
GuestSession issues an anonymous browsing token.

Description: No account is created or read; the token carries role=guest and
no identity claims. The operation has no domain failure mode.

Parameters:
  - context: context.Context

Returns:
  - string: Signed guest session token
  - error: Internal signing failures only
*/
func (service *Service) GuestSession(context context.Context) (string, error) {
	token, err := service.tokenProvider.IssueGuestToken(constants.SessionTokenTTL)
	if err != nil {
		return "", apperr.Internal(fmt.Errorf("users_service_guest_token_failed: %w", err))
	}
	return token, nil
}

// # Password Recovery

/*
RequestPasswordReset initiates the forgot-password flow.

Description: If the account exists, generates a fresh 6-digit code, stores
the code/expiry pair atomically, and hands the code to the notifier for
asynchronous delivery. If the account does not exist, nothing happens — the
caller responds identically either way.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - error: Internal storage failures only; never reveals account existence
*/
func (service *Service) RequestPasswordReset(context context.Context, email string) error {
	user, err := service.userRepository.FindByEmail(context, email)
	if err != nil {
		if !isMissing(err) {
			return apperr.Internal(fmt.Errorf("users_service_reset_lookup_failed: %w", err))
		}
		// Unknown account: succeed silently to prevent enumeration.
		service.logger.Debug("reset_requested_for_unknown_email")
		return nil
	}

	code, expiresAt, err := sec.GenerateResetCode(constants.ResetCodeTTL)
	if err != nil {
		return apperr.Internal(fmt.Errorf("users_service_reset_code_failed: %w", err))
	}

	// Persist before delivery: a code the user receives must already verify.
	if err := service.userRepository.SetResetCode(context, email, code, expiresAt); err != nil {
		return apperr.Internal(fmt.Errorf("users_service_store_reset_code_failed: %w", err))
	}

	// Accepted-for-delivery contract: the dispatcher retries in the
	// background and a transport failure never changes this response.
	if err := service.notifier.SendResetCode(context, user.Email, code); err != nil {
		return apperr.Internal(fmt.Errorf("users_service_notify_failed: %w", err))
	}

	service.logger.Info("reset_code_issued", slog.String("user_id", user.ID))

	return nil
}

/*
VerifyResetCode confirms a pending code without consuming it.

Description: Read-only validity probe for the client's UX. Not-found,
mismatch, and expiry all return the identical error value.

Parameters:
  - context: context.Context
  - email: string
  - code: int

Returns:
  - error: Uniform verification rejection or internal failures
*/
func (service *Service) VerifyResetCode(context context.Context, email string, code int) error {
	user, err := service.userRepository.FindByEmail(context, email)
	if err != nil {
		if !isMissing(err) {
			return apperr.Internal(fmt.Errorf("users_service_verify_lookup_failed: %w", err))
		}
		return errInvalidVerify
	}

	if !user.ResetCodeMatches(code, time.Now()) {
		return errInvalidVerify
	}

	return nil
}

/*
ChangePassword completes the forgot-password flow.

Description: Re-checks the code, hashes the new password, and installs it
while clearing the reset pair in one atomic store operation — the code is
consumed in the same instant, so replaying it fails.

Parameters:
  - context: context.Context
  - email: string
  - code: int
  - newPassword: string

Returns:
  - error: Uniform reset rejection or internal failures
*/
func (service *Service) ChangePassword(context context.Context, email string, code int, newPassword string) error {
	user, err := service.userRepository.FindByEmail(context, email)
	if err != nil {
		if !isMissing(err) {
			return apperr.Internal(fmt.Errorf("users_service_change_lookup_failed: %w", err))
		}
		return errResetFailed
	}

	if !user.ResetCodeMatches(code, time.Now()) {
		return errResetFailed
	}

	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return apperr.Internal(fmt.Errorf("users_service_change_hash_failed: %w", err))
	}

	if err := service.userRepository.UpdatePasswordAndClearReset(context, email, hashedPassword); err != nil {
		return apperr.Internal(fmt.Errorf("users_service_change_password_failed: %w", err))
	}

	service.logger.Info("password_changed", slog.String("user_id", user.ID))

	return nil
}

// # Profile Reads

/*
GetUser retrieves a user's public profile by ID.

Description: Direct lookup; the projection never includes the password hash.
Unlike the auth-sensitive operations, the NOT_FOUND message passes through.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *User: Profile without credential state
  - error: apperr.NotFound or internal failures
*/
func (service *Service) GetUser(context context.Context, id string) (*User, error) {
	user, err := service.userRepository.FindByID(context, id)
	if err != nil {
		if apperr.IsAppError(err) {
			return nil, err
		}
		return nil, apperr.Internal(fmt.Errorf("users_service_get_user_failed: %w", err))
	}
	return user, nil
}

// # Maintenance

/*
PurgeExpiredResetCodes clears lapsed reset pairs across all accounts.

Parameters:
  - context: context.Context

Returns:
  - int64: Number of accounts cleaned
  - error: Internal failures
*/
func (service *Service) PurgeExpiredResetCodes(context context.Context) (int64, error) {
	cleaned, err := service.userRepository.ClearExpiredResetCodes(context)
	if err != nil {
		return 0, apperr.Internal(fmt.Errorf("users_service_purge_failed: %w", err))
	}

	service.logger.Info("expired_reset_codes_purged", slog.Int64("count", cleaned))

	return cleaned, nil
}

// newID generates a time-sortable UUIDv7 account identifier.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// entropy failure is an unrecoverable system-level error
		panic("users: failed to generate UUID: " + err.Error())
	}
	return id.String()
}

// Copyright (c) 2026 BonAppetit. All rights reserved.
// Author: bonappetittpo@gmail.com

package users

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/bonappetit/internal/platform/apperr"
	"github.com/taibuivan/bonappetit/internal/platform/constants"
	"github.com/taibuivan/bonappetit/internal/platform/middleware"
	requestutil "github.com/taibuivan/bonappetit/internal/platform/request"
	"github.com/taibuivan/bonappetit/internal/platform/respond"
	"github.com/taibuivan/bonappetit/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements the account HTTP endpoints.
//
// # Scope
//
// This handler manages everything related to the user lifecycle entry points
// (Registration, Login, Guest sessions, Password recovery, Profile reads).
// It is strictly responsible for transport concerns: decoding, validation,
// status codes, and the response envelope.
type Handler struct {
	userService *Service
	verifier    middleware.TokenVerifier
	quota       middleware.QuotaCounter
}

// NewHandler constructs a new [Handler] with its dependencies.
func NewHandler(service *Service, verifier middleware.TokenVerifier, quota middleware.QuotaCounter) *Handler {
	return &Handler{
		userService: service,
		verifier:    verifier,
		quota:       quota,
	}
}

// Routes returns a [chi.Router] configured with the account routes.
//
// # Endpoints
//   - POST /register : Creates a new account (hourly quota gated).
//   - POST /login    : Authenticates and returns a session token.
//   - POST /guest    : Issues an anonymous browsing token.
//   - POST /send-password-change-verification-code   : Starts recovery.
//   - POST /verify-password-change-verification-code : Probes a pending code.
//   - POST /change-password : Commits a new password (hourly quota gated).
//   - GET  /session  : Echoes the verified session claims (no guests).
//   - GET  /{uid}    : Public profile lookup.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/login", handler.login)
	router.Post("/guest", handler.guest)
	router.Post("/send-password-change-verification-code", handler.sendResetCode)
	router.Post("/verify-password-change-verification-code", handler.verifyResetCode)

	// Abuse-sensitive endpoints behind the rolling-hour quota
	router.Group(func(r chi.Router) {
		r.Use(middleware.HourlyQuota(handler.quota))
		r.Post("/register", handler.register)
		r.Post("/change-password", handler.changePassword)
	})

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser(handler.verifier))
		r.Get("/session", handler.getSession)
	})

	router.Get("/{uid}", handler.getUser)

	return router
}

// AdminRoutes returns the maintenance routes. The caller is expected to
// mount them behind [middleware.AdminOnly].
func (handler *Handler) AdminRoutes() chi.Router {
	router := chi.NewRouter()
	router.Post("/expired-reset-codes/purge", handler.purgeExpiredResetCodes)
	return router
}

// # Request Payloads

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Alias    string `json:"alias"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sendResetCodeRequest struct {
	Email string `json:"email"`
}

type verifyResetCodeRequest struct {
	Email            string `json:"email"`
	VerificationCode int    `json:"verificationCode"`
}

type changePasswordRequest struct {
	Email            string `json:"email"`
	VerificationCode int    `json:"verificationCode"`
	NewPassword      string `json:"newPassword"`
}

/*
Register handles the creation of a new user account.

POST /api/users/register

Description: Validates input, checks for identity conflicts, and persists
a new account record with a hashed password.

Request:
  - Body: registerRequest (Email, Name, Alias, Password)

Response:
  - 200: Success envelope
  - 400: "Invalid registration data" or identity conflict
  - 429: Hourly quota exceeded
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, apperr.ValidationError("Invalid registration data"))
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldName, input.Name).
		Required(FieldAlias, input.Alias).
		Required(FieldPassword, input.Password)

	if err := validator.ErrWith("Invalid registration data"); err != nil {
		respond.Error(writer, request, err)
		return
	}

	_, err := handler.userService.Register(request.Context(), RegisterInput{
		Email:    input.Email,
		Name:     input.Name,
		Alias:    input.Alias,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Success(writer, nil)
}

/*
Login authenticates a user and establishes a session.

POST /api/users/login

Description: Verifies credentials and returns a self-contained 24h token
with role=user. Unknown email and wrong password produce byte-identical
rejections.

Request:
  - Body: loginRequest (Email, Password)

Response:
  - 200: Token: "Login successful" plus the signed session token
  - 400: "Email and password are required for login" or uniform credential rejection
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, apperr.ValidationError("Email and password are required for login"))
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Required(FieldPassword, input.Password)

	if err := validator.ErrWith("Email and password are required for login"); err != nil {
		respond.Error(writer, request, err)
		return
	}

	token, err := handler.userService.Login(request.Context(), input.Email, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Success(writer, respond.Payload{
		constants.FieldMessage: "Login successful",
		constants.FieldToken:   token,
	})
}

/*
Guest issues an anonymous browsing session.

POST /api/users/guest

Description: Returns a 24h token with role=guest and no identity claims.
No account is created or read.

Response:
  - 200: Token: "Login successful" plus the signed guest token
*/
func (handler *Handler) guest(writer http.ResponseWriter, request *http.Request) {
	token, err := handler.userService.GuestSession(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Success(writer, respond.Payload{
		constants.FieldMessage: "Login successful",
		constants.FieldToken:   token,
	})
}

/*
SendResetCode initiates the password recovery flow.

POST /api/users/send-password-change-verification-code

Description: If the account exists, a fresh 6-digit code is stored and
handed to the mail dispatcher. The response is identical whether or not
the account exists.

Request:
  - Body: sendResetCodeRequest (Email)

Response:
  - 200: Generic "a verification code has been sent" message, both branches
  - 400: Missing email
*/
func (handler *Handler) sendResetCode(writer http.ResponseWriter, request *http.Request) {
	var input sendResetCodeRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, apperr.ValidationError(
			"An email address is required to send the password change verification code."))
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email)

	if err := validator.ErrWith(
		"An email address is required to send the password change verification code."); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.userService.RequestPasswordReset(request.Context(), input.Email); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Success(writer, respond.Payload{
		constants.FieldMessage: "If an account exists with that email, a verification code has been sent.",
	})
}

/*
VerifyResetCode confirms a pending verification code.

POST /api/users/verify-password-change-verification-code

Description: Read-only probe used by the client before showing the
new-password form. Not-found, mismatch, and expiry are indistinguishable.

Request:
  - Body: verifyResetCodeRequest (Email, VerificationCode)

Response:
  - 200: "Verification code is correct."
  - 400: Missing fields or uniform "Invalid verification attempt."
*/
func (handler *Handler) verifyResetCode(writer http.ResponseWriter, request *http.Request) {
	var input verifyResetCodeRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, apperr.ValidationError(
			"A verification code and an email is required to change your password."))
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		ResetCode(FieldVerificationCode, input.VerificationCode)

	if err := validator.ErrWith(
		"A verification code and an email is required to change your password."); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.userService.VerifyResetCode(request.Context(), input.Email, input.VerificationCode); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Success(writer, respond.Payload{
		constants.FieldMessage: "Verification code is correct.",
	})
}

/*
ChangePassword completes the password recovery flow.

POST /api/users/change-password

Description: Re-validates the code and commits the new password hash while
clearing the reset pair in one atomic store operation.

Request:
  - Body: changePasswordRequest (Email, VerificationCode, NewPassword)

Response:
  - 200: "Password updated successfully."
  - 400: Missing fields or uniform "Password reset failed."
  - 429: Hourly quota exceeded
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	var input changePasswordRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, apperr.ValidationError(
			"A verification code, email and new password is required to change your password."))
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		ResetCode(FieldVerificationCode, input.VerificationCode).
		Required(FieldNewPassword, input.NewPassword)

	if err := validator.ErrWith(
		"A verification code, email and new password is required to change your password."); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err := handler.userService.ChangePassword(
		request.Context(), input.Email, input.VerificationCode, input.NewPassword)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Success(writer, respond.Payload{
		constants.FieldMessage: "Password updated successfully.",
	})
}

/*
GetSession echoes the identity of the verified session token.

GET /api/users/session

Description: The guard has already verified the bearer token and rejected
guests; this handler reflects the claims without a store read, so the
response always matches what was signed at login time.

Response:
  - 200: User: Claims of the session token
  - 401: Missing token
  - 403: Invalid token or guest session
*/
func (handler *Handler) getSession(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Success(writer, respond.Payload{
		constants.FieldUser: respond.Payload{
			FieldUID:   claims.UserID,
			FieldName:  claims.Name,
			FieldEmail: claims.Email,
			FieldAlias: claims.Alias,
			"role":     claims.Role,
		},
	})
}

/*
GetUser retrieves a public account profile.

GET /api/users/{uid}

Description: Looks up the account by ID. The projection never includes the
password hash or the reset-code state.

Response:
  - 200: User: Public profile
  - 400: "User not found"
*/
func (handler *Handler) getUser(writer http.ResponseWriter, request *http.Request) {
	uid := requestutil.Param(request, FieldUID)

	// A structurally invalid ID can never match a record; answer exactly
	// like a miss so the response does not depend on ID shape.
	validator := &validate.Validator{}
	validator.UUID(FieldUID, uid)
	if validator.HasErrors() {
		respond.Error(writer, request, apperr.NotFound("User"))
		return
	}

	user, err := handler.userService.GetUser(request.Context(), uid)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Success(writer, respond.Payload{
		constants.FieldUser: user,
	})
}

/*
PurgeExpiredResetCodes clears lapsed reset codes across all accounts.

POST /api/admin/expired-reset-codes/purge

Description: Maintenance endpoint behind the static admin secret. Removes
reset pairs whose expiry has passed so stale codes do not linger in the
store.

Response:
  - 200: Purged: Number of accounts cleaned
  - 403: Missing or wrong admin secret
*/
func (handler *Handler) purgeExpiredResetCodes(writer http.ResponseWriter, request *http.Request) {
	purged, err := handler.userService.PurgeExpiredResetCodes(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Success(writer, respond.Payload{
		"purged": purged,
	})
}

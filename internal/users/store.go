// Copyright (c) 2026 BonAppetit. All rights reserved.
// Author: bonappetittpo@gmail.com

package users

import (
	"context"
	"time"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
//
// # Atomicity
//
// Every mutation is a single-record, single-statement operation. In
// particular, SetResetCode writes the code/expiry pair together and
// UpdatePasswordAndClearReset swaps the password hash and clears the pair in
// one statement: a partially applied reset must never be observable.
type UserRepository interface {

	/*
		FindByID returns the account with the given ID.

		Description: Primary-key resolution for profile reads. The password
		hash is excluded from the projection.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity without the password hash
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByEmail returns the account with the given email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity including credential state
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		FindByEmailOrAlias returns any account holding either identity.

		Description: Pre-registration duplicate probe. This is advisory only;
		the real uniqueness guarantee is the database constraint checked by
		Create.

		Parameters:
		  - context: context.Context
		  - email: string
		  - alias: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByEmailOrAlias(context context.Context, email, alias string) (*User, error)

	/*
		Create persists a brand-new user account.

		Description: Fails with a CONFLICT AppError when the email or alias
		unique constraint is violated, including under concurrent creates.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: apperr.Conflict or persistence failures
	*/
	Create(context context.Context, user *User) error

	/*
		SetResetCode stores a pending verification code and its expiry on the
		account, replacing any earlier pending code.

		Parameters:
		  - context: context.Context
		  - email: string
		  - code: int
		  - expiresAt: time.Time

		Returns:
		  - error: apperr.NotFound or persistence failures
	*/
	SetResetCode(context context.Context, email string, code int, expiresAt time.Time) error

	/*
		UpdatePasswordAndClearReset atomically installs the new password hash
		and removes the reset code/expiry pair.

		Parameters:
		  - context: context.Context
		  - email: string
		  - newHash: string

		Returns:
		  - error: apperr.NotFound or persistence failures
	*/
	UpdatePasswordAndClearReset(context context.Context, email, newHash string) error

	/*
		ClearExpiredResetCodes removes reset pairs whose expiry has lapsed.

		Description: Maintenance operation; the state machine never reads an
		expired code, this merely reclaims the columns.

		Parameters:
		  - context: context.Context

		Returns:
		  - int64: Number of accounts cleaned
		  - error: Persistence failures
	*/
	ClearExpiredResetCodes(context context.Context) (int64, error)
}

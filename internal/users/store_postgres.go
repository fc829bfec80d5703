// Copyright (c) 2026 BonAppetit. All rights reserved.
// Author: bonappetittpo@gmail.com

// PostgreSQL implementation of the users storage layer.
//
// # Error Mapping
//
// Storage-specific errors (pgx.ErrNoRows, SQLSTATE 23505) are classified by
// [dberr.Wrap] into domain-friendly [apperr.AppError] values so the service
// layer never sees driver details.
package users

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/bonappetit/internal/platform/apperr"
	"github.com/taibuivan/bonappetit/internal/platform/dberr"
)

// # User Repository

// PostgresUserRepository implements the UserRepository interface using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

/*
Create persists a new user record into the users.account table.

Description: Relies on the email/alias unique constraints for duplicate
detection; a constraint violation is translated to a client-safe CONFLICT.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: apperr.Conflict on duplicate identity, or connectivity errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO users.account (
			id, email, alias, name, passwordhash, favouriterecipes, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.Email,
		user.Alias,
		user.Name,
		user.PasswordHash,
		user.FavouriteRecipes,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		return dberr.Wrap(
			fmt.Errorf("postgres_user_repo_create_failed: %w", err),
			"User", "Email or alias is already registered")
	}

	return nil
}

/*
FindByEmail retrieves a user record by their unique email address.

Description: Full projection including credential and reset state, for the
login and recovery flows. The match is exact: emails are stored and looked
up with the casing the client registered.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	const query = `
		SELECT id, email, alias, name, passwordhash, favouriterecipes, resetcode, resetcodeexpires, createdat, updatedat
		FROM users.account
		WHERE email = $1`

	user := &User{}
	err := repository.pool.QueryRow(context, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.Alias,
		&user.Name,
		&user.PasswordHash,
		&user.FavouriteRecipes,
		&user.ResetCode,
		&user.ResetCodeExpires,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		return nil, dberr.Wrap(fmt.Errorf("postgres_user_repo_find_by_email_failed: %w", err), "User", "")
	}

	return user, nil
}

/*
FindByEmailOrAlias retrieves any account holding either identity.

Description: Advisory duplicate probe before registration. The database
constraints remain the authority under races.

Parameters:
  - context: context.Context
  - email: string
  - alias: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByEmailOrAlias(context context.Context, email, alias string) (*User, error) {
	const query = `
		SELECT id, email, alias, name, passwordhash, favouriterecipes, resetcode, resetcodeexpires, createdat, updatedat
		FROM users.account
		WHERE email = $1 OR alias = $2
		LIMIT 1`

	user := &User{}
	err := repository.pool.QueryRow(context, query, email, alias).Scan(
		&user.ID,
		&user.Email,
		&user.Alias,
		&user.Name,
		&user.PasswordHash,
		&user.FavouriteRecipes,
		&user.ResetCode,
		&user.ResetCodeExpires,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		return nil, dberr.Wrap(fmt.Errorf("postgres_user_repo_find_by_email_or_alias_failed: %w", err), "User", "")
	}

	return user, nil
}

/*
FindByID retrieves a user record by their unique ID.

Description: Profile projection for direct lookups. The password hash is
excluded at the query level, not filtered afterwards.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *User: Hydrated account entity without credential state
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	const query = `
		SELECT id, email, alias, name, favouriterecipes, createdat, updatedat
		FROM users.account
		WHERE id = $1`

	user := &User{}
	err := repository.pool.QueryRow(context, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.Alias,
		&user.Name,
		&user.FavouriteRecipes,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		return nil, dberr.Wrap(fmt.Errorf("postgres_user_repo_find_by_id_failed: %w", err), "User", "")
	}

	return user, nil
}

/*
SetResetCode stores the pending verification code and its expiry together.

Description: One UPDATE writes both columns; the code/expiry pair can never
be observed half-set.

Parameters:
  - context: context.Context
  - email: string
  - code: int
  - expiresAt: time.Time

Returns:
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresUserRepository) SetResetCode(context context.Context, email string, code int, expiresAt time.Time) error {
	const query = `
		UPDATE users.account
		SET resetcode = $2, resetcodeexpires = $3, updatedat = $4
		WHERE email = $1`

	tag, err := repository.pool.Exec(context, query, email, code, expiresAt, time.Now())
	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_user_repo_set_reset_code_failed: %w", err), "User", "")
	}

	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}

	return nil
}

/*
UpdatePasswordAndClearReset installs the new hash and consumes the code.

Description: A single UPDATE sets the password hash and nulls both reset
columns, so the code is spent in the same instant the password changes.

Parameters:
  - context: context.Context
  - email: string
  - newHash: string

Returns:
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresUserRepository) UpdatePasswordAndClearReset(context context.Context, email, newHash string) error {
	const query = `
		UPDATE users.account
		SET passwordhash = $2, resetcode = NULL, resetcodeexpires = NULL, updatedat = $3
		WHERE email = $1`

	tag, err := repository.pool.Exec(context, query, email, newHash, time.Now())
	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_user_repo_update_password_failed: %w", err), "User", "")
	}

	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}

	return nil
}

/*
ClearExpiredResetCodes nulls out reset pairs whose window has lapsed.

Description: Janitorial cleanup invoked from the admin maintenance endpoint.

Parameters:
  - context: context.Context

Returns:
  - int64: Number of accounts cleaned
  - error: Execution errors
*/
func (repository *PostgresUserRepository) ClearExpiredResetCodes(context context.Context) (int64, error) {
	const query = `
		UPDATE users.account
		SET resetcode = NULL, resetcodeexpires = NULL
		WHERE resetcodeexpires IS NOT NULL AND resetcodeexpires <= NOW()`

	tag, err := repository.pool.Exec(context, query)
	if err != nil {
		return 0, dberr.Wrap(fmt.Errorf("postgres_user_repo_clear_expired_failed: %w", err), "User", "")
	}

	return tag.RowsAffected(), nil
}

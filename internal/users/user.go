// Copyright (c) 2026 BonAppetit. All rights reserved.
// Author: bonappetittpo@gmail.com

/*
Package users implements the account identity and credential-recovery system.

It defines the core domain entity (User) and the state machine a user account
moves through: NEW → REGISTERED ⇄ RESET_PENDING → REGISTERED, plus the
anonymous guest-session path that never touches storage.

# Architecture

This layer is the "Truth" of the system. The entity defined here has no
transport dependencies and encapsulates all business rules related to
account identity and reset-code validity.
*/
package users

import (
	"time"
)

// # Domain Entities

// User represents a registered member of the BonAppetit platform.
//
// # Uniqueness
//
// Email and Alias are each globally unique. The database enforces this with
// unique constraints; a create/lookup race can never produce duplicates.
//
// # Reset Pair Invariant
//
// ResetCode and ResetCodeExpires are both set or both absent, never one
// without the other. Every store operation that touches them writes the
// pair in a single statement.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Alias        string `json:"alias"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"` // Explicitly omitted from JSON for security.

	// FavouriteRecipes is carried as inert state for the recipe frontend;
	// the account backend never interprets it.
	FavouriteRecipes []string `json:"favouriteRecipes"`

	ResetCode        *int       `json:"-"` // Pending verification code. Omitted for security.
	ResetCodeExpires *time.Time `json:"-"`

	// Store bookkeeping; the profile payload never exposes timestamps.
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// ResetCodeMatches reports whether the account has a pending, unexpired
// reset code equal to the presented one at the given instant.
//
// A missing code, a missing expiry, a mismatch, and a lapsed window are all
// the same answer: callers must not be able to distinguish them.
func (user *User) ResetCodeMatches(code int, now time.Time) bool {
	if user.ResetCode == nil || user.ResetCodeExpires == nil {
		return false
	}
	if *user.ResetCode != code {
		return false
	}
	return now.Before(*user.ResetCodeExpires)
}

// # Field Identifiers

// Global field names for validation and identity mapping in the users domain.
const (
	FieldEmail            = "email"
	FieldName             = "name"
	FieldAlias            = "alias"
	FieldPassword         = "password"
	FieldNewPassword      = "newPassword"
	FieldVerificationCode = "verificationCode"
	FieldUID              = "uid"
)

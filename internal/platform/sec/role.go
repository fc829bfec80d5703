// Copyright (c) 2026 BonAppetit. All rights reserved.
// Author: bonappetittpo@gmail.com

package sec

// # User Roles

// UserRole represents the authorization level carried by a session token.
type UserRole string

const (
	// Default role for authenticated registered users
	RoleUser UserRole = "user"

	// Anonymous browsing session with no identity claims
	RoleGuest UserRole = "guest"
)

// IsGuest reports whether the role denotes an anonymous guest session.
//
// An unknown role string is not treated as guest: the Access Guard rejects
// unknown roles through its own checks, while this helper only answers the
// guest/registered distinction.
func (r UserRole) IsGuest() bool {
	return r == RoleGuest
}

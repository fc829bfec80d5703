// Copyright (c) 2026 BonAppetit. All rights reserved.
// Author: bonappetittpo@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing,
// reset-code generation) from the domain logic. It acts as an Infrastructure
// service injected into the Application layer via small interfaces.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims represents the payload embedded inside a session token.
//
// # Why custom claims?
//
// By embedding the full identity (ID, Name, Email, Alias, Role) inside the
// token, the Access Guard can reconstruct the active user context WITHOUT
// querying the database on every single API request. Claims are a
// point-in-time projection: a later profile change is not reflected until
// the next login.
type SessionClaims struct {
	jwt.RegisteredClaims

	UserID string `json:"uid,omitempty"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Alias  string `json:"alias,omitempty"`
	Role   string `json:"rol"`
}

// TokenService handles generation and verification of session tokens using
// HS256 with a single process-wide secret.
//
// The secret is loaded once at startup from configuration and never varies
// per request.
type TokenService struct {
	secret []byte
	issuer string
}

// NewTokenService creates a new TokenService.
func NewTokenService(secret, issuer string) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("sec: session secret must not be empty")
	}
	return &TokenService{
		secret: []byte(secret),
		issuer: issuer,
	}, nil
}

// IssueUserToken creates a signed session token carrying the full identity
// of a registered user with role=user.
func (service *TokenService) IssueUserToken(userID, name, email, alias string, timeToLive time.Duration) (string, error) {
	return service.sign(SessionClaims{
		UserID: userID,
		Name:   name,
		Email:  email,
		Alias:  alias,
		Role:   string(RoleUser),
	}, timeToLive)
}

// IssueGuestToken creates a signed session token with role=guest and no
// identity claims.
func (service *TokenService) IssueGuestToken(timeToLive time.Duration) (string, error) {
	return service.sign(SessionClaims{Role: string(RoleGuest)}, timeToLive)
}

// sign serializes the claims plus expiry window into a signed compact token.
func (service *TokenService) sign(claims SessionClaims, timeToLive time.Duration) (string, error) {
	currentTime := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.UserID,
		Issuer:    service.issuer,
		IssuedAt:  jwt.NewNumericDate(currentTime),
		ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// VerifyToken checks the signature and validity of a session token string.
//
// Tampering, malformed structure, a foreign signing method, and expiry all
// surface as an error, never as a panic. The signature is always recomputed
// over the presented claims with the process-wide secret.
func (service *TokenService) VerifyToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.secret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("sec: invalid token: %w", err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, errors.New("sec: invalid token claims")
	}

	return claims, nil
}

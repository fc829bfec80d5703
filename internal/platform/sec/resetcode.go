// Copyright (c) 2026 BonAppetit. All rights reserved.
// Author: bonappetittpo@gmail.com

package sec

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// # Reset Codes

const (
	// resetCodeMin is the smallest valid verification code (always 6 digits).
	resetCodeMin = 100000

	// resetCodeSpan is the number of possible codes: [100000, 999999].
	resetCodeSpan = 900000
)

// GenerateResetCode produces a uniformly random 6-digit password-reset code
// and its absolute expiry timestamp (now + ttl).
//
// Randomness comes from crypto/rand: guessing one code out of 900000 within
// the validity window is the attacker's best move, and the commitNewPassword
// endpoint sits behind an hourly quota to keep that infeasible.
func GenerateResetCode(ttl time.Duration) (int, time.Time, error) {
	offset, err := rand.Int(rand.Reader, big.NewInt(resetCodeSpan))
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("sec: failed to generate reset code: %w", err)
	}

	code := resetCodeMin + int(offset.Int64())
	return code, time.Now().Add(ttl), nil
}

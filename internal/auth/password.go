// Package auth provides password hashing and token issuing for the user API.
package auth

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor. Cost 12 takes roughly 250ms on a
// modern server: negligible for a login, expensive for a brute-force attack.
const defaultCost = 12

// PasswordHasher hashes and verifies passwords with bcrypt.
//
// bcrypt generates a random salt per hash and embeds it in the output, so a
// single string column is all the store needs. The cost is injectable so
// tests can use the bcrypt minimum (4) instead of paying 250ms per hash.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher returns a hasher with the production cost.
func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{cost: defaultCost}
}

// NewPasswordHasherWithCost returns a hasher with a custom bcrypt cost.
// Intended for tests; do not lower the cost in production.
func NewPasswordHasherWithCost(cost int) *PasswordHasher {
	return &PasswordHasher{cost: cost}
}

// Hash hashes a plaintext password.
//
// Blank input is rejected: an empty password must fail at registration, not
// become a hashable value. Input over 72 bytes is rejected too, because
// bcrypt silently truncates beyond that.
func (p *PasswordHasher) Hash(plaintext string) (string, error) {
	if strings.TrimSpace(plaintext) == "" {
		return "", fmt.Errorf("auth: password must not be empty")
	}
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify reports whether plaintext matches the stored bcrypt hash.
//
// A mismatch is an expected outcome, not an error, so Verify returns a bool.
// bcrypt compares in constant time internally, so response timing does not
// reveal how close a guess was.
func (p *PasswordHasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher defines the interface for password hashing and verification
type Hasher interface {
	// Hash generates a salted hash from a plaintext password.
	Hash(plaintext string) (string, error)

	// Verify compares a plaintext password with a stored hash.
	Verify(plaintext, hash string) bool
}

type bcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a bcrypt-backed hasher. cost <= 0 selects the
// bcrypt default.
func NewBcryptHasher(cost int) Hasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &bcryptHasher{cost: cost}
}

// Hash generates a fresh random salt on every call, so hashing the same
// password twice yields different encoded values.
func (h *bcryptHasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify returns false for a wrong password or a malformed stored hash.
// bcrypt compares digests in constant time.
func (h *bcryptHasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies login credentials. It is an interface so the
// identity service can be tested with an instrumented implementation.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

type bcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a Hasher backed by bcrypt with the given work
// factor. A cost outside bcrypt's valid range falls back to the default.
func NewBcryptHasher(cost int) Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &bcryptHasher{cost: cost}
}

func (h *bcryptHasher) Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether plain matches hash. The comparison is constant-time
// with respect to the secret, delegated to bcrypt.
func (h *bcryptHasher) Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

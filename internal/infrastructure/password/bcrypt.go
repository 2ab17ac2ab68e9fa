package password

import (
	"errors"
	"fmt"

	domain "portfolio/backend/internal/domain/auth"
	usecase "portfolio/backend/internal/usecase/auth"

	"golang.org/x/crypto/bcrypt"
)

// Cost is the bcrypt work factor used for every new hash.
const Cost = bcrypt.DefaultCost

// BcryptHasher hashes passwords with bcrypt at a fixed cost.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher constructs a hasher using Cost.
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: Cost}
}

var _ usecase.PasswordHasher = (*BcryptHasher)(nil)

// Hash returns a salted bcrypt hash. A nil slice is rejected; an empty,
// non-nil slice is a valid (empty) password.
func (h *BcryptHasher) Hash(plaintext []byte) (string, error) {
	if plaintext == nil {
		return "", fmt.Errorf("hash password: %w", domain.ErrInvalidInput)
	}
	hashed, err := bcrypt.GenerateFromPassword(plaintext, h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("hash password: %w", domain.ErrInvalidInput)
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Compare reports whether plaintext matches hashed. Malformed hashes yield false.
func (h *BcryptHasher) Compare(plaintext []byte, hashed string) bool {
	if hashed == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), plaintext) == nil
}

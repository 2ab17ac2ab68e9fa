package auth

import (
	"context"
	"time"

	domain "portfolio/backend/internal/domain/auth"
)

// TokenClaims is the claim set carried by a session token.
type TokenClaims struct {
	Subject   string
	Role      domain.UserRole
	Email     string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenManager abstracts token issuance and verification.
// Verify returns domain.ErrTokenExpired or domain.ErrTokenMalformed on failure.
type TokenManager interface {
	Sign(claims TokenClaims, ttl time.Duration) (string, TokenClaims, error)
	Verify(token string) (TokenClaims, error)
}

// PasswordHasher hashes and compares passwords.
type PasswordHasher interface {
	Hash(plaintext []byte) (string, error)
	Compare(plaintext []byte, hashed string) bool
}

// Revoker records logged-out token ids until they would have expired anyway.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

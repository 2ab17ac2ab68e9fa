package token

import (
	"errors"
	"fmt"
	"time"

	domain "portfolio/backend/internal/domain/auth"
	usecase "portfolio/backend/internal/usecase/auth"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultTTL applies when Sign is called with a non-positive ttl.
	DefaultTTL = 7 * 24 * time.Hour
	// Leeway absorbs clock skew at the expiry boundary.
	Leeway = 30 * time.Second
)

// JWTManager issues and validates HS256 session tokens.
type JWTManager struct {
	secret  []byte
	issuer  string
	nowFunc func() time.Time
}

// NewJWTManager constructs a manager with the provided secret. A missing
// secret is a startup misconfiguration.
func NewJWTManager(secret, issuer string) (*JWTManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt signing secret is empty: %w", domain.ErrMisconfiguration)
	}
	return &JWTManager{
		secret:  []byte(secret),
		issuer:  issuer,
		nowFunc: time.Now,
	}, nil
}

// Ensure JWTManager implements the TokenManager interface.
var _ usecase.TokenManager = (*JWTManager)(nil)

// Claims represents token claims.
type Claims struct {
	Role  string `json:"role"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Sign creates a signed JWT for the subject, role and email in c.
func (m *JWTManager) Sign(c usecase.TokenClaims, ttl time.Duration) (string, usecase.TokenClaims, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := m.nowFunc().UTC().Truncate(time.Second)
	c.IssuedAt = now
	c.ExpiresAt = now.Add(ttl)

	claims := Claims{
		Role:  string(c.Role),
		Email: c.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.Subject,
			ID:        c.ID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(c.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(c.ExpiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", usecase.TokenClaims{}, err
	}
	return signed, c, nil
}

// Verify parses and validates the token returning its claims when valid.
func (m *JWTManager) Verify(tokenString string) (usecase.TokenClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(Leeway),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.nowFunc),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return usecase.TokenClaims{}, fmt.Errorf("%w: %v", domain.ErrTokenExpired, err)
		}
		return usecase.TokenClaims{}, fmt.Errorf("%w: %v", domain.ErrTokenMalformed, err)
	}
	if !token.Valid || claims.Subject == "" {
		return usecase.TokenClaims{}, fmt.Errorf("%w: missing subject", domain.ErrTokenMalformed)
	}

	role := domain.UserRole(claims.Role)
	if !role.Valid() {
		return usecase.TokenClaims{}, fmt.Errorf("%w: unknown role %q", domain.ErrTokenMalformed, claims.Role)
	}

	out := usecase.TokenClaims{
		Subject: claims.Subject,
		Role:    role,
		Email:   claims.Email,
		ID:      claims.ID,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

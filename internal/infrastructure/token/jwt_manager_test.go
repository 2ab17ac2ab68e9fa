package token

import (
	"strings"
	"testing"
	"time"

	domain "portfolio/backend/internal/domain/auth"
	usecase "portfolio/backend/internal/usecase/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, secret string, now *time.Time) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(secret, "portfolio")
	require.NoError(t, err)
	if now != nil {
		m.nowFunc = func() time.Time { return *now }
	}
	return m
}

func sampleClaims() usecase.TokenClaims {
	return usecase.TokenClaims{
		Subject: "user-1",
		Role:    domain.RoleAdmin,
		Email:   "admin@example.com",
		ID:      "jti-1",
	}
}

func TestNewJWTManager_MissingSecret(t *testing.T) {
	m, err := NewJWTManager("", "portfolio")
	assert.Nil(t, m)
	assert.ErrorIs(t, err, domain.ErrMisconfiguration)
}

func TestJWTManager_SignAndVerify(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := newTestManager(t, "test-secret", &now)

	token, issued, err := m.Sign(sampleClaims(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 3, len(strings.Split(token, ".")))
	assert.True(t, issued.ExpiresAt.Equal(now.Add(time.Hour)))

	now = now.Add(59 * time.Minute)
	got, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.Subject)
	assert.Equal(t, domain.RoleAdmin, got.Role)
	assert.Equal(t, "admin@example.com", got.Email)
	assert.Equal(t, "jti-1", got.ID)
	assert.True(t, got.IssuedAt.Equal(issued.IssuedAt))
	assert.True(t, got.ExpiresAt.Equal(issued.ExpiresAt))
}

func TestJWTManager_DefaultTTL(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := newTestManager(t, "test-secret", &now)

	_, issued, err := m.Sign(sampleClaims(), 0)
	require.NoError(t, err)
	assert.True(t, issued.ExpiresAt.Equal(now.Add(7*24*time.Hour)))
}

func TestJWTManager_Expiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := newTestManager(t, "test-secret", &now)

	token, _, err := m.Sign(sampleClaims(), time.Minute)
	require.NoError(t, err)

	// inside leeway
	now = now.Add(time.Minute + 10*time.Second)
	_, err = m.Verify(token)
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = m.Verify(token)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
	assert.NotErrorIs(t, err, domain.ErrTokenMalformed)
}

func TestJWTManager_Malformed(t *testing.T) {
	m := newTestManager(t, "test-secret", nil)
	other := newTestManager(t, "other-secret", nil)

	foreign, _, err := other.Sign(sampleClaims(), time.Hour)
	require.NoError(t, err)

	valid, _, err := m.Sign(sampleClaims(), time.Hour)
	require.NoError(t, err)
	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Role: string(domain.RoleAdmin),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "portfolio",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not.a.jwt"},
		{name: "wrong secret", token: foreign},
		{name: "tampered payload", token: tampered},
		{name: "alg none", token: unsigned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Verify(tt.token)
			assert.ErrorIs(t, err, domain.ErrTokenMalformed)
		})
	}
}

func TestJWTManager_RejectsWrongIssuerAndRole(t *testing.T) {
	m := newTestManager(t, "test-secret", nil)

	otherIssuer, err := NewJWTManager("test-secret", "someone-else")
	require.NoError(t, err)
	token, _, err := otherIssuer.Sign(sampleClaims(), time.Hour)
	require.NoError(t, err)
	_, err = m.Verify(token)
	assert.ErrorIs(t, err, domain.ErrTokenMalformed)

	c := sampleClaims()
	c.Role = "ROOT"
	token, _, err = m.Sign(c, time.Hour)
	require.NoError(t, err)
	_, err = m.Verify(token)
	assert.ErrorIs(t, err, domain.ErrTokenMalformed)
}

package sqlite

import (
	"context"
	"testing"
	"time"

	domain "portfolio/backend/internal/domain/auth"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newUser(email string, role domain.UserRole) *domain.User {
	now := time.Now().UTC().Truncate(time.Second)
	return &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         "Site Owner",
		Role:         role,
		PasswordHash: "$2a$10$hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestStorage_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	user := newUser("admin@example.com", domain.RoleAdmin)
	require.NoError(t, s.Create(ctx, user))

	byEmail, err := s.GetByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.Equal(t, domain.RoleAdmin, byEmail.Role)
	assert.Equal(t, "Site Owner", byEmail.Name)
	assert.Equal(t, user.PasswordHash, byEmail.PasswordHash)

	byID, err := s.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, byID.Email)
}

func TestStorage_EmailIsCaseSensitive(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	require.NoError(t, s.Create(ctx, newUser("admin@example.com", domain.RoleAdmin)))

	_, err := s.GetByEmail(ctx, "Admin@Example.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	// a differently cased address is a distinct record
	require.NoError(t, s.Create(ctx, newUser("Admin@example.com", domain.RoleUser)))
}

func TestStorage_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	require.NoError(t, s.Create(ctx, newUser("admin@example.com", domain.RoleAdmin)))
	err := s.Create(ctx, newUser("admin@example.com", domain.RoleUser))
	assert.ErrorIs(t, err, domain.ErrEmailExists)
}

func TestStorage_UpdatePassword(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	user := newUser("admin@example.com", domain.RoleAdmin)
	require.NoError(t, s.Create(ctx, user))

	require.NoError(t, s.UpdatePassword(ctx, user.ID, "$2a$10$other", time.Now()))

	got, err := s.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "$2a$10$other", got.PasswordHash)

	err = s.UpdatePassword(ctx, "missing", "x", time.Now())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestStorage_NotFound(t *testing.T) {
	s := setupTestStorage(t)

	_, err := s.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

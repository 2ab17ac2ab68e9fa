package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	domain "portfolio/backend/internal/domain/auth"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *UserRepository {
	t.Helper()
	dsn := os.Getenv("PORTFOLIO_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("PORTFOLIO_TEST_POSTGRES_DSN not set; skipping PostgreSQL tests")
	}

	ctx := context.Background()
	db, err := New(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx))

	db.Pool.Exec(ctx, "DELETE FROM users") //nolint:errcheck
	t.Cleanup(func() {
		db.Pool.Exec(ctx, "DELETE FROM users") //nolint:errcheck
		db.Close()
	})
	return NewUserRepository(db.Pool)
}

func TestUserRepository(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        "admin@example.com",
		Name:         "Admin",
		Role:         domain.RoleAdmin,
		PasswordHash: "$2a$10$hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, repo.Create(ctx, user))
	assert.ErrorIs(t, repo.Create(ctx, user), domain.ErrEmailExists)

	got, err := repo.GetByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, domain.RoleAdmin, got.Role)

	_, err = repo.GetByEmail(ctx, "ADMIN@example.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	require.NoError(t, repo.UpdatePassword(ctx, user.ID, "$2a$10$other", now.Add(time.Minute)))
	got, err = repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "$2a$10$other", got.PasswordHash)

	assert.ErrorIs(t, repo.UpdatePassword(ctx, uuid.NewString(), "x", now), domain.ErrUserNotFound)
}

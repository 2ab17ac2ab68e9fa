package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	domain "portfolio/backend/internal/domain/auth"
	"portfolio/backend/internal/infrastructure/password"
	"portfolio/backend/internal/infrastructure/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func useTempStore(t *testing.T) string {
	t.Helper()
	for _, key := range []string{"DATABASE_URL", "POSTGRES_URL", "PGURL", "DATABASE_URL_FILE", "PGHOST", "POSTGRES_HOST"} {
		t.Setenv(key, "")
	}
	path := filepath.Join(t.TempDir(), "data", "portfolio.db")
	t.Setenv("SQLITE_PATH", path)
	return path
}

func TestHashPasswordCmd(t *testing.T) {
	out, err := runCLI(t, "hunter2\n", "hash-password")
	require.NoError(t, err)

	hashed := strings.TrimSpace(out)
	assert.True(t, password.NewBcryptHasher().Compare([]byte("hunter2"), hashed))
}

func TestAdminCreateAndSetPassword(t *testing.T) {
	path := useTempStore(t)
	hasher := password.NewBcryptHasher()

	out, err := runCLI(t, "first-pass\n", "admin", "create", "--email", "owner@example.com", "--name", "Owner")
	require.NoError(t, err)
	assert.Contains(t, out, "created owner@example.com (ADMIN)")

	_, err = runCLI(t, "second-pass\n", "admin", "set-password", "--email", "owner@example.com")
	require.NoError(t, err)

	store, err := sqlite.New(context.Background(), path)
	require.NoError(t, err)
	defer store.Close()

	u, err := store.GetByEmail(context.Background(), "owner@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, u.Role)
	assert.Equal(t, "Owner", u.Name)
	assert.True(t, hasher.Compare([]byte("second-pass"), u.PasswordHash))
}

func TestAdminCreateDuplicate(t *testing.T) {
	useTempStore(t)

	_, err := runCLI(t, "pw\n", "admin", "create", "--email", "dup@example.com")
	require.NoError(t, err)

	_, err = runCLI(t, "pw\n", "admin", "create", "--email", "dup@example.com")
	assert.ErrorIs(t, err, domain.ErrEmailExists)
}

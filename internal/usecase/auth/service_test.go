package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "portfolio/backend/internal/domain/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	users map[string]*domain.User
	err   error
}

func (f *fakeUsers) Create(_ context.Context, u *domain.User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id, hash string, _ time.Time) error {
	u, ok := f.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

// countingHasher records Compare calls so timing-equalisation can be asserted.
type countingHasher struct {
	compares int
}

func (h *countingHasher) Hash(p []byte) (string, error) {
	if p == nil {
		return "", domain.ErrInvalidInput
	}
	return "h:" + string(p), nil
}

func (h *countingHasher) Compare(p []byte, hashed string) bool {
	h.compares++
	return hashed == "h:"+string(p)
}

type fakeTokens struct {
	issued map[string]TokenClaims
	seq    int
}

func (f *fakeTokens) Sign(c TokenClaims, ttl time.Duration) (string, TokenClaims, error) {
	f.seq++
	c.IssuedAt = time.Now()
	c.ExpiresAt = c.IssuedAt.Add(ttl)
	tok := "tok-" + c.ID
	f.issued[tok] = c
	return tok, c, nil
}

func (f *fakeTokens) Verify(tok string) (TokenClaims, error) {
	c, ok := f.issued[tok]
	if !ok {
		return TokenClaims{}, domain.ErrTokenMalformed
	}
	if time.Now().After(c.ExpiresAt) {
		return TokenClaims{}, domain.ErrTokenExpired
	}
	return c, nil
}

type memRevoker struct {
	ids map[string]time.Time
	err error
}

func (m *memRevoker) Revoke(_ context.Context, id string, exp time.Time) error {
	m.ids[id] = exp
	return nil
}

func (m *memRevoker) IsRevoked(_ context.Context, id string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.ids[id]
	return ok, nil
}

type fixture struct {
	svc     *Service
	users   *fakeUsers
	hasher  *countingHasher
	tokens  *fakeTokens
	revoker *memRevoker
	admin   *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:   &fakeUsers{users: map[string]*domain.User{}},
		hasher:  &countingHasher{},
		tokens:  &fakeTokens{issued: map[string]TokenClaims{}},
		revoker: &memRevoker{ids: map[string]time.Time{}},
	}
	f.admin = &domain.User{
		ID:           "u-1",
		Email:        "admin@example.com",
		Name:         "Admin",
		Role:         domain.RoleAdmin,
		PasswordHash: "h:secret",
	}
	f.users.users[f.admin.ID] = f.admin
	f.svc = NewService(f.users, f.tokens, f.hasher, f.revoker, time.Hour)
	return f
}

func TestService_Login(t *testing.T) {
	f := newFixture(t)

	tok, user, err := f.svc.Login(context.Background(), domain.Credentials{
		Email:    " admin@example.com ",
		Password: "secret",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tok)
	assert.Equal(t, "u-1", user.ID)
	assert.Empty(t, user.PasswordHash)

	claims := f.tokens.issued[tok]
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestService_LoginFailures(t *testing.T) {
	tests := []struct {
		name         string
		creds        domain.Credentials
		wantCompares int
	}{
		{name: "unknown email", creds: domain.Credentials{Email: "nobody@example.com", Password: "secret"}, wantCompares: 1},
		{name: "wrong password", creds: domain.Credentials{Email: "admin@example.com", Password: "nope"}, wantCompares: 1},
		{name: "email differs in case", creds: domain.Credentials{Email: "Admin@example.com", Password: "secret"}, wantCompares: 1},
		{name: "empty password", creds: domain.Credentials{Email: "admin@example.com"}, wantCompares: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, _, err := f.svc.Login(context.Background(), tt.creds)
			assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
			assert.Equal(t, tt.wantCompares, f.hasher.compares)
		})
	}
}

func TestService_LoginStoreError(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("db down")
	f.users.err = boom

	_, _, err := f.svc.Login(context.Background(), domain.Credentials{Email: "admin@example.com", Password: "secret"})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestService_VerifyAndLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tok, _, err := f.svc.Login(ctx, domain.Credentials{Email: "admin@example.com", Password: "secret"})
	require.NoError(t, err)

	id, err := f.svc.VerifyToken(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", id.UserID)
	assert.True(t, id.IsAdmin())

	require.NoError(t, f.svc.Logout(ctx, tok))
	_, err = f.svc.VerifyToken(ctx, tok)
	assert.ErrorIs(t, err, domain.ErrTokenRevoked)

	assert.NoError(t, f.svc.Logout(ctx, "garbage"))
	assert.NoError(t, f.svc.Logout(ctx, ""))

	_, err = f.svc.VerifyToken(ctx, "garbage")
	assert.ErrorIs(t, err, domain.ErrTokenMalformed)
}

func TestService_VerifyRevokerError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tok, _, err := f.svc.Login(ctx, domain.Credentials{Email: "admin@example.com", Password: "secret"})
	require.NoError(t, err)

	f.revoker.err = errors.New("bolt closed")
	_, err = f.svc.VerifyToken(ctx, tok)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrTokenRevoked)
}

func TestService_WithoutRevoker(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.users, f.tokens, f.hasher, nil, time.Hour)
	ctx := context.Background()

	tok, _, err := svc.Login(ctx, domain.Credentials{Email: "admin@example.com", Password: "secret"})
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, tok))

	_, err = svc.VerifyToken(ctx, tok)
	assert.NoError(t, err)
}

func TestService_CurrentUser(t *testing.T) {
	f := newFixture(t)

	u, err := f.svc.CurrentUser(context.Background(), domain.Identity{UserID: "u-1"})
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", u.Email)
	assert.Empty(t, u.PasswordHash)

	_, err = f.svc.CurrentUser(context.Background(), domain.Identity{UserID: "gone"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestService_ChangePassword(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		current string
		next    string
		wantErr error
	}{
		{name: "wrong current", current: "nope", next: "fresh", wantErr: domain.ErrPasswordMismatch},
		{name: "unchanged", current: "secret", next: "secret", wantErr: domain.ErrPasswordUnchanged},
		{name: "empty new", current: "secret", next: "", wantErr: domain.ErrInvalidInput},
		{name: "ok", current: "secret", next: "fresh"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			err := f.svc.ChangePassword(ctx, "u-1", tt.current, tt.next)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, "h:secret", f.admin.PasswordHash)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "h:fresh", f.admin.PasswordHash)
		})
	}
}

func TestService_Authorize(t *testing.T) {
	f := newFixture(t)

	assert.NoError(t, f.svc.Authorize(domain.Identity{UserID: "u-1", Role: domain.RoleAdmin}, domain.RoleAdmin))
	assert.ErrorIs(t, f.svc.Authorize(domain.Identity{UserID: "u-2", Role: domain.RoleUser}, domain.RoleAdmin), domain.ErrForbidden)
	assert.ErrorIs(t, f.svc.Authorize(domain.Identity{}, domain.RoleAdmin), domain.ErrForbidden)
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "portfolio/backend/internal/domain/auth"

	"github.com/google/uuid"
)

// Service coordinates authentication workflows between domain and infrastructure.
type Service struct {
	users   domain.UserRepository
	tokens  TokenManager
	hasher  PasswordHasher
	revoker Revoker
	ttl     time.Duration
	nowFunc func() time.Time
	// dummyHash is compared against when the email is unknown so that both
	// failure paths pay for one hash comparison.
	dummyHash string
}

// NewService constructs an auth service. revoker may be nil, in which case
// logout only clears the client cookie.
func NewService(users domain.UserRepository, tokens TokenManager, hasher PasswordHasher, revoker Revoker, ttl time.Duration) *Service {
	dummy, _ := hasher.Hash([]byte(uuid.NewString()))
	return &Service{
		users:     users,
		tokens:    tokens,
		hasher:    hasher,
		revoker:   revoker,
		ttl:       ttl,
		nowFunc:   time.Now,
		dummyHash: dummy,
	}
}

// Login validates credentials and returns a signed token plus the sanitized user.
func (s *Service) Login(ctx context.Context, creds domain.Credentials) (string, *domain.User, error) {
	email := strings.TrimSpace(creds.Email)
	if email == "" || creds.Password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.hasher.Compare([]byte(creds.Password), s.dummyHash)
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if !s.hasher.Compare([]byte(creds.Password), user.PasswordHash) {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, _, err := s.tokens.Sign(TokenClaims{
		Subject: user.ID,
		Role:    user.Role,
		Email:   user.Email,
		ID:      uuid.NewString(),
	}, s.ttl)
	if err != nil {
		return "", nil, fmt.Errorf("sign session token: %w", err)
	}

	return token, sanitizeUser(user), nil
}

// VerifyToken validates a session token and returns the identity it carries.
// Failures are one of domain.ErrTokenExpired, ErrTokenMalformed or ErrTokenRevoked,
// or an infrastructure error from the denylist.
func (s *Service) VerifyToken(ctx context.Context, token string) (domain.Identity, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return domain.Identity{}, err
	}

	if s.revoker != nil && claims.ID != "" {
		revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			return domain.Identity{}, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return domain.Identity{}, domain.ErrTokenRevoked
		}
	}

	return domain.Identity{
		UserID:    claims.Subject,
		Email:     claims.Email,
		Role:      claims.Role,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

// Logout revokes the token so it cannot be replayed before it expires.
// Tokens that no longer verify are ignored; there is nothing to revoke.
func (s *Service) Logout(ctx context.Context, token string) error {
	if s.revoker == nil || token == "" {
		return nil
	}
	claims, err := s.tokens.Verify(token)
	if err != nil || claims.ID == "" {
		return nil
	}
	return s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt)
}

// CurrentUser loads the user behind a verified identity.
func (s *Service) CurrentUser(ctx context.Context, identity domain.Identity) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

// ChangePassword verifies the current password and stores a hash of the new one.
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: new password is required", domain.ErrInvalidInput)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if !s.hasher.Compare([]byte(currentPassword), user.PasswordHash) {
		return domain.ErrPasswordMismatch
	}
	if currentPassword == newPassword {
		return domain.ErrPasswordUnchanged
	}

	hashed, err := s.hasher.Hash([]byte(newPassword))
	if err != nil {
		return err
	}

	return s.users.UpdatePassword(ctx, user.ID, hashed, s.nowFunc().UTC())
}

// Authorize reports whether identity carries the required role.
func (s *Service) Authorize(identity domain.Identity, role domain.UserRole) error {
	if identity.Role != role {
		return fmt.Errorf("%w: role %s, need %s", domain.ErrForbidden, identity.Role, role)
	}
	return nil
}

func sanitizeUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	copy := *u
	copy.PasswordHash = ""
	return &copy
}

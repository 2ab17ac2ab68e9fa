package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "portfolio/backend/internal/domain/auth"
	authusecase "portfolio/backend/internal/usecase/auth"

	"github.com/google/uuid"
)

// Service provisions credential records out of band, for the operator CLI.
type Service struct {
	repo    domain.UserRepository
	hasher  authusecase.PasswordHasher
	nowFunc func() time.Time
}

// NewService constructs a user service around the provided repository.
func NewService(repo domain.UserRepository, hasher authusecase.PasswordHasher) *Service {
	return &Service{
		repo:    repo,
		hasher:  hasher,
		nowFunc: time.Now,
	}
}

// CreateInput defines the payload to create a new user.
type CreateInput struct {
	Email    string
	Name     string
	Password string
	Role     string
}

// Create persists a new user with the provided details. Role defaults to ADMIN.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.User, error) {
	email := strings.TrimSpace(input.Email)
	name := strings.TrimSpace(input.Name)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	if input.Password == "" {
		return nil, fmt.Errorf("%w: password is required", domain.ErrInvalidInput)
	}

	role, err := ParseRole(input.Role)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hashed, err := s.hasher.Hash([]byte(input.Password))
	if err != nil {
		return nil, err
	}

	now := s.nowFunc().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		Role:         role,
		PasswordHash: hashed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

// SetPassword replaces the password of the user with the given email.
func (s *Service) SetPassword(ctx context.Context, email, password string) error {
	if password == "" {
		return fmt.Errorf("%w: password is required", domain.ErrInvalidInput)
	}
	user, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return err
	}
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, user.ID, hashed, s.nowFunc().UTC())
}

// ParseRole accepts a role name in any case; empty means ADMIN.
func ParseRole(raw string) (domain.UserRole, error) {
	role := domain.UserRole(strings.ToUpper(strings.TrimSpace(raw)))
	if role == "" {
		return domain.RoleAdmin, nil
	}
	if !role.Valid() {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidRole, raw)
	}
	return role, nil
}

func sanitizeUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	copy := *u
	copy.PasswordHash = ""
	return &copy
}

package auth

import (
	"context"
	"time"
)

// UserRepository defines persistence operations for credential records.
// The core only needs GetByEmail and UpdatePassword; the rest serve
// provisioning and the whoami lookup.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
}

package auth

import (
	"errors"
	"time"
)

var (
	// ErrInvalidCredentials indicates a login failure. It never says which half was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailExists signals a duplicate email on provisioning.
	ErrEmailExists = errors.New("email already registered")
	// ErrTokenExpired means the token was well formed but is past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenMalformed means the token structure or signature could not be validated.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenRevoked means the token was explicitly logged out.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrForbidden indicates an authenticated identity lacking the required role.
	ErrForbidden = errors.New("insufficient privileges")
	// ErrUserNotFound indicates missing user.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidRole indicates the provided role is not supported.
	ErrInvalidRole = errors.New("invalid role")
	// ErrInvalidInput is returned by the password hasher for absent or oversized input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrPasswordMismatch indicates the current password is incorrect.
	ErrPasswordMismatch = errors.New("current password does not match")
	// ErrPasswordUnchanged indicates the new password matches the current one.
	ErrPasswordUnchanged = errors.New("new password must be different from current password")
	// ErrMisconfiguration is fatal at startup, e.g. a missing signing secret.
	ErrMisconfiguration = errors.New("misconfiguration")
)

// UserRole identifies the privileges assigned to a user.
type UserRole string

const (
	// RoleUser represents a standard application user.
	RoleUser UserRole = "USER"
	// RoleAdmin represents the site administrator.
	RoleAdmin UserRole = "ADMIN"
)

// Valid reports whether the role is one of the recognised roles.
func (r UserRole) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User models the credential record persisted in storage.
// PasswordHash must never leave the usecase layer.
type User struct {
	ID           string
	Email        string
	Name         string
	Role         UserRole
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Credentials captures raw credential input for login.
type Credentials struct {
	Email    string
	Password string
}

// Identity is the verified subject of a session token.
type Identity struct {
	UserID    string
	Email     string
	Role      UserRole
	TokenID   string
	ExpiresAt time.Time
}

// IsAdmin reports whether the identity holds the administrator role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/careloop/clinic-booking/internal/booking"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found")
)

// UserRecord is a stored account: the session identity plus its password
// hash.
type UserRecord struct {
	ID           uuid.UUID
	Name         string
	Email        string
	Role         booking.Role
	PasswordHash string
	CreatedAt    time.Time
}

// User strips the record down to the session identity handed to callers.
func (u *UserRecord) User() booking.User {
	return booking.User{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}

// Repository stores accounts and their role profiles.
type Repository interface {
	// CreateUser inserts the account and the role-specific profile row.
	// ErrEmailTaken when the email is already registered.
	CreateUser(ctx context.Context, rec *UserRecord) error
	GetUserByEmail(ctx context.Context, email string) (*UserRecord, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*UserRecord, error)
}

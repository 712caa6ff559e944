// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"

	"locker/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Domain-specific errors for user persistence.
var (
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameTaken is returned when creating a user with a username that is already registered.
	ErrUsernameTaken = errors.New("username already taken")
)

// UserRepository defines the interface for user account persistence.
type UserRepository interface {
	// CreateUser persists a new user account. The password hash must
	// already be computed; this layer never sees plaintext passwords.
	CreateUser(ctx context.Context, user *entity.User) error

	// FindByID retrieves a user by their unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// FindByUsername retrieves a user by their login identifier.
	// Used by the password grant; backed by a unique index.
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
}

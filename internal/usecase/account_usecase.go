package usecase

import (
	"context"

	"locker/internal/domain/entity"

	"github.com/google/uuid"
)

// RegisterInput defines the data required to register a new account.
type RegisterInput struct {
	Username    string
	Password    string
	DisplayName string
}

// RegisterOutput returns the newly created account's basic information.
type RegisterOutput struct {
	User *entity.User
}

// AccountUsecase defines account-level operations.
type AccountUsecase interface {
	// Register creates a new account with a hashed password.
	Register(ctx context.Context, input RegisterInput) (*RegisterOutput, error)

	// GetAccount looks up an account by ID.
	GetAccount(ctx context.Context, userID uuid.UUID) (*entity.User, error)

	// LogoutAll revokes every token pair belonging to the user and
	// returns how many were revoked.
	LogoutAll(ctx context.Context, userID uuid.UUID) (int64, error)
}

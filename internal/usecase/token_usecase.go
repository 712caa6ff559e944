// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"locker/internal/domain/entity"
)

// --- Input DTOs ---

// PasswordGrantInput carries the fields of a resource-owner password
// grant request.
type PasswordGrantInput struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	Scope        string
}

// RefreshGrantInput carries the fields of a refresh-token grant request.
type RefreshGrantInput struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// RevokeInput carries the fields of a token revocation request. Token
// may be either half of a pair.
type RevokeInput struct {
	ClientID     string
	ClientSecret string
	Token        string
}

// --- Output DTOs ---

// TokenOutput is the successful grant response.
type TokenOutput struct {
	AccessToken      string
	RefreshToken     string
	TokenType        string
	ExpiresIn        int64
	RefreshExpiresIn int64
	Scope            string
}

// TokenUsecase issues, refreshes, revokes, and authenticates opaque
// token pairs. Failed client authentication and failed grants report
// generic errors so a caller cannot probe which part was wrong.
type TokenUsecase interface {
	// IssueWithPassword exchanges resource-owner credentials for a new
	// token pair.
	IssueWithPassword(ctx context.Context, input PasswordGrantInput) (*TokenOutput, error)

	// IssueWithRefreshToken exchanges a live refresh token for a new
	// pair. The consumed pair is revoked in the same transaction.
	IssueWithRefreshToken(ctx context.Context, input RefreshGrantInput) (*TokenOutput, error)

	// Revoke deletes the pair containing the given token value.
	// Revoking an unknown or already-revoked value succeeds.
	Revoke(ctx context.Context, input RevokeInput) error

	// Authenticate resolves an access-token value to its pair. Returns
	// ErrTokenExpired for a known-but-stale value and ErrUnauthorized
	// for an unknown one.
	Authenticate(ctx context.Context, accessToken string) (*entity.TokenPair, error)
}

package repository

import (
	"context"

	"locker/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrTokenNotFound is returned when no stored pair matches the lookup value.
var ErrTokenNotFound = errors.New("token not found")

// TokenRepository is the durable credential store: one row per issued
// access/refresh pair, unique-indexed on each token value so that the
// per-request lookup stays O(1)-ish. Expiry is checked by callers at
// the point of use; no background sweep runs here.
type TokenRepository interface {
	// CreateToken persists a freshly minted pair together with its
	// client and user references in one atomic insert. A partially
	// persisted pair is never visible to a lookup.
	CreateToken(ctx context.Context, pair *entity.TokenPair) error

	// FindByAccessToken retrieves a stored pair by its access-token
	// value. Runs on every authenticated request.
	FindByAccessToken(ctx context.Context, value string) (*entity.TokenPair, error)

	// FindByRefreshToken retrieves a stored pair by its refresh-token value.
	FindByRefreshToken(ctx context.Context, value string) (*entity.TokenPair, error)

	// RevokeByValue deletes every stored pair whose access token OR
	// refresh token equals value, so one logout call invalidates both
	// halves of the pair it names. Returns the number of rows removed;
	// revoking an unknown value is not an error.
	RevokeByValue(ctx context.Context, value string) (int64, error)

	// RevokeByUserID deletes all stored pairs for one user
	// ("logout from all devices").
	RevokeByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
}

package service

import (
	"time"

	"locker/internal/domain/entity"

	"github.com/google/uuid"
)

// TokenMinter mints new token pairs. Token values are opaque random
// strings; they carry no claims and mean nothing until looked up in
// the credential store, so minting is pure generation plus policy
// TTLs, with no signing involved.
type TokenMinter interface {
	// Mint creates a new pair with fresh random values and expirations
	// computed from the configured policy durations. The pair is not
	// persisted; that is the credential store's job.
	Mint(clientID string, userID uuid.UUID, scope string) (*entity.TokenPair, error)

	// AccessTokenTTL returns the configured access-token lifetime.
	AccessTokenTTL() time.Duration

	// RefreshTokenTTL returns the configured refresh-token lifetime.
	RefreshTokenTTL() time.Duration
}

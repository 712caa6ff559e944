package entity

import (
	"time"

	"github.com/google/uuid"
)

// TokenPair is one issued access/refresh credential pair. A pair is
// immutable once issued: a refresh grant mints a new pair and removes
// the one it consumed, it never mutates a stored row in place.
//
// Both token values are opaque random strings. They are looked up by
// value on every authenticated request, so the store keeps a unique
// index on each of them. Expiry is enforced at lookup time; there is
// no background sweep.
type TokenPair struct {
	ID                    uuid.UUID // The unique ID for this issuance record.
	AccessToken           string    // Short-lived opaque bearer value.
	RefreshToken          string    // Long-lived opaque value used to mint the next pair.
	AccessTokenExpiresAt  time.Time // Absolute expiry of the access token.
	RefreshTokenExpiresAt time.Time // Absolute expiry of the refresh token.
	Scope                 string    // Space-delimited capability string.
	ClientID              string    // The client application this pair was issued to.
	UserID                uuid.UUID // The resource owner this pair was issued for.
	CreatedAt             time.Time // Timestamp of issuance.
}

// AccessTokenExpired reports whether the access token half is past its expiry.
func (t *TokenPair) AccessTokenExpired(now time.Time) bool {
	return !t.AccessTokenExpiresAt.After(now)
}

// RefreshTokenExpired reports whether the refresh token half is past its expiry.
func (t *TokenPair) RefreshTokenExpired(now time.Time) bool {
	return !t.RefreshTokenExpiresAt.After(now)
}

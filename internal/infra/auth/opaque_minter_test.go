package auth

import (
	"testing"
	"time"

	"locker/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minterConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Auth = &config.AuthConfig{
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}

	return cfg
}

func TestOpaqueMinter_Mint(t *testing.T) {
	minter := NewOpaqueMinter(minterConfig())
	userID := uuid.New()

	before := time.Now()
	pair, err := minter.Mint("web-app", userID, "vault:read vault:write")
	require.NoError(t, err)

	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	assert.Equal(t, "web-app", pair.ClientID)
	assert.Equal(t, userID, pair.UserID)
	assert.Equal(t, "vault:read vault:write", pair.Scope)

	// Expirations are computed from policy TTLs relative to mint time.
	assert.WithinDuration(t, before.Add(15*time.Minute), pair.AccessTokenExpiresAt, 2*time.Second)
	assert.WithinDuration(t, before.Add(7*24*time.Hour), pair.RefreshTokenExpiresAt, 2*time.Second)
	assert.True(t, pair.RefreshTokenExpiresAt.After(pair.AccessTokenExpiresAt))
}

func TestOpaqueMinter_ValuesAreUnique(t *testing.T) {
	minter := NewOpaqueMinter(minterConfig())
	userID := uuid.New()

	seen := make(map[string]bool)
	for range 100 {
		pair, err := minter.Mint("web-app", userID, "")
		require.NoError(t, err)
		assert.False(t, seen[pair.AccessToken], "duplicate access token value")
		assert.False(t, seen[pair.RefreshToken], "duplicate refresh token value")
		seen[pair.AccessToken] = true
		seen[pair.RefreshToken] = true
	}
}

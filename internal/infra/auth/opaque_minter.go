package auth

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"locker/config"
	"locker/internal/domain/entity"
	"locker/internal/domain/service"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// tokenValueBytes is the entropy per token value; 32 bytes encodes to a
// 43-character URL-safe string.
const tokenValueBytes = 32

// opaqueMinter is a concrete implementation of the TokenMinter interface.
// Token values are random strings from a CSPRNG; they carry no structure
// and are only meaningful as credential-store lookup keys.
type opaqueMinter struct {
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewOpaqueMinter is the constructor for opaqueMinter.
func NewOpaqueMinter(cfg *config.Config) service.TokenMinter {
	return &opaqueMinter{
		accessTTL:  cfg.Auth.AccessTokenTTL,
		refreshTTL: cfg.Auth.RefreshTokenTTL,
	}
}

// Mint creates a new pair with fresh random values and policy expirations.
func (m *opaqueMinter) Mint(clientID string, userID uuid.UUID, scope string) (*entity.TokenPair, error) {
	accessValue, err := randomTokenValue()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate access token value")
	}

	refreshValue, err := randomTokenValue()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate refresh token value")
	}

	now := time.Now()

	return &entity.TokenPair{
		ID:                    uuid.New(),
		AccessToken:           accessValue,
		RefreshToken:          refreshValue,
		AccessTokenExpiresAt:  now.Add(m.accessTTL),
		RefreshTokenExpiresAt: now.Add(m.refreshTTL),
		Scope:                 scope,
		ClientID:              clientID,
		UserID:                userID,
		CreatedAt:             now,
	}, nil
}

// AccessTokenTTL returns the configured access-token lifetime.
func (m *opaqueMinter) AccessTokenTTL() time.Duration {
	return m.accessTTL
}

// RefreshTokenTTL returns the configured refresh-token lifetime.
func (m *opaqueMinter) RefreshTokenTTL() time.Duration {
	return m.refreshTTL
}

func randomTokenValue() (string, error) {
	buf := make([]byte, tokenValueBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.WithStack(err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

package impl

import (
	"context"
	"testing"
	"time"

	"locker/internal/domain/entity"
	domainerrors "locker/internal/domain/errors"
	"locker/internal/domain/repository"
	"locker/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type tokenServiceFixture struct {
	users   *mockUserRepository
	clients *mockClientRepository
	tokens  *mockTokenRepository
	hasher  *mockPasswordHasher
	minter  *mockTokenMinter
	service usecase.TokenUsecase
}

func newTokenServiceFixture() *tokenServiceFixture {
	f := &tokenServiceFixture{
		users:   &mockUserRepository{},
		clients: &mockClientRepository{},
		tokens:  &mockTokenRepository{},
		hasher:  &mockPasswordHasher{},
		minter:  &mockTokenMinter{},
	}
	txManager := &fakeTxManager{factory: &fakeFactory{
		users:   f.users,
		clients: f.clients,
		tokens:  f.tokens,
	}}
	f.service = NewTokenService(TokenServiceParams{
		TxManager: txManager,
		Minter:    f.minter,
		Hasher:    f.hasher,
		Logger:    newDiscardLogger(),
	})

	return f
}

func testClient() *entity.Client {
	return &entity.Client{
		ClientID:     "cli",
		ClientSecret: "s3cret",
		Grants:       []string{entity.GrantPassword, entity.GrantRefreshToken},
	}
}

func testPair(userID uuid.UUID) *entity.TokenPair {
	now := time.Now()

	return &entity.TokenPair{
		ID:                    uuid.New(),
		AccessToken:           "access-value",
		RefreshToken:          "refresh-value",
		AccessTokenExpiresAt:  now.Add(15 * time.Minute),
		RefreshTokenExpiresAt: now.Add(168 * time.Hour),
		Scope:                 "vault",
		ClientID:              "cli",
		UserID:                userID,
	}
}

func TestTokenService_IssueWithPassword_Success(t *testing.T) {
	f := newTokenServiceFixture()
	ctx := context.Background()
	userID := uuid.New()
	user := &entity.User{ID: userID, Username: "alice", PasswordHash: "hashed"}
	pair := testPair(userID)

	f.clients.On("FindByClientID", ctx, "cli").Return(testClient(), nil)
	f.users.On("FindByUsername", ctx, "alice").Return(user, nil)
	f.hasher.On("Check", "correct horse", "hashed").Return(true)
	f.minter.On("Mint", "cli", userID, "vault").Return(pair, nil)
	f.minter.On("AccessTokenTTL").Return(15 * time.Minute)
	f.minter.On("RefreshTokenTTL").Return(720 * time.Hour)
	f.tokens.On("CreateToken", ctx, pair).Return(nil)

	out, err := f.service.IssueWithPassword(ctx, usecase.PasswordGrantInput{
		ClientID:     "cli",
		ClientSecret: "s3cret",
		Username:     "alice",
		Password:     "correct horse",
		Scope:        "vault",
	})

	require.NoError(t, err)
	assert.Equal(t, "access-value", out.AccessToken)
	assert.Equal(t, "refresh-value", out.RefreshToken)
	assert.Equal(t, "Bearer", out.TokenType)
	assert.Equal(t, int64(900), out.ExpiresIn)
	assert.Equal(t, int64(720*3600), out.RefreshExpiresIn)
	assert.Equal(t, "vault", out.Scope)
	f.tokens.AssertExpectations(t)
}

func TestTokenService_IssueWithPassword_ClientFailures(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(f *tokenServiceFixture, ctx context.Context)
		secret string
	}{
		{
			name: "unknown client",
			setup: func(f *tokenServiceFixture, ctx context.Context) {
				f.clients.On("FindByClientID", ctx, "cli").Return(nil, repository.ErrClientNotFound)
			},
			secret: "s3cret",
		},
		{
			name: "wrong secret",
			setup: func(f *tokenServiceFixture, ctx context.Context) {
				f.clients.On("FindByClientID", ctx, "cli").Return(testClient(), nil)
			},
			secret: "wrong",
		},
		{
			name: "grant not allowed",
			setup: func(f *tokenServiceFixture, ctx context.Context) {
				client := testClient()
				client.Grants = []string{entity.GrantRefreshToken}
				f.clients.On("FindByClientID", ctx, "cli").Return(client, nil)
			},
			secret: "s3cret",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTokenServiceFixture()
			ctx := context.Background()
			tt.setup(f, ctx)

			out, err := f.service.IssueWithPassword(ctx, usecase.PasswordGrantInput{
				ClientID:     "cli",
				ClientSecret: tt.secret,
				Username:     "alice",
				Password:     "pw",
			})

			require.Nil(t, out)
			assert.ErrorIs(t, err, domainerrors.ErrInvalidClient)
			f.users.AssertNotCalled(t, "FindByUsername", mock.Anything, mock.Anything)
		})
	}
}

func TestTokenService_IssueWithPassword_OwnerFailuresLookAlike(t *testing.T) {
	ctx := context.Background()

	unknown := newTokenServiceFixture()
	unknown.clients.On("FindByClientID", ctx, "cli").Return(testClient(), nil)
	unknown.users.On("FindByUsername", ctx, "ghost").Return(nil, repository.ErrUserNotFound)

	_, unknownErr := unknown.service.IssueWithPassword(ctx, usecase.PasswordGrantInput{
		ClientID: "cli", ClientSecret: "s3cret", Username: "ghost", Password: "pw",
	})

	badPassword := newTokenServiceFixture()
	badPassword.clients.On("FindByClientID", ctx, "cli").Return(testClient(), nil)
	badPassword.users.On("FindByUsername", ctx, "alice").
		Return(&entity.User{ID: uuid.New(), Username: "alice", PasswordHash: "hashed"}, nil)
	badPassword.hasher.On("Check", "pw", "hashed").Return(false)

	_, badPasswordErr := badPassword.service.IssueWithPassword(ctx, usecase.PasswordGrantInput{
		ClientID: "cli", ClientSecret: "s3cret", Username: "alice", Password: "pw",
	})

	// An unknown username and a wrong password must be indistinguishable.
	require.Error(t, unknownErr)
	require.Error(t, badPasswordErr)
	assert.ErrorIs(t, unknownErr, domainerrors.ErrInvalidGrant)
	assert.ErrorIs(t, badPasswordErr, domainerrors.ErrInvalidGrant)
}

func TestTokenService_IssueWithRefreshToken_Success(t *testing.T) {
	f := newTokenServiceFixture()
	ctx := context.Background()
	userID := uuid.New()
	current := testPair(userID)
	next := testPair(userID)
	next.AccessToken = "next-access"
	next.RefreshToken = "next-refresh"

	f.clients.On("FindByClientID", ctx, "cli").Return(testClient(), nil)
	f.tokens.On("FindByRefreshToken", ctx, "refresh-value").Return(current, nil)
	f.tokens.On("RevokeByValue", ctx, "refresh-value").Return(int64(1), nil)
	f.minter.On("Mint", "cli", userID, "vault").Return(next, nil)
	f.minter.On("AccessTokenTTL").Return(15 * time.Minute)
	f.minter.On("RefreshTokenTTL").Return(720 * time.Hour)
	f.tokens.On("CreateToken", ctx, next).Return(nil)

	out, err := f.service.IssueWithRefreshToken(ctx, usecase.RefreshGrantInput{
		ClientID:     "cli",
		ClientSecret: "s3cret",
		RefreshToken: "refresh-value",
	})

	require.NoError(t, err)
	assert.Equal(t, "next-access", out.AccessToken)
	assert.Equal(t, "next-refresh", out.RefreshToken)
	// The consumed pair must be gone before the new one is stored.
	f.tokens.AssertCalled(t, "RevokeByValue", ctx, "refresh-value")
}

func TestTokenService_IssueWithRefreshToken_Failures(t *testing.T) {
	userID := uuid.New()

	expired := testPair(userID)
	expired.RefreshTokenExpiresAt = time.Now().Add(-time.Minute)

	foreign := testPair(userID)
	foreign.ClientID = "other-client"

	tests := []struct {
		name  string
		setup func(f *tokenServiceFixture, ctx context.Context)
	}{
		{
			name: "unknown refresh token",
			setup: func(f *tokenServiceFixture, ctx context.Context) {
				f.tokens.On("FindByRefreshToken", ctx, "refresh-value").Return(nil, repository.ErrTokenNotFound)
			},
		},
		{
			name: "expired refresh token",
			setup: func(f *tokenServiceFixture, ctx context.Context) {
				f.tokens.On("FindByRefreshToken", ctx, "refresh-value").Return(expired, nil)
			},
		},
		{
			name: "pair bound to another client",
			setup: func(f *tokenServiceFixture, ctx context.Context) {
				f.tokens.On("FindByRefreshToken", ctx, "refresh-value").Return(foreign, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTokenServiceFixture()
			ctx := context.Background()
			f.clients.On("FindByClientID", ctx, "cli").Return(testClient(), nil)
			tt.setup(f, ctx)

			out, err := f.service.IssueWithRefreshToken(ctx, usecase.RefreshGrantInput{
				ClientID:     "cli",
				ClientSecret: "s3cret",
				RefreshToken: "refresh-value",
			})

			require.Nil(t, out)
			assert.ErrorIs(t, err, domainerrors.ErrInvalidGrant)
			f.tokens.AssertNotCalled(t, "CreateToken", mock.Anything, mock.Anything)
		})
	}
}

func TestTokenService_Revoke_IsIdempotent(t *testing.T) {
	f := newTokenServiceFixture()
	ctx := context.Background()

	f.clients.On("FindByClientID", ctx, "cli").Return(testClient(), nil)
	f.tokens.On("RevokeByValue", ctx, "gone").Return(int64(0), nil)

	err := f.service.Revoke(ctx, usecase.RevokeInput{
		ClientID:     "cli",
		ClientSecret: "s3cret",
		Token:        "gone",
	})

	require.NoError(t, err)

	// A second identical call succeeds the same way.
	err = f.service.Revoke(ctx, usecase.RevokeInput{
		ClientID:     "cli",
		ClientSecret: "s3cret",
		Token:        "gone",
	})

	require.NoError(t, err)
}

func TestTokenService_Revoke_RejectsBadClient(t *testing.T) {
	f := newTokenServiceFixture()
	ctx := context.Background()

	f.clients.On("FindByClientID", ctx, "cli").Return(testClient(), nil)

	err := f.service.Revoke(ctx, usecase.RevokeInput{
		ClientID:     "cli",
		ClientSecret: "wrong",
		Token:        "access-value",
	})

	assert.ErrorIs(t, err, domainerrors.ErrInvalidClient)
	f.tokens.AssertNotCalled(t, "RevokeByValue", mock.Anything, mock.Anything)
}

func TestTokenService_Authenticate(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("live token resolves", func(t *testing.T) {
		f := newTokenServiceFixture()
		pair := testPair(userID)
		f.tokens.On("FindByAccessToken", ctx, "access-value").Return(pair, nil)

		got, err := f.service.Authenticate(ctx, "access-value")

		require.NoError(t, err)
		assert.Equal(t, userID, got.UserID)
	})

	t.Run("expired token", func(t *testing.T) {
		f := newTokenServiceFixture()
		pair := testPair(userID)
		pair.AccessTokenExpiresAt = time.Now().Add(-time.Second)
		f.tokens.On("FindByAccessToken", ctx, "access-value").Return(pair, nil)

		_, err := f.service.Authenticate(ctx, "access-value")

		assert.ErrorIs(t, err, domainerrors.ErrTokenExpired)
	})

	t.Run("unknown token", func(t *testing.T) {
		f := newTokenServiceFixture()
		f.tokens.On("FindByAccessToken", ctx, "nope").Return(nil, repository.ErrTokenNotFound)

		_, err := f.service.Authenticate(ctx, "nope")

		assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
	})
}

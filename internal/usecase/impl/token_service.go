// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"time"

	deliverycontext "locker/internal/delivery/context"
	"locker/internal/domain/entity"
	domainerrors "locker/internal/domain/errors"
	"locker/internal/domain/repository"
	"locker/internal/domain/service"
	"locker/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// tokenService implements the TokenUsecase interface.
type tokenService struct {
	txManager repository.TransactionManager
	minter    service.TokenMinter
	hasher    service.PasswordHasher
	logger    *slog.Logger
}

// TokenServiceParams holds dependencies for tokenService, injected by Fx.
type TokenServiceParams struct {
	fx.In

	TxManager repository.TransactionManager
	Minter    service.TokenMinter
	Hasher    service.PasswordHasher
	Logger    *slog.Logger
}

// NewTokenService is the constructor for tokenService.
func NewTokenService(params TokenServiceParams) usecase.TokenUsecase {
	return &tokenService{
		txManager: params.TxManager,
		minter:    params.Minter,
		hasher:    params.Hasher,
		logger:    params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *tokenService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// authenticateClient loads the client and checks its secret and grant
// permission. Every failure collapses into ErrInvalidClient so a caller
// cannot tell an unknown client from a bad secret.
func (srv *tokenService) authenticateClient(ctx context.Context, clientRepo repository.ClientRepository, clientID, clientSecret, grantType string) (*entity.Client, error) {
	client, err := clientRepo.FindByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrClientNotFound) {
			return nil, errors.WithStack(domainerrors.ErrInvalidClient)
		}

		return nil, errors.Wrap(err, "failed to find client")
	}

	if subtle.ConstantTimeCompare([]byte(client.ClientSecret), []byte(clientSecret)) != 1 {
		return nil, errors.WithStack(domainerrors.ErrInvalidClient)
	}

	if !client.AllowsGrant(grantType) {
		return nil, errors.WithStack(domainerrors.ErrInvalidClient)
	}

	return client, nil
}

// IssueWithPassword exchanges resource-owner credentials for a new token pair.
func (srv *tokenService) IssueWithPassword(ctx context.Context, input usecase.PasswordGrantInput) (*usecase.TokenOutput, error) {
	srv.log(ctx).Debug("Processing password grant", slog.String("client_id", input.ClientID), slog.String("username", input.Username))

	var pair *entity.TokenPair

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		clientRepo := repoFactory.ClientRepo()
		userRepo := repoFactory.UserRepo()
		tokenRepo := repoFactory.TokenRepo()

		// 1. Authenticate the client
		_, err := srv.authenticateClient(ctx, clientRepo, input.ClientID, input.ClientSecret, entity.GrantPassword)
		if err != nil {
			return err
		}

		// 2. Verify the resource owner. Unknown username and wrong
		// password report the same error.
		user, err := userRepo.FindByUsername(ctx, input.Username)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return errors.WithStack(domainerrors.ErrInvalidGrant)
			}

			return errors.Wrap(err, "failed to find user")
		}

		if !srv.hasher.Check(input.Password, user.PasswordHash) {
			return errors.WithStack(domainerrors.ErrInvalidGrant)
		}

		// 3. Mint and persist the new pair
		pair, err = srv.minter.Mint(input.ClientID, user.ID, input.Scope)
		if err != nil {
			return errors.Wrap(err, "failed to mint token pair")
		}

		if err := tokenRepo.CreateToken(ctx, pair); err != nil {
			return errors.Wrap(err, "failed to persist token pair")
		}

		return nil
	})

	if err != nil {
		srv.log(ctx).Warn("Password grant rejected", slog.Any("error", err), slog.String("client_id", input.ClientID))

		return nil, err
	}

	srv.log(ctx).Info("Password grant issued", slog.String("client_id", input.ClientID), slog.Any("user_id", pair.UserID))

	return srv.toTokenOutput(pair), nil
}

// IssueWithRefreshToken exchanges a live refresh token for a new pair.
// The consumed pair is deleted in the same transaction, so a replayed
// refresh token fails cleanly instead of minting a second pair.
func (srv *tokenService) IssueWithRefreshToken(ctx context.Context, input usecase.RefreshGrantInput) (*usecase.TokenOutput, error) {
	srv.log(ctx).Debug("Processing refresh grant", slog.String("client_id", input.ClientID))

	var pair *entity.TokenPair

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		clientRepo := repoFactory.ClientRepo()
		tokenRepo := repoFactory.TokenRepo()

		// 1. Authenticate the client
		_, err := srv.authenticateClient(ctx, clientRepo, input.ClientID, input.ClientSecret, entity.GrantRefreshToken)
		if err != nil {
			return err
		}

		// 2. Resolve the presented refresh token
		current, err := tokenRepo.FindByRefreshToken(ctx, input.RefreshToken)
		if err != nil {
			if errors.Is(err, repository.ErrTokenNotFound) {
				return errors.WithStack(domainerrors.ErrInvalidGrant)
			}

			return errors.Wrap(err, "failed to find refresh token")
		}

		if current.RefreshTokenExpired(time.Now()) {
			return errors.WithStack(domainerrors.ErrInvalidGrant)
		}

		if current.ClientID != input.ClientID {
			return errors.WithStack(domainerrors.ErrInvalidGrant)
		}

		// 3. Revoke the consumed pair before minting its successor
		if _, err := tokenRepo.RevokeByValue(ctx, input.RefreshToken); err != nil {
			return errors.Wrap(err, "failed to revoke consumed pair")
		}

		pair, err = srv.minter.Mint(current.ClientID, current.UserID, current.Scope)
		if err != nil {
			return errors.Wrap(err, "failed to mint token pair")
		}

		if err := tokenRepo.CreateToken(ctx, pair); err != nil {
			return errors.Wrap(err, "failed to persist token pair")
		}

		return nil
	})

	if err != nil {
		srv.log(ctx).Warn("Refresh grant rejected", slog.Any("error", err), slog.String("client_id", input.ClientID))

		return nil, err
	}

	srv.log(ctx).Info("Refresh grant issued", slog.String("client_id", input.ClientID), slog.Any("user_id", pair.UserID))

	return srv.toTokenOutput(pair), nil
}

// Revoke deletes the pair containing the given token value. The value
// may be either half of a pair; an unknown value is not an error.
func (srv *tokenService) Revoke(ctx context.Context, input usecase.RevokeInput) error {
	srv.log(ctx).Debug("Processing revocation", slog.String("client_id", input.ClientID))

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		clientRepo := repoFactory.ClientRepo()
		tokenRepo := repoFactory.TokenRepo()

		client, err := clientRepo.FindByClientID(ctx, input.ClientID)
		if err != nil {
			if errors.Is(err, repository.ErrClientNotFound) {
				return errors.WithStack(domainerrors.ErrInvalidClient)
			}

			return errors.Wrap(err, "failed to find client")
		}

		if subtle.ConstantTimeCompare([]byte(client.ClientSecret), []byte(input.ClientSecret)) != 1 {
			return errors.WithStack(domainerrors.ErrInvalidClient)
		}

		revoked, err := tokenRepo.RevokeByValue(ctx, input.Token)
		if err != nil {
			return errors.Wrap(err, "failed to revoke token")
		}

		srv.log(ctx).Debug("Revocation applied", slog.Int64("revoked", revoked))

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Revocation rejected", slog.Any("error", err), slog.String("client_id", input.ClientID))

		return err
	}

	return nil
}

// Authenticate resolves an access-token value to its pair.
func (srv *tokenService) Authenticate(ctx context.Context, accessToken string) (*entity.TokenPair, error) {
	var pair *entity.TokenPair

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		tokenRepo := repoFactory.TokenRepo()

		found, err := tokenRepo.FindByAccessToken(ctx, accessToken)
		if err != nil {
			if errors.Is(err, repository.ErrTokenNotFound) {
				return errors.WithStack(domainerrors.ErrUnauthorized)
			}

			return errors.Wrap(err, "failed to find access token")
		}

		if found.AccessTokenExpired(time.Now()) {
			return errors.WithStack(domainerrors.ErrTokenExpired)
		}

		pair = found

		return nil
	})
	if err != nil {
		return nil, err
	}

	return pair, nil
}

// toTokenOutput shapes a pair into the wire-facing response.
func (srv *tokenService) toTokenOutput(pair *entity.TokenPair) *usecase.TokenOutput {
	return &usecase.TokenOutput{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		TokenType:        "Bearer",
		ExpiresIn:        int64(srv.minter.AccessTokenTTL() / time.Second),
		RefreshExpiresIn: int64(srv.minter.RefreshTokenTTL() / time.Second),
		Scope:            pair.Scope,
	}
}

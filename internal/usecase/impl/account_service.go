package impl

import (
	"context"
	"log/slog"

	deliverycontext "locker/internal/delivery/context"
	"locker/internal/domain/entity"
	domainerrors "locker/internal/domain/errors"
	"locker/internal/domain/repository"
	"locker/internal/domain/service"
	"locker/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// accountService implements the AccountUsecase interface.
type accountService struct {
	txManager repository.TransactionManager
	hasher    service.PasswordHasher
	logger    *slog.Logger
}

// AccountServiceParams holds dependencies for accountService, injected by Fx.
type AccountServiceParams struct {
	fx.In

	TxManager repository.TransactionManager
	Hasher    service.PasswordHasher
	Logger    *slog.Logger
}

// NewAccountService is the constructor for accountService.
func NewAccountService(params AccountServiceParams) usecase.AccountUsecase {
	return &accountService{
		txManager: params.TxManager,
		hasher:    params.Hasher,
		logger:    params.Logger,
	}
}

func (srv *accountService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register creates a new account with a hashed password.
func (srv *accountService) Register(ctx context.Context, input usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	srv.log(ctx).Debug("Registering account", slog.String("username", input.Username))

	hash, err := srv.hasher.Hash(input.Password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}

	user := &entity.User{
		Username:     input.Username,
		PasswordHash: hash,
		DisplayName:  input.DisplayName,
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if err := repoFactory.UserRepo().CreateUser(ctx, user); err != nil {
			if errors.Is(err, repository.ErrUsernameTaken) {
				return errors.WithStack(domainerrors.ErrUserAlreadyExists)
			}

			return errors.Wrap(err, "failed to create user")
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Registration failed", slog.Any("error", err), slog.String("username", input.Username))

		return nil, err
	}

	srv.log(ctx).Info("Account registered", slog.Any("user_id", user.ID), slog.String("username", user.Username))

	return &usecase.RegisterOutput{User: user}, nil
}

// GetAccount looks up an account by ID.
func (srv *accountService) GetAccount(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	var user *entity.User

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		found, err := repoFactory.UserRepo().FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return errors.WithStack(domainerrors.ErrNotFound)
			}

			return errors.Wrap(err, "failed to find user")
		}

		user = found

		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// LogoutAll revokes every token pair belonging to the user.
func (srv *accountService) LogoutAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	srv.log(ctx).Info("Revoking all sessions", slog.Any("user_id", userID))

	var revoked int64

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		count, err := repoFactory.TokenRepo().RevokeByUserID(ctx, userID)
		if err != nil {
			return errors.Wrap(err, "failed to revoke user tokens")
		}

		revoked = count

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Failed to revoke sessions", slog.Any("error", err), slog.Any("user_id", userID))

		return 0, err
	}

	srv.log(ctx).Info("Sessions revoked", slog.Any("user_id", userID), slog.Int64("count", revoked))

	return revoked, nil
}

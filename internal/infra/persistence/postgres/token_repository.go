package postgres

import (
	"context"

	"locker/internal/domain/entity"
	domainerrors "locker/internal/domain/errors"
	"locker/internal/domain/repository"
	"locker/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// tokenRepository implements the repository.TokenRepository interface.
type tokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository is the constructor for tokenRepository.
func NewTokenRepository(db *gorm.DB) repository.TokenRepository {
	return &tokenRepository{db: db}
}

// CreateToken persists a freshly minted pair in one insert. The unique
// indexes on both token values make an accidental collision a hard
// error instead of a silent overwrite.
func (repo *tokenRepository) CreateToken(ctx context.Context, pair *entity.TokenPair) error {
	pairM := fromTokenPairDomain(pair)
	if pairM.ID == uuid.Nil {
		pairM.ID = uuid.New()
	}

	if err := repo.db.WithContext(ctx).Create(pairM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.NewDatabaseExecuteError(err, "token value collision")
		}
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.NewDatabaseExecuteError(err, "invalid client or user reference")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create token pair")
	}

	pair.ID = pairM.ID
	pair.CreatedAt = pairM.CreatedAt

	return nil
}

// FindByAccessToken retrieves a stored pair by its access-token value.
func (repo *tokenRepository) FindByAccessToken(ctx context.Context, value string) (*entity.TokenPair, error) {
	return repo.findByColumn(ctx, "access_token = ?", value)
}

// FindByRefreshToken retrieves a stored pair by its refresh-token value.
func (repo *tokenRepository) FindByRefreshToken(ctx context.Context, value string) (*entity.TokenPair, error) {
	return repo.findByColumn(ctx, "refresh_token = ?", value)
}

func (repo *tokenRepository) findByColumn(ctx context.Context, cond, value string) (*entity.TokenPair, error) {
	var pairM model.TokenPairModel
	if err := repo.db.WithContext(ctx).First(&pairM, cond, value).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrTokenNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toTokenPairDomain(&pairM), nil
}

// RevokeByValue deletes every pair matching value on either half.
// Revoking an unknown value removes zero rows and is not an error,
// so revocation stays idempotent and leaks nothing about validity.
func (repo *tokenRepository) RevokeByValue(ctx context.Context, value string) (int64, error) {
	result := repo.db.WithContext(ctx).
		Where("access_token = ? OR refresh_token = ?", value, value).
		Delete(&model.TokenPairModel{})
	if result.Error != nil {
		return 0, errors.WithStack(result.Error)
	}

	return result.RowsAffected, nil
}

// RevokeByUserID deletes all stored pairs for one user.
func (repo *tokenRepository) RevokeByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.TokenPairModel{})
	if result.Error != nil {
		return 0, errors.WithStack(result.Error)
	}

	return result.RowsAffected, nil
}

// --- Mapper Functions ---

// toTokenPairDomain converts a GORM TokenPairModel to a domain TokenPair entity.
func toTokenPairDomain(data *model.TokenPairModel) *entity.TokenPair {
	if data == nil {
		return nil
	}

	return &entity.TokenPair{
		ID:                    data.ID,
		AccessToken:           data.AccessToken,
		RefreshToken:          data.RefreshToken,
		AccessTokenExpiresAt:  data.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: data.RefreshTokenExpiresAt,
		Scope:                 data.Scope,
		ClientID:              data.ClientID,
		UserID:                data.UserID,
		CreatedAt:             data.CreatedAt,
	}
}

// fromTokenPairDomain converts a domain TokenPair entity to a GORM TokenPairModel.
func fromTokenPairDomain(data *entity.TokenPair) *model.TokenPairModel {
	if data == nil {
		return nil
	}

	return &model.TokenPairModel{
		ID:                    data.ID,
		AccessToken:           data.AccessToken,
		RefreshToken:          data.RefreshToken,
		AccessTokenExpiresAt:  data.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: data.RefreshTokenExpiresAt,
		Scope:                 data.Scope,
		ClientID:              data.ClientID,
		UserID:                data.UserID,
		CreatedAt:             data.CreatedAt,
	}
}

package postgres

import (
	"context"
	"strings"

	"locker/internal/domain/entity"
	domainerrors "locker/internal/domain/errors"
	"locker/internal/domain/repository"
	"locker/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// clientRepository implements the repository.ClientRepository interface.
type clientRepository struct {
	db *gorm.DB
}

// NewClientRepository is the constructor for clientRepository.
func NewClientRepository(db *gorm.DB) repository.ClientRepository {
	return &clientRepository{db: db}
}

// CreateClient persists a client registration. Registrations are
// immutable, so re-seeding an existing client ID leaves the stored row
// untouched.
func (repo *clientRepository) CreateClient(ctx context.Context, client *entity.Client) error {
	clientM := fromClientDomain(client)

	err := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(clientM).Error
	if err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to create client")
	}

	return nil
}

// FindByClientID retrieves a registration by its public identifier.
func (repo *clientRepository) FindByClientID(ctx context.Context, clientID string) (*entity.Client, error) {
	var clientM model.ClientModel
	if err := repo.db.WithContext(ctx).First(&clientM, "client_id = ?", clientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrClientNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toClientDomain(&clientM), nil
}

// --- Mapper Functions ---

// toClientDomain converts a GORM ClientModel to a domain Client entity.
func toClientDomain(data *model.ClientModel) *entity.Client {
	if data == nil {
		return nil
	}

	return &entity.Client{
		ClientID:     data.ClientID,
		ClientSecret: data.ClientSecret,
		Grants:       splitLines(data.Grants),
		RedirectURIs: splitLines(data.RedirectURIs),
		CreatedAt:    data.CreatedAt,
	}
}

// fromClientDomain converts a domain Client entity to a GORM ClientModel.
func fromClientDomain(data *entity.Client) *model.ClientModel {
	if data == nil {
		return nil
	}

	return &model.ClientModel{
		ClientID:     data.ClientID,
		ClientSecret: data.ClientSecret,
		Grants:       strings.Join(data.Grants, "\n"),
		RedirectURIs: strings.Join(data.RedirectURIs, "\n"),
		CreatedAt:    data.CreatedAt,
	}
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}

	return strings.Split(s, "\n")
}

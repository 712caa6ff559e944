package repository

import (
	"context"

	"locker/internal/domain/entity"

	"github.com/pkg/errors"
)

// ErrClientNotFound is returned when no client registration matches the lookup.
var ErrClientNotFound = errors.New("client not found")

// ClientRepository defines the interface for client application registrations.
// Registrations are immutable reference data: created once (seeded at
// startup) and only ever looked up by client ID afterwards.
type ClientRepository interface {
	// CreateClient persists a new client registration. Creating an
	// already-registered client ID is not an error; the existing
	// registration wins.
	CreateClient(ctx context.Context, client *entity.Client) error

	// FindByClientID retrieves a registration by its public identifier.
	FindByClientID(ctx context.Context, clientID string) (*entity.Client, error)
}

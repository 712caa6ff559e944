package usecase

import (
	"context"

	"locker/internal/domain/entity"

	"github.com/google/uuid"
)

// VaultUsecase exposes the encrypted file vault to the delivery layer.
// Every operation is scoped to the owner; paths are logical, relative
// paths inside the owner's namespace.
type VaultUsecase interface {
	// PutFile stores content at the logical path, replacing any
	// existing file.
	PutFile(ctx context.Context, ownerID uuid.UUID, logicalPath string, content []byte) error

	// GetFile retrieves the decrypted content at the logical path.
	GetFile(ctx context.Context, ownerID uuid.UUID, logicalPath string) ([]byte, error)

	// ListDirectory returns the entries one level below directoryPath.
	// An empty directoryPath lists the owner's root.
	ListDirectory(ctx context.Context, ownerID uuid.UUID, directoryPath string) ([]*entity.BlobEntry, error)

	// DeleteFile removes the file at the logical path. Deleting a
	// missing file succeeds.
	DeleteFile(ctx context.Context, ownerID uuid.UUID, logicalPath string) error
}

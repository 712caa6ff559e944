package service

import (
	"context"

	"locker/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Sentinel errors for blob store operations.
var (
	// ErrBlobNotFound is returned when no content exists at the path.
	ErrBlobNotFound = errors.New("blob not found")

	// ErrBlobInvalidPath is returned when a logical path is empty,
	// absolute, or would resolve outside the owner's namespace.
	ErrBlobInvalidPath = errors.New("invalid logical path")

	// ErrBlobTooLarge is returned when content exceeds the configured cap.
	ErrBlobTooLarge = errors.New("blob exceeds maximum size")

	// ErrBlobCorrupt is returned when stored content fails its
	// integrity check and cannot be decrypted.
	ErrBlobCorrupt = errors.New("blob integrity check failed")
)

// BlobStore persists encrypted file content keyed by owner and logical
// path. Implementations must isolate owners from each other and reject
// paths that escape the owner's namespace.
type BlobStore interface {
	// Put encrypts and stores plaintext at the logical path, replacing
	// any existing content atomically.
	Put(ctx context.Context, ownerID uuid.UUID, logicalPath string, plaintext []byte) error

	// Get retrieves and decrypts the content at the logical path.
	Get(ctx context.Context, ownerID uuid.UUID, logicalPath string) ([]byte, error)

	// List returns the entries one level below directoryPath. An empty
	// directoryPath lists the owner's root.
	List(ctx context.Context, ownerID uuid.UUID, directoryPath string) ([]*entity.BlobEntry, error)

	// Delete removes the content at the logical path. Deleting a path
	// that does not exist is not an error.
	Delete(ctx context.Context, ownerID uuid.UUID, logicalPath string) error
}

package impl

import (
	"context"
	"log/slog"

	deliverycontext "locker/internal/delivery/context"
	"locker/internal/domain/entity"
	domainerrors "locker/internal/domain/errors"
	"locker/internal/domain/service"
	"locker/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// vaultService implements the VaultUsecase interface. It translates
// blob store sentinels into application errors the HTTP layer can
// render; integrity failures stay fail-closed and never leak partial
// plaintext.
type vaultService struct {
	store  service.BlobStore
	logger *slog.Logger
}

// VaultServiceParams holds dependencies for vaultService, injected by Fx.
type VaultServiceParams struct {
	fx.In

	Store  service.BlobStore
	Logger *slog.Logger
}

// NewVaultService is the constructor for vaultService.
func NewVaultService(params VaultServiceParams) usecase.VaultUsecase {
	return &vaultService{
		store:  params.Store,
		logger: params.Logger,
	}
}

func (srv *vaultService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// PutFile stores content at the logical path, replacing any existing file.
func (srv *vaultService) PutFile(ctx context.Context, ownerID uuid.UUID, logicalPath string, content []byte) error {
	srv.log(ctx).Debug("Storing file", slog.Any("owner_id", ownerID), slog.String("path", logicalPath), slog.Int("size", len(content)))

	if err := srv.store.Put(ctx, ownerID, logicalPath, content); err != nil {
		return srv.mapStoreError(ctx, err, logicalPath)
	}

	return nil
}

// GetFile retrieves the decrypted content at the logical path.
func (srv *vaultService) GetFile(ctx context.Context, ownerID uuid.UUID, logicalPath string) ([]byte, error) {
	content, err := srv.store.Get(ctx, ownerID, logicalPath)
	if err != nil {
		return nil, srv.mapStoreError(ctx, err, logicalPath)
	}

	return content, nil
}

// ListDirectory returns the entries one level below directoryPath.
func (srv *vaultService) ListDirectory(ctx context.Context, ownerID uuid.UUID, directoryPath string) ([]*entity.BlobEntry, error) {
	entries, err := srv.store.List(ctx, ownerID, directoryPath)
	if err != nil {
		return nil, srv.mapStoreError(ctx, err, directoryPath)
	}

	return entries, nil
}

// DeleteFile removes the file at the logical path. Deleting a missing
// file succeeds.
func (srv *vaultService) DeleteFile(ctx context.Context, ownerID uuid.UUID, logicalPath string) error {
	srv.log(ctx).Debug("Deleting file", slog.Any("owner_id", ownerID), slog.String("path", logicalPath))

	if err := srv.store.Delete(ctx, ownerID, logicalPath); err != nil {
		return srv.mapStoreError(ctx, err, logicalPath)
	}

	return nil
}

// mapStoreError translates blob store sentinels into application errors.
func (srv *vaultService) mapStoreError(ctx context.Context, err error, logicalPath string) error {
	switch {
	case errors.Is(err, service.ErrBlobNotFound):
		return errors.WithStack(domainerrors.ErrNotFound)
	case errors.Is(err, service.ErrBlobInvalidPath):
		return errors.WithStack(domainerrors.ErrPathOutsideRoot)
	case errors.Is(err, service.ErrBlobTooLarge):
		return errors.WithStack(domainerrors.ErrBlobTooLarge)
	case errors.Is(err, service.ErrBlobCorrupt):
		srv.log(ctx).Error("Stored file failed integrity check", slog.String("path", logicalPath))

		return errors.WithStack(domainerrors.ErrIntegrity)
	default:
		srv.log(ctx).Error("Vault operation failed", slog.Any("error", err), slog.String("path", logicalPath))

		return errors.Wrap(err, "vault operation failed")
	}
}

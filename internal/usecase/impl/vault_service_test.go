package impl

import (
	"context"
	"testing"
	"time"

	"locker/internal/domain/entity"
	domainerrors "locker/internal/domain/errors"
	"locker/internal/domain/service"
	"locker/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVaultServiceFixture() (*mockBlobStore, usecase.VaultUsecase) {
	store := &mockBlobStore{}
	svc := NewVaultService(VaultServiceParams{
		Store:  store,
		Logger: newDiscardLogger(),
	})

	return store, svc
}

func TestVaultService_PutAndGet(t *testing.T) {
	store, svc := newVaultServiceFixture()
	ctx := context.Background()
	ownerID := uuid.New()
	content := []byte("secret notes")

	store.On("Put", ctx, ownerID, "notes/today.txt", content).Return(nil)
	store.On("Get", ctx, ownerID, "notes/today.txt").Return(content, nil)

	require.NoError(t, svc.PutFile(ctx, ownerID, "notes/today.txt", content))

	got, err := svc.GetFile(ctx, ownerID, "notes/today.txt")

	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestVaultService_ErrorMapping(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()

	tests := []struct {
		name      string
		storeErr  error
		wantErr   error
	}{
		{"missing file", service.ErrBlobNotFound, domainerrors.ErrNotFound},
		{"path escape", service.ErrBlobInvalidPath, domainerrors.ErrPathOutsideRoot},
		{"oversized content", service.ErrBlobTooLarge, domainerrors.ErrBlobTooLarge},
		{"corrupt envelope", service.ErrBlobCorrupt, domainerrors.ErrIntegrity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, svc := newVaultServiceFixture()
			store.On("Get", ctx, ownerID, "f.txt").Return(nil, tt.storeErr)

			_, err := svc.GetFile(ctx, ownerID, "f.txt")

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestVaultService_ListDirectory(t *testing.T) {
	store, svc := newVaultServiceFixture()
	ctx := context.Background()
	ownerID := uuid.New()
	entries := []*entity.BlobEntry{
		{Name: "docs", IsDir: true, ModifiedAt: time.Now()},
		{Name: "readme.txt", Size: 40, ModifiedAt: time.Now()},
	}

	store.On("List", ctx, ownerID, "").Return(entries, nil)

	got, err := svc.ListDirectory(ctx, ownerID, "")

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].IsDir)
	assert.Equal(t, "readme.txt", got[1].Name)
}

func TestVaultService_DeleteMissingFileSucceeds(t *testing.T) {
	store, svc := newVaultServiceFixture()
	ctx := context.Background()
	ownerID := uuid.New()

	store.On("Delete", ctx, ownerID, "gone.txt").Return(nil)

	assert.NoError(t, svc.DeleteFile(ctx, ownerID, "gone.txt"))
}

package impl

import (
	"context"
	"io"
	"log/slog"
	"time"

	"locker/internal/domain/entity"
	"locker/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeTxManager runs the transactional function directly against a
// fixed factory, standing in for a real database transaction.
type fakeTxManager struct {
	factory repository.RepositoryFactory
}

func (m *fakeTxManager) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	return fn(m.factory)
}

// fakeFactory hands out the test's mock repositories.
type fakeFactory struct {
	users   repository.UserRepository
	clients repository.ClientRepository
	tokens  repository.TokenRepository
}

func (f *fakeFactory) UserRepo() repository.UserRepository     { return f.users }
func (f *fakeFactory) ClientRepo() repository.ClientRepository { return f.clients }
func (f *fakeFactory) TokenRepo() repository.TokenRepository   { return f.tokens }

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) CreateUser(ctx context.Context, user *entity.User) error {
	args := m.Called(ctx, user)

	return args.Error(0)
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *mockUserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*entity.User), args.Error(1)
}

type mockClientRepository struct {
	mock.Mock
}

func (m *mockClientRepository) CreateClient(ctx context.Context, client *entity.Client) error {
	args := m.Called(ctx, client)

	return args.Error(0)
}

func (m *mockClientRepository) FindByClientID(ctx context.Context, clientID string) (*entity.Client, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*entity.Client), args.Error(1)
}

type mockTokenRepository struct {
	mock.Mock
}

func (m *mockTokenRepository) CreateToken(ctx context.Context, pair *entity.TokenPair) error {
	args := m.Called(ctx, pair)

	return args.Error(0)
}

func (m *mockTokenRepository) FindByAccessToken(ctx context.Context, value string) (*entity.TokenPair, error) {
	args := m.Called(ctx, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*entity.TokenPair), args.Error(1)
}

func (m *mockTokenRepository) FindByRefreshToken(ctx context.Context, value string) (*entity.TokenPair, error) {
	args := m.Called(ctx, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*entity.TokenPair), args.Error(1)
}

func (m *mockTokenRepository) RevokeByValue(ctx context.Context, value string) (int64, error) {
	args := m.Called(ctx, value)

	return args.Get(0).(int64), args.Error(1)
}

func (m *mockTokenRepository) RevokeByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)

	return args.Get(0).(int64), args.Error(1)
}

type mockPasswordHasher struct {
	mock.Mock
}

func (m *mockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)

	return args.String(0), args.Error(1)
}

func (m *mockPasswordHasher) Check(password, hash string) bool {
	args := m.Called(password, hash)

	return args.Bool(0)
}

type mockTokenMinter struct {
	mock.Mock
}

func (m *mockTokenMinter) Mint(clientID string, userID uuid.UUID, scope string) (*entity.TokenPair, error) {
	args := m.Called(clientID, userID, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*entity.TokenPair), args.Error(1)
}

func (m *mockTokenMinter) AccessTokenTTL() time.Duration {
	args := m.Called()

	return args.Get(0).(time.Duration)
}

func (m *mockTokenMinter) RefreshTokenTTL() time.Duration {
	args := m.Called()

	return args.Get(0).(time.Duration)
}

type mockBlobStore struct {
	mock.Mock
}

func (m *mockBlobStore) Put(ctx context.Context, ownerID uuid.UUID, logicalPath string, plaintext []byte) error {
	args := m.Called(ctx, ownerID, logicalPath, plaintext)

	return args.Error(0)
}

func (m *mockBlobStore) Get(ctx context.Context, ownerID uuid.UUID, logicalPath string) ([]byte, error) {
	args := m.Called(ctx, ownerID, logicalPath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockBlobStore) List(ctx context.Context, ownerID uuid.UUID, directoryPath string) ([]*entity.BlobEntry, error) {
	args := m.Called(ctx, ownerID, directoryPath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*entity.BlobEntry), args.Error(1)
}

func (m *mockBlobStore) Delete(ctx context.Context, ownerID uuid.UUID, logicalPath string) error {
	args := m.Called(ctx, ownerID, logicalPath)

	return args.Error(0)
}

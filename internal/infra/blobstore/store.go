// Package blobstore maps (owner, logical path) pairs to encrypted
// envelopes on disk. Each owner gets a private subtree named by their
// user ID; every operation validates the logical path before it touches
// the underlying bucket, so a crafted path can never read or write
// another owner's data. Content is encrypted on write and decrypted on
// read through the content cipher; listings work on ciphertext alone.
package blobstore

import (
	"context"
	"encoding/hex"
	"io"
	"path"
	"sort"
	"strings"

	"locker/config"
	"locker/internal/domain/entity"
	"locker/internal/domain/service"
	"locker/internal/infra/crypto"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	"gocloud.dev/gcerrors"
)

// Sentinel errors for blob operations, shared with the domain layer so
// usecases can match them without importing this package.
var (
	// ErrNotFound is returned when no envelope exists at the path.
	ErrNotFound = service.ErrBlobNotFound
	// ErrInvalidPath is returned when a logical path is empty, absolute,
	// or would resolve outside the owner's subtree.
	ErrInvalidPath = service.ErrBlobInvalidPath
	// ErrTooLarge is returned when a plaintext exceeds the configured cap.
	ErrTooLarge = service.ErrBlobTooLarge
	// ErrCorrupt is returned when an envelope fails authentication.
	ErrCorrupt = service.ErrBlobCorrupt
)

// Store is the encrypted blob store. The zero value is not usable;
// construct it with New.
type Store struct {
	bucket  *blob.Bucket
	key     []byte
	maxSize int64
}

var _ service.BlobStore = (*Store)(nil)

// New opens the on-disk bucket under cfg.Vault.RootDir and decodes the
// content key. The fileblob driver writes through a temp file and
// renames into place, so concurrent readers never observe a truncated
// envelope.
func New(cfg *config.Config) (*Store, error) {
	if cfg.Vault == nil {
		return nil, errors.New("vault configuration is missing")
	}

	key, err := hex.DecodeString(cfg.Vault.ContentKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode vault content key")
	}
	if len(key) != crypto.KeySize {
		return nil, errors.WithStack(crypto.ErrInvalidKeySize)
	}

	bucket, err := fileblob.OpenBucket(cfg.Vault.RootDir, &fileblob.Options{
		CreateDir: true,
		Metadata:  fileblob.MetadataDontWrite,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open vault bucket")
	}

	maxSize := cfg.Vault.MaxBlobSize
	if maxSize <= 0 {
		maxSize = 64 << 20
	}

	return &Store{bucket: bucket, key: key, maxSize: maxSize}, nil
}

// Close releases the underlying bucket.
func (s *Store) Close() error {
	return errors.WithStack(s.bucket.Close())
}

// Put encrypts plaintext and writes the envelope at the owner's logical
// path, overwriting any previous envelope cleanly.
func (s *Store) Put(ctx context.Context, ownerID uuid.UUID, logicalPath string, plaintext []byte) error {
	key, err := resolveKey(ownerID, logicalPath)
	if err != nil {
		return err
	}

	if int64(len(plaintext)) > s.maxSize {
		return errors.WithStack(ErrTooLarge)
	}

	envelope, err := crypto.Encrypt(plaintext, s.key)
	if err != nil {
		return errors.Wrap(err, "failed to encrypt blob")
	}

	if err := s.bucket.WriteAll(ctx, key, envelope, nil); err != nil {
		return errors.Wrap(err, "failed to write envelope")
	}

	return nil
}

// Get reads the envelope at the owner's logical path and decrypts it.
// Returns ErrNotFound when no envelope exists and ErrCorrupt when
// authentication fails; the two are distinct so callers can render
// "missing" and "unreadable" differently.
func (s *Store) Get(ctx context.Context, ownerID uuid.UUID, logicalPath string) ([]byte, error) {
	key, err := resolveKey(ownerID, logicalPath)
	if err != nil {
		return nil, err
	}

	envelope, err := s.bucket.ReadAll(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, errors.WithStack(ErrNotFound)
		}

		return nil, errors.Wrap(err, "failed to read envelope")
	}

	plaintext, err := crypto.Decrypt(envelope, s.key)
	if err != nil {
		if errors.Is(err, crypto.ErrIntegrity) {
			return nil, errors.WithStack(ErrCorrupt)
		}

		return nil, errors.Wrap(err, "failed to decrypt envelope")
	}

	return plaintext, nil
}

// List enumerates entries one level under directoryPath in the owner's
// subtree. Sizes are ciphertext sizes (plaintext plus the fixed
// envelope overhead); no decryption happens here.
func (s *Store) List(ctx context.Context, ownerID uuid.UUID, directoryPath string) ([]*entity.BlobEntry, error) {
	prefix := ownerID.String() + "/"
	if directoryPath != "" && directoryPath != "." {
		key, err := resolveKey(ownerID, directoryPath)
		if err != nil {
			return nil, err
		}
		prefix = key + "/"
	}

	iter := s.bucket.List(&blob.ListOptions{
		Prefix:    prefix,
		Delimiter: "/",
	})

	var entries []*entity.BlobEntry
	for {
		obj, err := iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to list envelopes")
		}

		name := strings.TrimPrefix(obj.Key, prefix)
		entry := &entity.BlobEntry{
			Name:       strings.TrimSuffix(name, "/"),
			IsDir:      obj.IsDir,
			ModifiedAt: obj.ModTime,
		}
		if !obj.IsDir {
			entry.Size = obj.Size
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	return entries, nil
}

// Delete removes the envelope at the owner's logical path. Deleting a
// path that does not exist is a no-op, not an error.
func (s *Store) Delete(ctx context.Context, ownerID uuid.UUID, logicalPath string) error {
	key, err := resolveKey(ownerID, logicalPath)
	if err != nil {
		return err
	}

	if err := s.bucket.Delete(ctx, key); err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil
		}

		return errors.Wrap(err, "failed to delete envelope")
	}

	return nil
}

// resolveKey normalizes logicalPath and anchors it under the owner's
// subtree. This is a security boundary: the cleaned path must stay a
// strict descendant of the owner root, so "..", absolute paths, and
// backslash separators are all rejected rather than normalized away
// silently.
func resolveKey(ownerID uuid.UUID, logicalPath string) (string, error) {
	if logicalPath == "" || strings.ContainsRune(logicalPath, '\x00') {
		return "", errors.WithStack(ErrInvalidPath)
	}
	if strings.ContainsRune(logicalPath, '\\') {
		return "", errors.WithStack(ErrInvalidPath)
	}
	if path.IsAbs(logicalPath) {
		return "", errors.WithStack(ErrInvalidPath)
	}

	cleaned := path.Clean(logicalPath)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", errors.WithStack(ErrInvalidPath)
	}

	root := ownerID.String()
	key := root + "/" + cleaned

	// Defense in depth: the joined key must keep the owner root as a
	// strict prefix even after cleaning.
	if !strings.HasPrefix(path.Clean(key), root+"/") {
		return "", errors.WithStack(ErrInvalidPath)
	}

	return key, nil
}

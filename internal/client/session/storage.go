package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// StoredSession is the on-disk shape of a login. Only the pieces the
// client needs survive restarts; the refresh token is the valuable
// part, so the file is written owner-read-only.
type StoredSession struct {
	Username              string    `json:"username"`
	AccessToken           string    `json:"accessToken"`
	RefreshToken          string    `json:"refreshToken"`
	AccessTokenExpiresAt  time.Time `json:"accessTokenExpiresAt"`
	RefreshTokenExpiresAt time.Time `json:"refreshTokenExpiresAt,omitzero"`
	Scope                 string    `json:"scope,omitempty"`
}

// Storage persists a session between process runs.
type Storage interface {
	// Load returns the persisted session, or nil when none exists.
	Load() (*StoredSession, error)

	// Save writes the session, replacing any previous one atomically.
	Save(sess *StoredSession) error

	// Clear removes the persisted session. Clearing an empty store
	// succeeds.
	Clear() error
}

// FileStorage keeps the session in a JSON file.
type FileStorage struct {
	path string
}

// NewFileStorage creates a FileStorage at the given path. Parent
// directories are created on first save.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// Load reads the session file. A missing file is not an error; it
// means no one is logged in.
func (s *FileStorage) Load() (*StoredSession, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, errors.Wrap(err, "failed to read session file")
	}

	var sess StoredSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, errors.Wrap(err, "failed to decode session file")
	}

	return &sess, nil
}

// Save writes through a temp file and renames into place so a crash
// mid-write never leaves a truncated session behind.
func (s *FileStorage) Save(sess *StoredSession) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode session")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(err, "failed to create session directory")
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp session file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return errors.Wrap(err, "failed to write session file")
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return errors.Wrap(err, "failed to set session file mode")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)

		return errors.Wrap(err, "failed to close session file")
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)

		return errors.Wrap(err, "failed to replace session file")
	}

	return nil
}

// Clear removes the session file if present.
func (s *FileStorage) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to remove session file")
	}

	return nil
}

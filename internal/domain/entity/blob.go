package entity

import "time"

// BlobEntry describes one item returned by a vault listing: a stored
// envelope or a subdirectory one level under the listed path. Size is
// the ciphertext length (plaintext length plus the fixed envelope
// overhead); listings never require the content key.
type BlobEntry struct {
	Name       string    // Base name of the file or subdirectory.
	IsDir      bool      // True when the entry is a subdirectory.
	Size       int64     // Ciphertext size in bytes; zero for directories.
	ModifiedAt time.Time // Last-modified time reported by the underlying store.
}

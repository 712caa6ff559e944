// Package crypto implements the content cipher protecting stored blobs:
// AES-256-GCM with a self-describing envelope layout of
//
//	nonce (12 bytes) || auth tag (16 bytes) || ciphertext
//
// The key is supplied by the caller; this package performs no key
// derivation or storage. One fixed cipher suite is assumed.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"

	"github.com/pkg/errors"
)

const (
	// KeySize is the required key length: 256-bit AES.
	KeySize = 32
	// NonceSize is the GCM nonce length at the head of every envelope.
	NonceSize = 12
	// TagSize is the GCM authentication tag length.
	TagSize = 16
	// Overhead is the fixed envelope size added to every plaintext.
	Overhead = NonceSize + TagSize

	// maxPlaintextSize keeps a single message well inside AES-GCM's
	// safe per-message bound of ~64 GiB.
	maxPlaintextSize = 1 << 35
)

// Sentinel errors for envelope handling.
var (
	// ErrIntegrity is returned when an envelope fails authenticated
	// decryption. A wrong key, corrupted bytes, and deliberate tampering
	// are indistinguishable; no plaintext is ever returned alongside it.
	ErrIntegrity = errors.New("envelope integrity check failed")
	// ErrInvalidKeySize is returned when the key is not 32 bytes.
	ErrInvalidKeySize = errors.New("content key must be 32 bytes")
	// ErrEnvelopeTooShort is returned when the input cannot contain a nonce and tag.
	ErrEnvelopeTooShort = errors.New("envelope shorter than nonce and tag")
	// ErrPlaintextTooLarge is returned before encryption when the input
	// exceeds the cipher's safe limits.
	ErrPlaintextTooLarge = errors.New("plaintext exceeds cipher limits")
)

// Encrypt seals plaintext under key with a fresh random nonce and
// returns the envelope. Every call draws a new nonce from the CSPRNG;
// nonces are never cached or derived from content, since reuse under
// the same key breaks confidentiality.
func Encrypt(plaintext, key []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, errors.WithStack(ErrInvalidKeySize)
	}
	if int64(len(plaintext)) > maxPlaintextSize {
		return nil, errors.WithStack(ErrPlaintextTooLarge)
	}

	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, errors.Wrap(err, "failed to read nonce from csprng")
	}

	// Seal produces ciphertext||tag; the envelope stores the tag before
	// the ciphertext, so split and reassemble.
	sealed := aead.Seal(nil, nonce, plaintext, nil)
	tagStart := len(sealed) - TagSize

	envelope := make([]byte, 0, Overhead+len(plaintext))
	envelope = append(envelope, nonce...)
	envelope = append(envelope, sealed[tagStart:]...)
	envelope = append(envelope, sealed[:tagStart]...)

	return envelope, nil
}

// Decrypt opens an envelope and returns the plaintext. It fails closed:
// when the tag does not verify, the caller gets ErrIntegrity and no
// plaintext bytes, with no behavioral difference between a wrong key
// and corrupted data.
func Decrypt(envelope, key []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, errors.WithStack(ErrInvalidKeySize)
	}
	if len(envelope) < Overhead {
		return nil, errors.WithStack(ErrEnvelopeTooShort)
	}

	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	nonce := envelope[:NonceSize]
	tag := envelope[NonceSize:Overhead]
	ciphertext := envelope[Overhead:]

	// Reassemble ciphertext||tag for Open.
	sealed := make([]byte, 0, len(ciphertext)+TagSize)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, errors.WithStack(ErrIntegrity)
	}

	return plaintext, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create aes cipher")
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create gcm aead")
	}

	return aead, nil
}

package postgres

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
)

// Provider API keys are stored encrypted so a database dump alone is
// not enough to recover them. Blob layout:
// version(1) || nonce(12) || AES-256-GCM ciphertext.
const (
	secretVersion = 0x01
	nonceSize     = 12
	keySize       = 32
)

var (
	// ErrInvalidKeySize indicates the settings encryption key is not 32 bytes
	ErrInvalidKeySize = errors.New("settings encryption key must be 32 bytes")

	// ErrInvalidBlobSize indicates a stored secret blob is too short to open
	ErrInvalidBlobSize = errors.New("secret blob too short")

	// ErrUnsupportedVersion indicates a stored secret blob has an unknown version byte
	ErrUnsupportedVersion = errors.New("unknown secret blob version")

	// ErrDecryptionFailed indicates a secret blob could not be opened (wrong key or corruption)
	ErrDecryptionFailed = errors.New("secret blob decryption failed")
)

// SecretEncryptor seals and opens the provider API keys the settings
// store persists.
type SecretEncryptor struct {
	aead cipher.AEAD
}

// NewSecretEncryptor creates an encryptor from a 32-byte key.
func NewSecretEncryptor(key []byte) (*SecretEncryptor, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidKeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm mode: %w", err)
	}

	return &SecretEncryptor{aead: aead}, nil
}

// EncryptString seals a key under a fresh random nonce, so encrypting
// the same value twice yields different blobs.
func (e *SecretEncryptor) EncryptString(s string) ([]byte, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	blob := make([]byte, 0, 1+nonceSize+len(s)+e.aead.Overhead())
	blob = append(blob, secretVersion)
	blob = append(blob, nonce...)
	return e.aead.Seal(blob, nonce, []byte(s), nil), nil
}

// DecryptString opens a blob produced by EncryptString.
func (e *SecretEncryptor) DecryptString(blob []byte) (string, error) {
	if len(blob) < 1+nonceSize+e.aead.Overhead() {
		return "", ErrInvalidBlobSize
	}
	if blob[0] != secretVersion {
		return "", fmt.Errorf("%w: %d", ErrUnsupportedVersion, blob[0])
	}

	plaintext, err := e.aead.Open(nil, blob[1:1+nonceSize], blob[1+nonceSize:], nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}

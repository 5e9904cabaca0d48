package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
)

var ErrDecrypt = errors.New("cryptox: decryption failed")

// AEAD encrypts with AES-256-GCM under a key derived from a secret. The
// ciphertext layout is [nonce][sealed data][tag].
type AEAD struct {
	gcm cipher.AEAD
}

// NewAEAD derives a 32-byte key from secret with SHA-256 and a domain label
// so the same secret can safely feed other primitives.
func NewAEAD(secret []byte, label string) (*AEAD, error) {
	if len(secret) == 0 {
		return nil, errors.New("cryptox: empty secret")
	}

	h := sha256.New()
	h.Write([]byte(label))
	h.Write([]byte{0})
	h.Write(secret)
	key := h.Sum(nil)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &AEAD{gcm: gcm}, nil
}

// Seal encrypts plaintext with a fresh random nonce.
func (a *AEAD) Seal(plaintext, additional []byte) ([]byte, error) {
	nonce := make([]byte, a.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return a.gcm.Seal(nonce, nonce, plaintext, additional), nil
}

// Open reverses Seal. Any tampering yields ErrDecrypt.
func (a *AEAD) Open(sealed, additional []byte) ([]byte, error) {
	n := a.gcm.NonceSize()
	if len(sealed) < n+a.gcm.Overhead() {
		return nil, ErrDecrypt
	}

	plaintext, err := a.gcm.Open(nil, sealed[:n], sealed[n:], additional)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

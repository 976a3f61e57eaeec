package authkit

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// TransportCipher wraps already-signed tokens in AES-GCM so their claim
// content is opaque to the bearer. The key is derived from the
// configured transport secret with SHA-256, so any non-empty secret
// yields a valid 32-byte AES key.
type TransportCipher struct {
	aead cipher.AEAD
}

// NewTransportCipher creates a cipher from the transport secret.
func NewTransportCipher(secret string) (*TransportCipher, error) {
	if secret == "" {
		return nil, ErrNoEmptyString
	}

	key := sha256.Sum256([]byte(secret))

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &TransportCipher{aead: aead}, nil
}

// EncryptString seals the plaintext and returns a URL-safe string,
// since verification tokens travel inside URL paths.
func (tc *TransportCipher) EncryptString(plaintext string) (string, error) {
	nonce := make([]byte, tc.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := tc.aead.Seal(nonce, nonce, []byte(plaintext), nil)

	return base64.RawURLEncoding.EncodeToString(ciphertext), nil
}

// DecryptString reverses EncryptString. Any failure (bad encoding,
// truncated input, wrong key) comes back as ErrTransportDecrypt.
func (tc *TransportCipher) DecryptString(token string) (string, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", ErrTransportDecrypt
	}

	nonceSize := tc.aead.NonceSize()
	if len(data) < nonceSize {
		return "", ErrTransportDecrypt
	}

	nonce, encrypted := data[:nonceSize], data[nonceSize:]
	plaintext, err := tc.aead.Open(nil, nonce, encrypted, nil)
	if err != nil {
		return "", ErrTransportDecrypt
	}

	return string(plaintext), nil
}

// Package fieldcrypt encrypts individual record fields with an authenticated
// cipher (ChaCha20-Poly1305). Ciphertexts are self-contained: the random
// nonce is prepended and the whole blob is base64-encoded so it can live in
// any string column.
package fieldcrypt

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the required key length in bytes.
const KeySize = chacha20poly1305.KeySize

var ErrInvalidCiphertext = errors.New("fieldcrypt: invalid ciphertext")

// Cipher seals and opens field values with a single symmetric key.
type Cipher struct {
	key []byte
}

// New returns a Cipher for the given 32-byte key.
func New(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("fieldcrypt: key must be %d bytes, got %d", KeySize, len(key))
	}
	c := &Cipher{key: make([]byte, KeySize)}
	copy(c.key, key)
	return c, nil
}

// NewFromBase64 decodes a standard-base64 key and builds a Cipher from it.
func NewFromBase64(encoded string) (*Cipher, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("fieldcrypt: decoding key: %w", err)
	}
	return New(key)
}

// EncryptString seals a plaintext field value. Each call uses a fresh random
// nonce, so encrypting the same value twice yields different ciphertexts.
func (c *Cipher) EncryptString(plaintext string) (string, error) {
	aead, err := chacha20poly1305.New(c.key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptString opens a value produced by EncryptString. A truncated or
// tampered blob fails with ErrInvalidCiphertext.
func (c *Cipher) DecryptString(ciphertext string) (string, error) {
	blob, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}
	aead, err := chacha20poly1305.New(c.key)
	if err != nil {
		return "", err
	}
	if len(blob) < aead.NonceSize() {
		return "", ErrInvalidCiphertext
	}
	nonce, sealed := blob[:aead.NonceSize()], blob[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	return string(plaintext), nil
}

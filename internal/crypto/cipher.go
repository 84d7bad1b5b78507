// Package crypto implements the secret cipher protecting credentials at rest,
// key material loading, and token generation.
package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeyLen is the secret key size in bytes.
const KeyLen = chacha20poly1305.KeySize

// ErrDecrypt indicates ciphertext that does not decrypt under the current key,
// either because the key was rotated without re-encryption or the data is corrupt.
var ErrDecrypt = errors.New("ciphertext does not decrypt under current key")

// Cipher encrypts and decrypts opaque strings with XChaCha20-Poly1305.
// It is constructed once from loaded key material and shared freely;
// all methods are safe for concurrent use.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher builds a Cipher from a raw 32-byte key.
func NewCipher(key []byte) (*Cipher, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext with a random nonce and returns base64url(nonce||ct).
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce, err := RandBytes(chacha20poly1305.NonceSizeX)
	if err != nil {
		return "", err
	}
	out := make([]byte, 0, len(nonce)+len(plaintext)+c.aead.Overhead())
	out = append(out, nonce...)
	out = append(out, c.aead.Seal(nil, nonce, []byte(plaintext), nil)...)
	return base64.RawURLEncoding.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. Any authentication or format failure is ErrDecrypt.
func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", ErrDecrypt
	}
	if len(raw) < chacha20poly1305.NonceSizeX {
		return "", ErrDecrypt
	}
	nonce := raw[:chacha20poly1305.NonceSizeX]
	ct := raw[chacha20poly1305.NonceSizeX:]
	plain, err := c.aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plain), nil
}

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// GenerateKey returns a fresh key in the encoded form stored in key files.
func GenerateKey() (string, error) {
	key, err := RandBytes(KeyLen)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(key), nil
}

// ParseKey decodes a key file payload into raw key bytes.
func ParseKey(encoded string) ([]byte, error) {
	key, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.New("key is not valid base64url")
	}
	if len(key) != KeyLen {
		return nil, errors.New("key must decode to 32 bytes")
	}
	return key, nil
}

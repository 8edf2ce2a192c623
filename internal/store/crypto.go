package store

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"log"

	"golang.org/x/crypto/pbkdf2"
)

// DeriveKey stretches a secret into a 256-bit key, base64-encoded for
// cipher consumption.
func DeriveKey(secret, salt string, iterations int) string {
	key := pbkdf2.Key([]byte(secret), []byte(salt), iterations, 32, sha256.New)
	return base64.URLEncoding.EncodeToString(key)
}

// Cipher provides field-level encryption for stored turn content. A nil
// Cipher is valid and passes text through unchanged, so callers never
// branch on whether encryption is configured.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher builds a Cipher from a base64-encoded 256-bit key, typically
// produced by DeriveKey.
func NewCipher(encodedKey string) (*Cipher, error) {
	key, err := base64.URLEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("decode key: %w", err)
	}
	return newCipherFromKey(key)
}

// NewRandomCipher generates a throwaway key for the current run. Anything
// encrypted with it is unreadable once the process exits.
func NewRandomCipher() (*Cipher, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return newCipherFromKey(key)
}

func newCipherFromKey(key []byte) (*Cipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt returns base64(nonce || sealed) for the given plaintext. Failures
// fall back to returning the plaintext so persistence still proceeds.
func (c *Cipher) Encrypt(plaintext string) string {
	if c == nil || c.aead == nil {
		return plaintext
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		log.Printf("[store] encrypt nonce failed, storing plaintext: %v", err)
		return plaintext
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed)
}

// Decrypt reverses Encrypt. Corrupt or foreign ciphertext is returned
// unchanged; callers must treat the result as best effort.
func (c *Cipher) Decrypt(ciphertext string) string {
	if c == nil || c.aead == nil {
		return ciphertext
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		log.Printf("[store] decrypt: not valid ciphertext, returning as-is")
		return ciphertext
	}
	if len(raw) < c.aead.NonceSize() {
		log.Printf("[store] decrypt: ciphertext shorter than nonce, returning as-is")
		return ciphertext
	}

	nonce, sealed := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plain, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		log.Printf("[store] decrypt failed, returning as-is: %v", err)
		return ciphertext
	}
	return string(plain)
}

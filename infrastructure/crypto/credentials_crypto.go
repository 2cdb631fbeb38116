package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

// CredentialsCipher encrypts Account.Credentials at rest using
// nacl/secretbox: a random nonce is prepended to each ciphertext so the
// same plaintext never produces the same stored blob twice.
type CredentialsCipher struct {
	key [32]byte
}

var ErrCredentialsKeyNotConfigured = errors.New("credentials encryption key not configured")

// NewCredentialsCipher decodes a base64-encoded 32-byte key. An empty
// keyB64 yields a cipher whose Encrypt/Decrypt are no-ops, so local
// development can run without CREDENTIALS_ENCRYPTION_KEY set.
func NewCredentialsCipher(keyB64 string) (*CredentialsCipher, error) {
	if keyB64 == "" {
		return &CredentialsCipher{}, nil
	}
	raw, err := base64.StdEncoding.DecodeString(keyB64)
	if err != nil {
		return nil, err
	}
	if len(raw) != 32 {
		return nil, errors.New("credentials encryption key must decode to 32 bytes")
	}
	c := &CredentialsCipher{}
	copy(c.key[:], raw)
	return c, nil
}

func (c *CredentialsCipher) configured() bool {
	var zero [32]byte
	return c.key != zero
}

// Encrypt returns a base64-encoded (nonce || ciphertext) blob. Plaintext
// is returned unchanged when no key is configured.
func (c *CredentialsCipher) Encrypt(plaintext string) (string, error) {
	if !c.configured() {
		return plaintext, nil
	}

	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", err
	}

	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &c.key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Ciphertext is returned unchanged when no key
// is configured.
func (c *CredentialsCipher) Decrypt(ciphertext string) (string, error) {
	if !c.configured() {
		return ciphertext, nil
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", err
	}
	if len(raw) < 24 {
		return "", errors.New("ciphertext too short")
	}

	var nonce [24]byte
	copy(nonce[:], raw[:24])

	plain, ok := secretbox.Open(nil, raw[24:], &nonce, &c.key)
	if !ok {
		return "", errors.New("credentials decryption failed: wrong key or corrupted data")
	}
	return string(plain), nil
}

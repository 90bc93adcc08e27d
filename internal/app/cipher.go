package app

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"
)

// TokenCipher encrypts provider tokens before they reach storage.
type TokenCipher struct {
	key [32]byte
}

// NewTokenCipher builds a cipher from a 32-byte key.
func NewTokenCipher(key []byte) (*TokenCipher, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("token cipher key must be 32 bytes, got %d", len(key))
	}
	c := &TokenCipher{}
	copy(c.key[:], key)
	return c, nil
}

// Seal encrypts a token. The random nonce is prepended to the box.
func (c *TokenCipher) Seal(token string) ([]byte, error) {
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, err
	}
	return secretbox.Seal(nonce[:], []byte(token), &nonce, &c.key), nil
}

// Open decrypts a sealed token.
func (c *TokenCipher) Open(box []byte) (string, error) {
	if len(box) < 24 {
		return "", errors.New("sealed token too short")
	}
	var nonce [24]byte
	copy(nonce[:], box[:24])
	plain, ok := secretbox.Open(nil, box[24:], &nonce, &c.key)
	if !ok {
		return "", errors.New("sealed token failed to authenticate")
	}
	return string(plain), nil
}

package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrDecode reports that a token could not be decoded: malformed
// encoding, truncation, tampering or a wrong key. The codec never
// distinguishes between those causes in its error identity; the
// wrapped detail is for internal logging only.
var ErrDecode = errors.New("token decode failed")

// Codec serializes claims to and from an authenticated-encrypted
// compact token string. The claim payload is JSON, sealed with
// AES-256-GCM under a key derived from the configured secret, and the
// nonce-prefixed ciphertext is encoded as raw base64url. Confidentiality
// and integrity both come from the GCM construction: any bit flip in
// nonce, ciphertext or tag makes Decode fail rather than return a
// mutated claim.
//
// Encode and Decode are pure and safe for concurrent use.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec derives an AES-256 key from the secret and builds the codec.
func NewCodec(secret string) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("token secret must not be empty")
	}

	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return &Codec{aead: aead}, nil
}

// Encode encrypts the claims into a compact token string.
func (c *Codec) Encode(claims *Claims) (string, error) {
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("marshal claims: %w", err)
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, payload, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decode decrypts a token string back into claims, failing with
// ErrDecode on any malformed input, integrity violation or key
// mismatch.
func (c *Codec) Decode(token string) (*Claims, error) {
	sealed, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	nonceSize := c.aead.NonceSize()
	if len(sealed) < nonceSize {
		return nil, fmt.Errorf("%w: token too short", ErrDecode)
	}

	nonce, ciphertext := sealed[:nonceSize], sealed[nonceSize:]
	payload, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return &claims, nil
}

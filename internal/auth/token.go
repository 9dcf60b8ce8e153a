// Package auth issues random bearer credentials for patient-facing links.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// MinTokenBytes is the smallest accepted token size (256 bits of entropy).
const MinTokenBytes = 32

// TokenGenerator creates opaque, URL-safe access tokens.
type TokenGenerator struct {
	size   int
	source io.Reader
}

// NewTokenGenerator returns a generator emitting tokens of size random bytes.
// Sizes below MinTokenBytes are raised to MinTokenBytes.
func NewTokenGenerator(size int) *TokenGenerator {
	if size < MinTokenBytes {
		size = MinTokenBytes
	}
	return &TokenGenerator{size: size, source: rand.Reader}
}

// Generate returns a new random token encoded as unpadded base64url.
func (g *TokenGenerator) Generate() (string, error) {
	b := make([]byte, g.size)
	if _, err := io.ReadFull(g.source, b); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

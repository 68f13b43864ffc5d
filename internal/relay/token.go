// Package relay holds the domain rules of the sync relay: token hashing,
// TTL resolution, and payload/quota validation. All operations are pure
// (no I/O, no network) and safe for concurrent use.
package relay

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// MinTokenLength is the minimum accepted length for a client sync token.
const MinTokenLength = 8

var ErrTokenTooShort = fmt.Errorf("token must be at least %d characters", MinTokenLength)

// ValidateToken checks the client-supplied sync token before it reaches
// the store. The token itself is never persisted; see DeriveTokenKey.
func ValidateToken(token string) error {
	if len(token) < MinTokenLength {
		return ErrTokenTooShort
	}
	return nil
}

// DeriveTokenKey returns hex(SHA-256(token)), the only form of the token
// ever written to storage. Deleting or forgetting the raw token makes the
// stored rows practically irretrievable.
func DeriveTokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

var ErrEmptyPayload = errors.New("payload must not be empty")

// ValidatePayload performs the per-upload checks that need no storage
// access: non-emptiness and the absolute single-upload size cap. The
// payload is otherwise opaque; the relay never inspects or decrypts it.
func ValidatePayload(payload string, maxBytes int64) error {
	if strings.TrimSpace(payload) == "" {
		return ErrEmptyPayload
	}
	if int64(len(payload)) > maxBytes {
		return ErrPayloadTooLarge
	}
	return nil
}

// Package envelope implements the client-side crypto workflow for the sync
// relay. Payloads are encrypted on the device before upload, keyed off the
// same sync token that addresses them, so the server only ever stores opaque
// blobs. All operations are pure (no I/O, no network) and safe for concurrent
// use.
package envelope

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

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"
)

const (
	KeyLen      = 32
	GCMNonceLen = 12
	KDFSaltLen  = 16

	AAD         = "clawpulse/sync/v1"
	HKDFInfoEnc = "clawpulse:v1:enc"
	Suite       = "v1-pbkdf2-hkdf-aes256gcm"

	DefaultPBKDF2Iterations = 600000
)

var (
	ErrEmptyPlaintext   = errors.New("plaintext must not be empty")
	ErrEmptyToken       = errors.New("token must not be empty")
	ErrInvalidEnvelope  = errors.New("invalid envelope")
	ErrDecryptionFailed = errors.New("decryption failed")
)

// Envelope is the JSON structure carried inside the base64 sync payload.
type Envelope struct {
	V          int    `json:"v"`
	Suite      string `json:"suite"`
	Salt       string `json:"salt"`
	Iterations int    `json:"iterations"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}

// SealParams holds inputs for creating an encrypted sync payload.
type SealParams struct {
	Plaintext []byte
	Token     string    // the sync token; also the encryption secret
	Rand      io.Reader // nil = crypto/rand.Reader
	// Iterations overrides the PBKDF2 work factor; 0 = DefaultPBKDF2Iterations.
	Iterations int
}

func rng(r io.Reader) io.Reader {
	if r != nil {
		return r
	}
	return rand.Reader
}

func readRand(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("read random bytes: %w", err)
	}
	return buf, nil
}

func b64Encode(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

func b64Decode(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}

// deriveKey stretches the token with PBKDF2, then binds the result to this
// protocol via HKDF. enc_key = HKDF-SHA-256(PBKDF2(token), salt, enc_info, 32).
func deriveKey(token string, salt []byte, iterations int) ([]byte, error) {
	stretched := pbkdf2.Key([]byte(token), salt, iterations, KeyLen, sha256.New)
	r := hkdf.New(sha256.New, stretched, salt, []byte(HKDFInfoEnc))
	key := make([]byte, KeyLen)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("HKDF derive: %w", err)
	}
	return key, nil
}

// Seal encrypts plaintext under the sync token and returns the base64
// payload string to upload.
func Seal(p SealParams) (string, error) {
	if len(p.Plaintext) == 0 {
		return "", ErrEmptyPlaintext
	}
	if p.Token == "" {
		return "", ErrEmptyToken
	}

	r := rng(p.Rand)

	salt, err := readRand(r, KDFSaltLen)
	if err != nil {
		return "", err
	}
	iterations := p.Iterations
	if iterations == 0 {
		iterations = DefaultPBKDF2Iterations
	}

	key, err := deriveKey(p.Token, salt, iterations)
	if err != nil {
		return "", err
	}

	nonce, err := readRand(r, GCMNonceLen)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("GCM: %w", err)
	}
	ciphertext := gcm.Seal(nil, nonce, p.Plaintext, []byte(AAD))

	env := Envelope{
		V:          1,
		Suite:      Suite,
		Salt:       b64Encode(salt),
		Iterations: iterations,
		Nonce:      b64Encode(nonce),
		Ciphertext: b64Encode(ciphertext),
	}
	envJSON, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("marshal envelope: %w", err)
	}

	return b64Encode(envJSON), nil
}

// Open decrypts a payload string previously produced by Seal.
func Open(payload, token string) ([]byte, error) {
	if token == "" {
		return nil, ErrEmptyToken
	}

	envJSON, err := b64Decode(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: not base64", ErrInvalidEnvelope)
	}

	var env Envelope
	if err := json.Unmarshal(envJSON, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEnvelope, err)
	}
	if err := validateEnvelope(&env); err != nil {
		return nil, err
	}

	salt, _ := b64Decode(env.Salt)
	key, err := deriveKey(token, salt, env.Iterations)
	if err != nil {
		return nil, err
	}

	nonce, _ := b64Decode(env.Nonce)
	ciphertext, _ := b64Decode(env.Ciphertext)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("GCM: %w", err)
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, []byte(AAD))
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	return plaintext, nil
}

func validateEnvelope(env *Envelope) error {
	if env.V != 1 {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidEnvelope, env.V)
	}
	if env.Suite != Suite {
		return fmt.Errorf("%w: unsupported suite %q", ErrInvalidEnvelope, env.Suite)
	}
	if env.Iterations < 1 {
		return fmt.Errorf("%w: iterations must be positive", ErrInvalidEnvelope)
	}

	salt, err := b64Decode(env.Salt)
	if err != nil || len(salt) != KDFSaltLen {
		return fmt.Errorf("%w: salt must be %d bytes", ErrInvalidEnvelope, KDFSaltLen)
	}
	nonce, err := b64Decode(env.Nonce)
	if err != nil || len(nonce) != GCMNonceLen {
		return fmt.Errorf("%w: nonce must be %d bytes", ErrInvalidEnvelope, GCMNonceLen)
	}
	ct, err := b64Decode(env.Ciphertext)
	if err != nil || len(ct) < 16 {
		return fmt.Errorf("%w: ciphertext too short (need at least GCM tag)", ErrInvalidEnvelope)
	}

	return nil
}

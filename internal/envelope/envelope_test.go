package envelope

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// testIterations keeps PBKDF2 cheap in tests.
const testIterations = 1000

// deterministicReader provides deterministic bytes for Seal tests.
// Read order: kdf_salt(16) + nonce(12).
type deterministicReader struct {
	data []byte
	pos  int
}

func (r *deterministicReader) Read(p []byte) (int, error) {
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}

func fixedRand() *deterministicReader {
	data := make([]byte, KDFSaltLen+GCMNonceLen)
	for i := range data {
		data[i] = byte(i + 1)
	}
	return &deterministicReader{data: data}
}

func TestSealOpen_Roundtrip(t *testing.T) {
	plaintext := []byte(`{"pulse":42,"at":"2026-01-01T00:00:00Z"}`)
	const token = "my-sync-token"

	payload, err := Seal(SealParams{Plaintext: plaintext, Token: token, Iterations: testIterations})
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	// The payload is base64 and carries no plaintext.
	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		t.Fatalf("payload not base64: %v", err)
	}
	if bytes.Contains(raw, []byte("pulse")) {
		t.Fatal("envelope JSON contains plaintext")
	}

	got, err := Open(payload, token)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("roundtrip mismatch: got %q", got)
	}
}

func TestSeal_DefaultsIterations(t *testing.T) {
	payload, err := Seal(SealParams{Plaintext: []byte("x"), Token: "t", Rand: fixedRand()})
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	raw, _ := base64.RawURLEncoding.DecodeString(payload)
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("parse envelope: %v", err)
	}
	if env.Iterations != DefaultPBKDF2Iterations {
		t.Fatalf("iterations: got %d, want %d", env.Iterations, DefaultPBKDF2Iterations)
	}
	if env.V != 1 || env.Suite != Suite {
		t.Fatalf("header: %+v", env)
	}
}

func TestSeal_FreshRandomnessPerCall(t *testing.T) {
	p := SealParams{Plaintext: []byte("same"), Token: "same-token", Iterations: testIterations}
	a, err := Seal(p)
	if err != nil {
		t.Fatalf("Seal a: %v", err)
	}
	b, err := Seal(p)
	if err != nil {
		t.Fatalf("Seal b: %v", err)
	}
	if a == b {
		t.Fatal("two seals of the same plaintext produced identical payloads")
	}
}

func TestSeal_InputValidation(t *testing.T) {
	if _, err := Seal(SealParams{Token: "t"}); !errors.Is(err, ErrEmptyPlaintext) {
		t.Fatalf("empty plaintext: got %v", err)
	}
	if _, err := Seal(SealParams{Plaintext: []byte("x")}); !errors.Is(err, ErrEmptyToken) {
		t.Fatalf("empty token: got %v", err)
	}
}

func TestOpen_WrongToken(t *testing.T) {
	payload, err := Seal(SealParams{Plaintext: []byte("secret"), Token: "right-token", Iterations: testIterations})
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if _, err := Open(payload, "wrong-token"); !errors.Is(err, ErrDecryptionFailed) {
		t.Fatalf("wrong token: got %v, want ErrDecryptionFailed", err)
	}
}

func TestOpen_TamperedCiphertext(t *testing.T) {
	const token = "my-sync-token"
	payload, err := Seal(SealParams{Plaintext: []byte("secret"), Token: token, Iterations: testIterations})
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	raw, _ := base64.RawURLEncoding.DecodeString(payload)
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("parse envelope: %v", err)
	}
	ct, _ := base64.RawURLEncoding.DecodeString(env.Ciphertext)
	ct[0] ^= 0xff
	env.Ciphertext = base64.RawURLEncoding.EncodeToString(ct)
	tampered, _ := json.Marshal(env)

	if _, err := Open(base64.RawURLEncoding.EncodeToString(tampered), token); !errors.Is(err, ErrDecryptionFailed) {
		t.Fatalf("tampered ciphertext: got %v, want ErrDecryptionFailed", err)
	}
}

func TestOpen_RejectsMalformedEnvelopes(t *testing.T) {
	const token = "my-sync-token"
	good, err := Seal(SealParams{Plaintext: []byte("secret"), Token: token, Iterations: testIterations})
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	raw, _ := base64.RawURLEncoding.DecodeString(good)
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("parse envelope: %v", err)
	}

	mutate := func(f func(e *Envelope)) string {
		e := env
		f(&e)
		j, _ := json.Marshal(e)
		return base64.RawURLEncoding.EncodeToString(j)
	}

	tests := []struct {
		name    string
		payload string
	}{
		{"not base64", "%%%"},
		{"not json", base64.RawURLEncoding.EncodeToString([]byte("hello"))},
		{"wrong version", mutate(func(e *Envelope) { e.V = 2 })},
		{"wrong suite", mutate(func(e *Envelope) { e.Suite = "v9-rot13" })},
		{"zero iterations", mutate(func(e *Envelope) { e.Iterations = 0 })},
		{"short salt", mutate(func(e *Envelope) { e.Salt = base64.RawURLEncoding.EncodeToString([]byte("ab")) })},
		{"short nonce", mutate(func(e *Envelope) { e.Nonce = base64.RawURLEncoding.EncodeToString([]byte("ab")) })},
		{"truncated ciphertext", mutate(func(e *Envelope) { e.Ciphertext = base64.RawURLEncoding.EncodeToString([]byte("ab")) })},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(tt.payload, token)
			if !errors.Is(err, ErrInvalidEnvelope) {
				t.Fatalf("got %v, want ErrInvalidEnvelope", err)
			}
		})
	}

	if _, err := Open(good, ""); !errors.Is(err, ErrEmptyToken) {
		t.Fatalf("empty token: got %v", err)
	}
}

func TestDeriveKey_Deterministic(t *testing.T) {
	salt := bytes.Repeat([]byte{7}, KDFSaltLen)

	a, err := deriveKey("token", salt, testIterations)
	if err != nil {
		t.Fatalf("deriveKey: %v", err)
	}
	b, err := deriveKey("token", salt, testIterations)
	if err != nil {
		t.Fatalf("deriveKey: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("same inputs produced different keys")
	}

	c, _ := deriveKey("other", salt, testIterations)
	if bytes.Equal(a, c) {
		t.Fatal("different tokens produced the same key")
	}
	if len(a) != KeyLen {
		t.Fatalf("key length: got %d", len(a))
	}
}

func TestSeal_LargePlaintext(t *testing.T) {
	plaintext := []byte(strings.Repeat("pulse-history-entry;", 10000))
	const token = "my-sync-token"

	payload, err := Seal(SealParams{Plaintext: plaintext, Token: token, Iterations: testIterations})
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	got, err := Open(payload, token)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatal("large roundtrip mismatch")
	}
}

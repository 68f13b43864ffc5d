package relay

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateToken(t *testing.T) {
	t.Parallel()

	if err := ValidateToken("aaaaaaaa"); err != nil {
		t.Fatalf("8-char token: %v", err)
	}
	if err := ValidateToken(strings.Repeat("x", 64)); err != nil {
		t.Fatalf("long token: %v", err)
	}
	for _, tok := range []string{"", "short", "1234567"} {
		if err := ValidateToken(tok); !errors.Is(err, ErrTokenTooShort) {
			t.Fatalf("token %q: got %v, want ErrTokenTooShort", tok, err)
		}
	}
}

func TestDeriveTokenKey_Deterministic(t *testing.T) {
	t.Parallel()

	a := DeriveTokenKey("aaaaaaaa")
	b := DeriveTokenKey("aaaaaaaa")
	if a != b {
		t.Fatalf("same token produced different keys: %q vs %q", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("key length = %d, want 64 hex chars", len(a))
	}
	if a == "aaaaaaaa" || strings.Contains(a, "aaaaaaaa") {
		t.Fatal("key leaks the raw token")
	}
	if DeriveTokenKey("bbbbbbbb") == a {
		t.Fatal("distinct tokens produced the same key")
	}
}

func TestValidatePayload(t *testing.T) {
	t.Parallel()

	if err := ValidatePayload("QUJD", 1024); err != nil {
		t.Fatalf("valid payload: %v", err)
	}
	if err := ValidatePayload("", 1024); !errors.Is(err, ErrEmptyPayload) {
		t.Fatalf("empty payload: got %v", err)
	}
	if err := ValidatePayload("   \n\t", 1024); !errors.Is(err, ErrEmptyPayload) {
		t.Fatalf("whitespace payload: got %v", err)
	}
	if err := ValidatePayload(strings.Repeat("A", 11), 10); !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("oversized payload: got %v", err)
	}
	if err := ValidatePayload(strings.Repeat("A", 10), 10); err != nil {
		t.Fatalf("payload exactly at cap: %v", err)
	}
}

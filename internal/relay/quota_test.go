package relay

import (
	"errors"
	"testing"
)

func TestCheckQuota_Boundary(t *testing.T) {
	t.Parallel()

	const cap = int64(1000)
	const live = int64(400)

	// An upload that exactly fills the quota succeeds.
	if err := CheckQuota(live, cap-live, cap); err != nil {
		t.Fatalf("upload filling quota exactly: %v", err)
	}
	// One byte more is rejected.
	if err := CheckQuota(live, cap-live+1, cap); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("upload over quota: got %v, want ErrQuotaExceeded", err)
	}
}

func TestCheckQuota_Disabled(t *testing.T) {
	t.Parallel()

	if err := CheckQuota(1<<40, 1<<40, 0); err != nil {
		t.Fatalf("quota disabled (0): %v", err)
	}
	if err := CheckQuota(1<<40, 1<<40, -1); err != nil {
		t.Fatalf("quota disabled (negative): %v", err)
	}
}

package relay

import "errors"

// Default storage caps. Per-deployment values come from config; these are
// the fallbacks and the values used by the edge CLI for early rejection.
const (
	// DefaultMaxPayloadBytes caps a single uploaded payload (10 MiB).
	DefaultMaxPayloadBytes = 10 * 1024 * 1024
	// DefaultMaxTotalBytes caps the live bytes stored per token key (50 MiB).
	DefaultMaxTotalBytes = 50 * 1024 * 1024
)

var (
	ErrPayloadTooLarge = errors.New("payload exceeds size limit")
	ErrQuotaExceeded   = errors.New("storage quota exceeded for this token; space frees up as old data expires")
)

// CheckQuota decides whether a new payload of addBytes may join liveBytes of
// already-stored live data under a maxBytes per-token cap. It must be called
// inside the same transactional scope that computed liveBytes, so two
// concurrent uploads for one token cannot both pass against a stale total.
//
// A maxBytes of zero or less disables the quota.
func CheckQuota(liveBytes, addBytes, maxBytes int64) error {
	if maxBytes <= 0 {
		return nil
	}
	if liveBytes+addBytes > maxBytes {
		return ErrQuotaExceeded
	}
	return nil
}

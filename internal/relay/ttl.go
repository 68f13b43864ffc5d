package relay

import (
	"strconv"
	"strings"
	"time"
)

// TTL bounds for a single upload. Requests may override the server default
// per upload, but the result is always clamped into [MinTTLHours, MaxTTLHours].
const (
	MinTTLHours = 1
	MaxTTLHours = 168 // 7 days

	// DefaultTTLHours is used when the deployment does not configure its own.
	DefaultTTLHours = 48
)

// ResolveTTL turns the raw X-TTL-Hours header value into an effective TTL.
//
// An absent or malformed value falls back to defaultHours rather than
// failing the upload; usedDefault reports that fallback so callers can log
// it. A parseable value is clamped into [MinTTLHours, MaxTTLHours].
func ResolveTTL(raw string, defaultHours int) (hours int, usedDefault bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultHours, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return defaultHours, true
	}
	if n < MinTTLHours {
		return MinTTLHours, false
	}
	if n > MaxTTLHours {
		return MaxTTLHours, false
	}
	return n, false
}

// ExpiryTime returns the expiry timestamp for a datapoint created at now.
func ExpiryTime(now time.Time, hours int) time.Time {
	return now.UTC().Add(time.Duration(hours) * time.Hour)
}

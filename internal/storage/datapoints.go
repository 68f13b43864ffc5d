// Package storage defines the persistence contract for sync datapoints.
// Implementations must provide transactional guarantees: Insert performs its
// purge, quota check, and append atomically per token key.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrQuotaExceeded is returned by Insert when the token's live bytes plus
	// the new payload would exceed the per-token cap.
	ErrQuotaExceeded = errors.New("quota exceeded")
)

// Datapoint is one stored encrypted payload. Rows are append-only: a
// datapoint is never mutated after creation, only excluded once expired and
// eventually purged.
type Datapoint struct {
	// ID is a surrogate ordering tie-break within a token's history. It is
	// never exposed to clients.
	ID       int64
	TokenKey string
	// Payload is the client-encrypted blob, stored exactly as uploaded.
	Payload   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Live reports whether the datapoint has not yet expired at now.
func (d Datapoint) Live(now time.Time) bool {
	return d.ExpiresAt.After(now)
}

// TokenStats summarizes a token's live datapoints without payload bytes.
type TokenStats struct {
	Count  int64
	Oldest *time.Time
	Newest *time.Time
}

// DatapointStore is the token-scoped datapoint store.
type DatapointStore interface {
	// Insert purges the token's expired rows, checks the live-byte quota,
	// and appends dp within one transactional scope, so concurrent
	// uploads under the same token key serialize against each other.
	// maxTotalBytes <= 0 disables the quota. Returns ErrQuotaExceeded on a
	// quota rejection; nothing is written in that case.
	Insert(ctx context.Context, dp Datapoint, maxTotalBytes int64) error

	// ListLive returns the token's live datapoints ordered oldest-first
	// (created_at ascending, id as tie-break). An empty slice is not an
	// error; the boundary maps it to not-found.
	ListLive(ctx context.Context, tokenKey string, now time.Time) ([]Datapoint, error)

	// CountLive reports live row count and the oldest/newest creation
	// timestamps for the token. Oldest/Newest are nil when Count is 0.
	CountLive(ctx context.Context, tokenKey string, now time.Time) (TokenStats, error)

	// DeleteAll removes every row for the token, live or expired, and
	// returns how many were removed.
	DeleteAll(ctx context.Context, tokenKey string) (int64, error)

	// PurgeExpired removes the token's expired rows.
	PurgeExpired(ctx context.Context, tokenKey string, now time.Time) (int64, error)

	// PurgeAllExpired removes expired rows across all tokens. Idempotent:
	// an immediate second call deletes zero rows.
	PurgeAllExpired(ctx context.Context, now time.Time) (int64, error)
}

// Package postgres implements storage.DatapointStore on a pooled *sql.DB
// using the pgx stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rodrigocava/clawpulse/internal/relay"
	"github.com/rodrigocava/clawpulse/internal/storage"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Insert runs purge + quota check + append in a single transaction. A
// transaction-scoped advisory lock on the token key serializes concurrent
// inserts for the same token, so the quota total cannot be read stale;
// inserts under different tokens do not contend.
func (s *Store) Insert(ctx context.Context, dp storage.Datapoint, maxTotalBytes int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, dp.TokenKey); err != nil {
		return fmt.Errorf("lock token: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM datapoints WHERE token_key = $1 AND expires_at <= $2`,
		dp.TokenKey, dp.CreatedAt); err != nil {
		return fmt.Errorf("purge expired: %w", err)
	}

	if maxTotalBytes > 0 {
		var liveBytes int64
		// OCTET_LENGTH, not LENGTH: the quota counts bytes and payloads
		// are not guaranteed to be single-byte text.
		err := tx.QueryRowContext(ctx, `
SELECT COALESCE(SUM(OCTET_LENGTH(payload)), 0)
FROM datapoints
WHERE token_key = $1
  AND expires_at > $2`,
			dp.TokenKey, dp.CreatedAt,
		).Scan(&liveBytes)
		if err != nil {
			return fmt.Errorf("sum live bytes: %w", err)
		}
		if err := relay.CheckQuota(liveBytes, int64(len(dp.Payload)), maxTotalBytes); err != nil {
			return storage.ErrQuotaExceeded
		}
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO datapoints (token_key, payload, created_at, expires_at)
VALUES ($1, $2, $3, $4)`,
		dp.TokenKey, dp.Payload, dp.CreatedAt, dp.ExpiresAt); err != nil {
		return fmt.Errorf("insert datapoint: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert tx: %w", err)
	}
	return nil
}

func (s *Store) ListLive(ctx context.Context, tokenKey string, now time.Time) ([]storage.Datapoint, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, payload, created_at, expires_at
FROM datapoints
WHERE token_key = $1
  AND expires_at > $2
ORDER BY created_at ASC, id ASC`,
		tokenKey, now)
	if err != nil {
		return nil, fmt.Errorf("list live: %w", err)
	}
	defer rows.Close()

	var out []storage.Datapoint
	for rows.Next() {
		dp := storage.Datapoint{TokenKey: tokenKey}
		if err := rows.Scan(&dp.ID, &dp.Payload, &dp.CreatedAt, &dp.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan datapoint: %w", err)
		}
		out = append(out, dp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate datapoints: %w", err)
	}
	return out, nil
}

func (s *Store) CountLive(ctx context.Context, tokenKey string, now time.Time) (storage.TokenStats, error) {
	var st storage.TokenStats
	var oldest, newest sql.NullTime
	err := s.db.QueryRowContext(ctx, `
SELECT COUNT(*), MIN(created_at), MAX(created_at)
FROM datapoints
WHERE token_key = $1
  AND expires_at > $2`,
		tokenKey, now,
	).Scan(&st.Count, &oldest, &newest)
	if err != nil {
		return storage.TokenStats{}, fmt.Errorf("count live: %w", err)
	}
	if oldest.Valid {
		st.Oldest = &oldest.Time
	}
	if newest.Valid {
		st.Newest = &newest.Time
	}
	return st, nil
}

func (s *Store) DeleteAll(ctx context.Context, tokenKey string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM datapoints WHERE token_key = $1`, tokenKey)
	if err != nil {
		return 0, fmt.Errorf("delete all: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete all rows affected: %w", err)
	}
	return n, nil
}

func (s *Store) PurgeExpired(ctx context.Context, tokenKey string, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM datapoints WHERE token_key = $1 AND expires_at <= $2`, tokenKey, now)
	if err != nil {
		return 0, fmt.Errorf("purge expired: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge expired rows affected: %w", err)
	}
	return n, nil
}

func (s *Store) PurgeAllExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM datapoints WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("purge all expired: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge all expired rows affected: %w", err)
	}
	return n, nil
}

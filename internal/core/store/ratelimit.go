package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/screepskit/screepskit/internal/core/ratelimit"
)

// SaveRateLimits upserts every entry of a registry snapshot in one
// transaction.
func (s *Store) SaveRateLimits(ctx context.Context, entries []ratelimit.Entry, now time.Time) error {
	ctx, err := s.ready(ctx)
	if err != nil {
		return err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rate limit save: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO rate_limits (method, path, limit_value, period, remaining, reset_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(method, path) DO UPDATE SET
			limit_value = excluded.limit_value,
			period = excluded.period,
			remaining = excluded.remaining,
			reset_at = excluded.reset_at,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("prepare rate limit save: %w", err)
	}
	defer stmt.Close() // nolint:errcheck // best-effort cleanup on prepared statement

	updatedAt := now.UTC().Unix()
	for _, entry := range entries {
		if _, err := stmt.ExecContext(ctx,
			string(entry.Method), entry.Path,
			entry.RateLimit.Limit, string(entry.RateLimit.Period), entry.RateLimit.Remaining, entry.RateLimit.Reset,
			updatedAt,
		); err != nil {
			return fmt.Errorf("store rate limit %s %s: %w", entry.Method, entry.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rate limit save: %w", err)
	}
	return nil
}

// LoadRateLimits returns every stored entry in a form Registry.Restore
// accepts. Rows with an unknown method or period are skipped.
func (s *Store) LoadRateLimits(ctx context.Context) ([]ratelimit.Entry, error) {
	records, err := s.ListRateLimits(ctx, RateLimitQuery{All: true})
	if err != nil {
		return nil, err
	}

	entries := make([]ratelimit.Entry, 0, len(records))
	for _, record := range records {
		entries = append(entries, record.Entry)
	}
	return entries, nil
}

func scanRateLimit(rows *sql.Rows) (RateLimitRecord, bool, error) {
	var (
		method    string
		path      string
		limit     int
		period    string
		remaining int
		resetAt   int64
		updatedAt int64
	)
	if err := rows.Scan(&method, &path, &limit, &period, &remaining, &resetAt, &updatedAt); err != nil {
		return RateLimitRecord{}, false, fmt.Errorf("scan rate limits: %w", err)
	}

	var parsedMethod ratelimit.Method
	if method != "" {
		m, err := ratelimit.ParseMethod(method)
		if err != nil {
			return RateLimitRecord{}, false, nil
		}
		parsedMethod = m
	}
	parsedPeriod, err := ratelimit.ParsePeriod(period)
	if err != nil {
		return RateLimitRecord{}, false, nil
	}

	return RateLimitRecord{
		Entry: ratelimit.Entry{
			Method: parsedMethod,
			Path:   path,
			RateLimit: ratelimit.RateLimit{
				Limit:     limit,
				Period:    parsedPeriod,
				Remaining: remaining,
				Reset:     resetAt,
			},
		},
		UpdatedAt: time.Unix(updatedAt, 0).UTC(),
	}, true, nil
}

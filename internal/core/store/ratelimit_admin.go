package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/screepskit/screepskit/internal/core/ratelimit"
)

// RateLimitRecord is one stored entry with its last save time.
type RateLimitRecord struct {
	ratelimit.Entry
	UpdatedAt time.Time
}

// RateLimitQuery selects stored entries. Method narrows Path and Prefix
// matches; Global selects only the fallback row.
type RateLimitQuery struct {
	All    bool
	Global bool
	Method string
	Path   string
	Prefix string
}

func (q RateLimitQuery) Validate() error {
	if q.All || q.Global {
		return nil
	}
	if strings.TrimSpace(q.Path) != "" {
		return nil
	}
	if strings.TrimSpace(q.Prefix) != "" {
		return nil
	}
	return errors.New("must specify --all, --global, --path, or --prefix")
}

func (q RateLimitQuery) whereClause() (string, []any, error) {
	if err := q.Validate(); err != nil {
		return "", nil, err
	}
	if q.All {
		return "", nil, nil
	}
	if q.Global {
		return "WHERE method = '' AND path = ''", nil, nil
	}

	var (
		clauses []string
		args    []any
	)
	if method := strings.TrimSpace(q.Method); method != "" {
		parsed, err := ratelimit.ParseMethod(method)
		if err != nil {
			return "", nil, err
		}
		clauses = append(clauses, "method = ?")
		args = append(args, string(parsed))
	}
	if path := strings.TrimSpace(q.Path); path != "" {
		clauses = append(clauses, "path = ?")
		args = append(args, path)
	} else {
		clauses = append(clauses, "path LIKE ?")
		args = append(args, strings.TrimSpace(q.Prefix)+"%")
	}
	return "WHERE " + strings.Join(clauses, " AND "), args, nil
}

// ListRateLimits returns matching entries ordered by method then path, the
// global row first.
func (s *Store) ListRateLimits(ctx context.Context, q RateLimitQuery) ([]RateLimitRecord, error) {
	ctx, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}

	where, args, err := q.whereClause()
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, fmt.Sprintf(`
		SELECT method, path, limit_value, period, remaining, reset_at, updated_at
		FROM rate_limits
		%s
		ORDER BY method, path
	`, where), args...)
	if err != nil {
		return nil, fmt.Errorf("list rate limits: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	records := []RateLimitRecord{}
	for rows.Next() {
		record, ok, err := scanRateLimit(rows)
		if err != nil {
			return nil, err
		}
		if ok {
			records = append(records, record)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rate limits: %w", err)
	}

	return records, nil
}

func (s *Store) CountRateLimits(ctx context.Context, q RateLimitQuery) (int, error) {
	ctx, err := s.ready(ctx)
	if err != nil {
		return 0, err
	}

	where, args, err := q.whereClause()
	if err != nil {
		return 0, err
	}

	row := s.DB.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT COUNT(*)
		FROM rate_limits
		%s
	`, where), args...)

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count rate limits: %w", err)
	}
	return count, nil
}

// ResetRateLimits deletes matching rows. A fresh registry falls back to the
// published defaults for any path without a stored row.
func (s *Store) ResetRateLimits(ctx context.Context, q RateLimitQuery) (int64, error) {
	ctx, err := s.ready(ctx)
	if err != nil {
		return 0, err
	}

	where, args, err := q.whereClause()
	if err != nil {
		return 0, err
	}

	result, err := s.DB.ExecContext(ctx, fmt.Sprintf(`
		DELETE FROM rate_limits
		%s
	`, where), args...)
	if err != nil {
		return 0, fmt.Errorf("reset rate limits: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset rate limits: %w", err)
	}
	return affected, nil
}

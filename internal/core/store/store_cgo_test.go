//go:build cgo

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/screepskit/screepskit/internal/config"
	"github.com/screepskit/screepskit/internal/core/ratelimit"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(context.Background(), config.StoreConfig{
		Driver: "libsql",
		Path:   filepath.Join(t.TempDir(), "screepskit.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenMemoryStore(t *testing.T) {
	s, err := Open(context.Background(), config.StoreConfig{Driver: "libsql", Path: ":memory:"})
	require.NoError(t, err)
	require.NotNil(t, s)
	require.Equal(t, "libsql", s.Driver())

	count, err := s.CountRateLimits(context.Background(), RateLimitQuery{All: true})
	require.NoError(t, err)
	require.Zero(t, count)
	require.NoError(t, s.Close())
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "postgres", Path: ":memory:"})
	require.Error(t, err)
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, s.Migrate(context.Background()))
}

func TestSaveAndRestoreSnapshot(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	now := time.Unix(1_700_000_000, 0)

	source := ratelimit.NewRegistry()
	source.Restore([]ratelimit.Entry{
		{RateLimit: ratelimit.RateLimit{Limit: 120, Period: ratelimit.PeriodMinute, Remaining: 3, Reset: 1_700_000_060}},
		{Method: ratelimit.MethodGet, Path: "/game/room-terrain", RateLimit: ratelimit.RateLimit{Limit: 360, Period: ratelimit.PeriodHour, Remaining: 0, Reset: 1_700_003_600}},
	})
	snapshot := source.Snapshot()
	require.NoError(t, s.SaveRateLimits(ctx, snapshot, now))

	loaded, err := s.LoadRateLimits(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, len(snapshot))

	target := ratelimit.NewRegistry()
	target.Restore(loaded)
	require.Equal(t, source.Snapshot(), target.Snapshot())
	require.Equal(t, 3, target.Global().Remaining)
	require.True(t, target.Lookup(ratelimit.MethodGet, "/game/room-terrain").Exhausted())

	records, err := s.ListRateLimits(ctx, RateLimitQuery{Global: true})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.True(t, records[0].Global())
	require.Equal(t, now.UTC(), records[0].UpdatedAt)
}

func TestSaveOverwritesExistingRows(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	entry := ratelimit.Entry{Method: ratelimit.MethodPost, Path: "/user/console", RateLimit: ratelimit.NewRateLimit(360, ratelimit.PeriodHour)}
	require.NoError(t, s.SaveRateLimits(ctx, []ratelimit.Entry{entry}, time.Unix(1, 0)))

	entry.RateLimit.Remaining = 10
	require.NoError(t, s.SaveRateLimits(ctx, []ratelimit.Entry{entry}, time.Unix(2, 0)))

	records, err := s.ListRateLimits(ctx, RateLimitQuery{Method: "POST", Path: "/user/console"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, 10, records[0].RateLimit.Remaining)
	require.Equal(t, time.Unix(2, 0).UTC(), records[0].UpdatedAt)
}

func TestListCountAndReset(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.SaveRateLimits(ctx, ratelimit.NewRegistry().Snapshot(), time.Now()))

	total, err := s.CountRateLimits(ctx, RateLimitQuery{All: true})
	require.NoError(t, err)
	require.Equal(t, 1+len(ratelimit.DefaultGetLimits)+len(ratelimit.DefaultPostLimits), total)

	market, err := s.ListRateLimits(ctx, RateLimitQuery{Prefix: "/game/market"})
	require.NoError(t, err)
	require.Len(t, market, 4)
	for _, record := range market {
		require.Equal(t, ratelimit.MethodGet, record.Method)
	}

	memory, err := s.CountRateLimits(ctx, RateLimitQuery{Path: "/user/memory"})
	require.NoError(t, err)
	require.Equal(t, 2, memory)

	deleted, err := s.ResetRateLimits(ctx, RateLimitQuery{Method: "GET", Prefix: "/user/"})
	require.NoError(t, err)
	require.Equal(t, int64(3), deleted)

	remaining, err := s.CountRateLimits(ctx, RateLimitQuery{All: true})
	require.NoError(t, err)
	require.Equal(t, total-3, remaining)

	_, err = s.ResetRateLimits(ctx, RateLimitQuery{})
	require.Error(t, err)
}

func TestLoadSkipsUnknownRows(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.DB.ExecContext(ctx, `INSERT INTO rate_limits (method, path, limit_value, period, remaining, reset_at, updated_at)
		VALUES ('PATCH', '/x', 1, 'minute', 1, 0, 0), ('GET', '/y', 1, 'fortnight', 1, 0, 0), ('GET', '/z', 5, 'hour', 4, 0, 0)`)
	require.NoError(t, err)

	loaded, err := s.LoadRateLimits(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, "/z", loaded[0].Path)
}

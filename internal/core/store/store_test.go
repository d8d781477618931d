package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/screepskit/screepskit/internal/config"
)

func TestBuildLibsqlDSN(t *testing.T) {
	t.Run("URLUsesRawValue", func(t *testing.T) {
		cfg := config.StoreConfig{
			URL:       "libsql://example.turso.io",
			AuthToken: "token123",
		}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, "libsql://example.turso.io?authToken=token123", dsn)
	})

	t.Run("URLKeepsExistingToken", func(t *testing.T) {
		cfg := config.StoreConfig{
			URL:       "libsql://example.turso.io?authToken=abc",
			AuthToken: "token123",
		}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, "libsql://example.turso.io?authToken=abc", dsn)
	})

	t.Run("PathWithFilePrefix", func(t *testing.T) {
		cfg := config.StoreConfig{Path: "file:./screepskit.db"}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, "file:./screepskit.db", dsn)
	})

	t.Run("PlainPathCreatesDirectory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "data", "screepskit.db")

		dsn, err := buildLibsqlDSN(config.StoreConfig{Path: path})
		require.NoError(t, err)
		require.Equal(t, "file:"+path, dsn)
		require.DirExists(t, filepath.Dir(path))
	})

	t.Run("PathMissing", func(t *testing.T) {
		_, err := buildLibsqlDSN(config.StoreConfig{})
		require.Error(t, err)
	})

	t.Run("MemoryPath", func(t *testing.T) {
		dsn, err := buildLibsqlDSN(config.StoreConfig{Path: ":memory:"})
		require.NoError(t, err)
		require.Equal(t, ":memory:", dsn)
	})
}

func TestRateLimitQueryWhereClause(t *testing.T) {
	for name, tc := range map[string]struct {
		query RateLimitQuery
		where string
		args  []any
		err   bool
	}{
		"All":          {query: RateLimitQuery{All: true}, where: ""},
		"Global":       {query: RateLimitQuery{Global: true}, where: "WHERE method = '' AND path = ''"},
		"Path":         {query: RateLimitQuery{Path: "/game/room-terrain"}, where: "WHERE path = ?", args: []any{"/game/room-terrain"}},
		"MethodPath":   {query: RateLimitQuery{Method: "post", Path: "/user/code"}, where: "WHERE method = ? AND path = ?", args: []any{"POST", "/user/code"}},
		"Prefix":       {query: RateLimitQuery{Prefix: "/game/market"}, where: "WHERE path LIKE ?", args: []any{"/game/market%"}},
		"Empty":        {query: RateLimitQuery{}, err: true},
		"MethodOnly":   {query: RateLimitQuery{Method: "GET"}, err: true},
		"UnknownVerb":  {query: RateLimitQuery{Method: "PATCH", Path: "/x"}, err: true},
		"WhitespaceOK": {query: RateLimitQuery{Path: "  /auth/me "}, where: "WHERE path = ?", args: []any{"/auth/me"}},
	} {
		t.Run(name, func(t *testing.T) {
			where, args, err := tc.query.whereClause()
			if tc.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.where, where)
			require.Equal(t, tc.args, args)
		})
	}
}

func TestNilStoreIsNotInitialized(t *testing.T) {
	var s *Store
	require.NoError(t, s.Close())
	require.Empty(t, s.Driver())

	_, err := s.ListRateLimits(context.Background(), RateLimitQuery{All: true})
	require.ErrorIs(t, err, errNotInitialized)
	require.ErrorIs(t, s.Migrate(context.Background()), errNotInitialized)
}

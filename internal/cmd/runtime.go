package cmd

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/screepskit/screepskit/internal/config"
	"github.com/screepskit/screepskit/internal/core/client"
	"github.com/screepskit/screepskit/internal/core/ratelimit"
	"github.com/screepskit/screepskit/internal/core/store"
	"github.com/screepskit/screepskit/internal/metrics"
	"github.com/screepskit/screepskit/internal/observability"
)

// session is everything a command needs to talk to the game server.
type session struct {
	cfg       *config.Config
	client    *client.Client
	limits    *ratelimit.Registry
	collector *metrics.Collector
	store     *store.Store

	closeOnce sync.Once
}

// openSession loads configuration, restores the persisted rate-limit
// snapshot and builds a client sharing that registry. A store that cannot be
// opened is logged and skipped; the client then starts from the defaults.
func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, limits: ratelimit.NewRegistry()}

	if cfg.Store.Enabled {
		db, err := store.Open(cmd.Context(), cfg.Store)
		if err != nil {
			observability.CLILogger.Warn("Rate limit store unavailable, starting from defaults", zap.Error(err))
		} else {
			s.store = db
			s.restore(cmd.Context())
		}
	}

	opts := []client.Option{
		client.WithRegistry(s.limits),
		client.WithLogger(observability.ClientLogger()),
	}
	if cfg.Metrics.Enabled {
		s.collector = metrics.New()
		opts = append(opts, client.WithObserver(s.collector))
	}
	s.client = client.New(cfg.Client.ToClient(), opts...)
	return s, nil
}

func (s *session) restore(ctx context.Context) {
	entries, err := s.store.LoadRateLimits(ctx)
	if err != nil {
		observability.CLILogger.Warn("Failed to load rate limit snapshot", zap.Error(err))
		return
	}
	s.limits.Restore(entries)
	observability.CLILogger.Debug("Restored rate limit snapshot", zap.Int("entries", len(entries)))
}

// Close saves the registry snapshot and releases the store. It uses a fresh
// context so a cancelled command still persists what it learned. Only the
// first call has any effect.
func (s *session) Close() {
	if s == nil || s.store == nil {
		return
	}
	s.closeOnce.Do(s.save)
}

func (s *session) save() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.store.SaveRateLimits(ctx, s.limits.Snapshot(), time.Now()); err != nil {
		observability.CLILogger.Warn("Failed to save rate limit snapshot", zap.Error(err))
	}
	if err := s.store.Close(); err != nil {
		observability.CLILogger.Warn("Failed to close rate limit store", zap.Error(err))
	}
}

// withSession opens a session for the duration of fn.
func withSession(cmd *cobra.Command, fn func(s *session) error) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

// ensureToken signs in when no token is configured but credentials are.
func (s *session) ensureToken(ctx context.Context) error {
	if _, ok := s.client.Token(); ok {
		return nil
	}
	if !s.client.Config().HasCredentials() {
		return nil
	}
	resp, err := s.client.Auth(ctx)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	if err := resp.Err(); err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	return nil
}

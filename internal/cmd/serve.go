package cmd

import (
	"context"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	errwrap "github.com/screepskit/screepskit/internal/errors"
	"github.com/screepskit/screepskit/internal/metrics"
	"github.com/screepskit/screepskit/internal/observability"
	"github.com/screepskit/screepskit/internal/server"
)

var (
	serverPort int
	serverHost string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local status server",
	Long: `Start a local HTTP server that reports on the client.

Routes:
  GET /health         store connectivity
  GET /version        build metadata and upstream URL
  GET /metrics        Prometheus metrics for API calls and rate limits
  GET /rate-limits    the live rate-limit registry
  GET /shards         proxied shard list
  GET /time/{shard}   proxied game tick

Ctrl+C (SIGINT) or SIGTERM shuts the server down gracefully and saves the
rate-limit snapshot.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		observability.InitServerLogger(rootCmd.Name(), s.cfg.Logging.Level)

		serverCfg := s.cfg.Server
		if cmd.Flags().Changed("host") {
			serverCfg.Host = serverHost
		}
		if cmd.Flags().Changed("port") {
			serverCfg.Port = serverPort
		}

		collector := s.collector
		if collector == nil {
			collector = metrics.New()
		}
		deps := server.Deps{
			API:        s.client,
			RateLimits: s.limits,
			Collector:  collector,
			BaseURL:    s.client.Config().BaseURL(),
		}
		if s.store != nil {
			deps.Store = s.store
		}
		srv := server.New(serverCfg, deps)

		observability.ServerLogger.Info("Initializing server",
			zap.String("version", versionInfo.Version),
			zap.String("addr", srv.Addr()),
			zap.String("upstream", deps.BaseURL),
			zap.Bool("store", s.store != nil))

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		stopped := make(chan struct{})
		var runErr error
		go func() {
			defer close(stopped)
			runErr = srv.Run(ctx)
		}()

		signals.OnShutdown(func(shutdownCtx context.Context) error {
			observability.ServerLogger.Info("Shutting down HTTP server...")
			cancel()
			select {
			case <-stopped:
			case <-shutdownCtx.Done():
				return errwrap.EnsureEnvelope(shutdownCtx.Err())
			}
			s.Close()
			if err := observability.ServerLogger.Sync(); err != nil {
				observability.ServerLogger.Warn("Logger sync returned error (may be benign)", zap.Error(err))
			}
			return nil
		})

		if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
			Window:  2 * time.Second,
			Message: "Press Ctrl+C again within 2 seconds to force quit",
		}); err != nil {
			observability.ServerLogger.Warn("Failed to enable double-tap force quit", zap.Error(err))
		}

		go func() {
			if err := signals.Listen(ctx); err != nil && ctx.Err() == nil {
				observability.ServerLogger.Error("Signal handler error", zap.Error(err))
				cancel()
			}
		}()

		<-stopped
		if runErr != nil {
			return errwrap.WrapInternal(cmd.Context(), runErr, "server error")
		}
		observability.ServerLogger.Info("HTTP server stopped gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "listen-host", "localhost", "server listen host (overrides server.host)")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "server port (overrides server.port)")
}

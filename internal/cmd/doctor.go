package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/screepskit/screepskit/internal/config"
	"github.com/screepskit/screepskit/internal/core/client"
	"github.com/screepskit/screepskit/internal/core/store"
	errwrap "github.com/screepskit/screepskit/internal/errors"
	"github.com/screepskit/screepskit/internal/observability"
)

const doctorProbeTimeout = 10 * time.Second

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks",
	Long:  "Check the local installation, the rate-limit store and connectivity to the game server.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		log := observability.CLILogger

		log.Info("=== screepskit doctor ===")
		log.Info("")
		log.Info("Running diagnostic checks...")
		log.Info("")

		allChecks := true
		totalChecks := 6

		// Check 1: Go version
		goVersion := runtime.Version()
		if goVersion >= "go1.23" {
			log.Info(fmt.Sprintf("[1/%d] Checking Go version... ✅ %s", totalChecks, goVersion), zap.String("go_version", goVersion))
		} else {
			log.Warn(fmt.Sprintf("[1/%d] Checking Go version... ⚠️  %s (recommended: go1.23+)", totalChecks, goVersion), zap.String("go_version", goVersion))
			allChecks = false
		}

		// Check 2: Config directory
		configPath := config.DefaultConfigPath()
		if configPath == "" {
			log.Error(fmt.Sprintf("[2/%d] Checking config directory... ❌ Cannot resolve config directory", totalChecks))
			ExitWithCode(log, foundry.ExitFileNotFound, "Cannot resolve config directory", errwrap.NewInternalError("config directory not resolved"))
		}
		log.Info(fmt.Sprintf("[2/%d] Checking config directory... ✅ %s", totalChecks, filepath.Dir(configPath)), zap.String("config_dir", filepath.Dir(configPath)))

		// Check 3: Configuration
		cfg, err := loadConfig(cmd)
		if err != nil {
			log.Error(fmt.Sprintf("[3/%d] Checking configuration... ❌ %v", totalChecks, err))
			ExitWithCode(log, foundry.ExitConfigInvalid, "Configuration is invalid", errwrap.WrapConfigInvalid(ctx, err, "config load failed"))
		}
		log.Info(fmt.Sprintf("[3/%d] Checking configuration... ✅ loaded", totalChecks))

		// Check 4: Credentials
		switch {
		case cfg.Client.Token != "":
			log.Info(fmt.Sprintf("[4/%d] Checking credentials... ✅ token", totalChecks))
		case cfg.Client.ToClient().HasCredentials():
			log.Info(fmt.Sprintf("[4/%d] Checking credentials... ✅ email and password", totalChecks))
		default:
			log.Warn(fmt.Sprintf("[4/%d] Checking credentials... ⚠️  none (public endpoints only)", totalChecks))
		}

		// Check 5: Rate limit store
		if !checkStore(ctx, cfg.Store, totalChecks) {
			allChecks = false
		}

		// Check 6: Game server
		api := client.New(cfg.Client.ToClient(), client.WithLogger(observability.ClientLogger()))
		probeCtx, cancel := context.WithTimeout(ctx, doctorProbeTimeout)
		defer cancel()
		resp, err := api.GameTime(probeCtx, "")
		if err == nil {
			err = resp.Err()
		}
		if err != nil {
			log.Error(fmt.Sprintf("[6/%d] Checking game server... ❌ %s", totalChecks, api.Config().BaseURL()), zap.Error(err))
			ExitWithCode(log, foundry.ExitExternalServiceUnavailable, "Game server unreachable", errwrap.WrapClientError(ctx, err))
		}
		log.Info(fmt.Sprintf("[6/%d] Checking game server... ✅ %s (tick %d)", totalChecks, api.Config().BaseURL(), resp.Time),
			zap.String("base_url", api.Config().BaseURL()),
			zap.Int64("tick", resp.Time))

		log.Info("")
		if allChecks {
			log.Info("✅ All checks passed! Your screepskit installation is healthy.")
		} else {
			log.Warn("⚠️  Some checks failed. Review the output above for details.")
		}
		log.Info("")
		log.Info("=== End Diagnostics ===")
	},
}

var doctorValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the current config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := config.DefaultConfigPath()
		if cfgFile != "" {
			configPath = cfgFile
		}
		if configPath == "" {
			return fmt.Errorf("config path not resolved")
		}
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return fmt.Errorf("config file not found: %s", configPath)
		}

		if _, err := loadConfig(cmd); err != nil {
			return err
		}

		observability.CLILogger.Info("Config is valid", zap.String("path", configPath))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.AddCommand(doctorValidateCmd)
}

func checkStore(ctx context.Context, cfg config.StoreConfig, totalChecks int) bool {
	log := observability.CLILogger
	if !cfg.Enabled {
		log.Info(fmt.Sprintf("[5/%d] Checking rate limit store... ✅ disabled", totalChecks))
		return true
	}

	location := cfg.URL
	if location == "" {
		location = cfg.Path
		if location == "" {
			location = config.DefaultStorePath()
		}
		if abs, err := filepath.Abs(location); err == nil && location != ":memory:" {
			location = abs
		}
	}

	db, err := store.Open(ctx, cfg)
	if err != nil {
		log.Warn(fmt.Sprintf("[5/%d] Checking rate limit store... ⚠️  cannot open %s", totalChecks, location), zap.Error(err))
		return false
	}
	defer db.Close() //nolint:errcheck

	if err := db.CheckHealth(ctx); err != nil {
		log.Warn(fmt.Sprintf("[5/%d] Checking rate limit store... ⚠️  %s unhealthy", totalChecks, location), zap.Error(err))
		return false
	}
	count, err := db.CountRateLimits(ctx, store.RateLimitQuery{All: true})
	if err != nil {
		log.Warn(fmt.Sprintf("[5/%d] Checking rate limit store... ⚠️  cannot read snapshot", totalChecks), zap.Error(err))
		return false
	}

	size := "remote"
	if info, statErr := os.Stat(location); statErr == nil {
		size = formatFileSize(info.Size())
	}
	log.Info(fmt.Sprintf("[5/%d] Checking rate limit store... ✅ %s (%s, %d entries)", totalChecks, location, size, count),
		zap.String("location", location),
		zap.Int("entries", count))
	return true
}

// formatFileSize returns a human-readable file size
func formatFileSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
	)
	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}

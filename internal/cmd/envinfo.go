package cmd

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/screepskit/screepskit/internal/config"
	"github.com/screepskit/screepskit/internal/observability"
)

var envInfoCmd = &cobra.Command{
	Use:   "envinfo",
	Short: "Display environment information",
	Long:  "Display version, runtime, configuration and credential information.",
	Run: func(cmd *cobra.Command, args []string) {
		log := observability.CLILogger

		log.Info("=== screepskit Environment Information ===")
		log.Info("")

		log.Info("Application:")
		log.Info("  Name:       " + config.AppName)
		log.Info("  Version:    " + versionInfo.Version)
		log.Info("  Commit:     " + versionInfo.Commit)
		log.Info("  Built:      " + versionInfo.BuildDate)
		log.Info("")

		log.Info("Runtime:")
		log.Info("  Go Version: "+runtime.Version(), zap.String("go_version", runtime.Version()))
		log.Info("  GOOS:       "+runtime.GOOS, zap.String("goos", runtime.GOOS))
		log.Info("  GOARCH:     "+runtime.GOARCH, zap.String("goarch", runtime.GOARCH))
		log.Info(fmt.Sprintf("  NumCPU:     %d", runtime.NumCPU()), zap.Int("num_cpu", runtime.NumCPU()))
		log.Info("")

		cfg, err := loadConfig(cmd)
		if err != nil {
			log.Warn("Config load failed", zap.Error(err))
			return
		}

		client := cfg.Client.ToClient()
		log.Info("Client:")
		log.Info("  Base URL:       "+client.BaseURL(), zap.String("base_url", client.BaseURL()))
		log.Info("  Timeout:        "+cfg.Client.Timeout.String(), zap.Duration("timeout", cfg.Client.Timeout))
		log.Info("  Token:          " + secretStatus(cfg.Client.Token))
		log.Info("  Email:          " + valueOrUnset(cfg.Client.Email))
		log.Info("  Password:       " + secretStatus(cfg.Client.Password))
		log.Info("")

		log.Info("Configuration:")
		log.Info("  Config File:    "+config.DefaultConfigPath(), zap.String("config_file", config.DefaultConfigPath()))
		log.Info("  Log Level:      "+cfg.Logging.Level, zap.String("log_level", cfg.Logging.Level))
		log.Info(fmt.Sprintf("  Store Enabled:  %t", cfg.Store.Enabled), zap.Bool("store_enabled", cfg.Store.Enabled))
		log.Info("  DB Driver:      "+cfg.Store.Driver, zap.String("db_driver", cfg.Store.Driver))
		if strings.TrimSpace(cfg.Store.URL) != "" {
			log.Info("  DB URL:         "+cfg.Store.URL, zap.String("db_url", cfg.Store.URL))
		} else {
			log.Info("  DB Path:        "+cfg.Store.Path, zap.String("db_path", cfg.Store.Path))
		}
		log.Info(fmt.Sprintf("  Concurrency:    %d", cfg.Insight.Concurrency))
		log.Info(fmt.Sprintf("  Metrics:        %t", cfg.Metrics.Enabled))
		log.Info(fmt.Sprintf("  Server:         %s:%d", cfg.Server.Host, cfg.Server.Port))
		log.Info("")

		log.Info("Environment:")
		if _, err := config.ClientConfigFromEnv(); err != nil {
			if errors.Is(err, config.ErrNoCredentials) {
				log.Warn("  Credentials:    (none in SCREEPS_* variables)")
			} else {
				log.Warn("  Credentials:    invalid", zap.Error(err))
			}
		} else {
			log.Info("  Credentials:    (set)")
		}
		log.Info("")

		log.Info("=== End Environment Information ===")
	},
}

func init() {
	rootCmd.AddCommand(envInfoCmd)
}

func secretStatus(value string) string {
	if strings.TrimSpace(value) == "" {
		return "(not set)"
	}
	return "(set)"
}

func valueOrUnset(value string) string {
	if strings.TrimSpace(value) == "" {
		return "(not set)"
	}
	return value
}

package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/screepskit/screepskit/internal/config"
	"github.com/screepskit/screepskit/internal/observability"
	"github.com/screepskit/screepskit/internal/output"
)

var (
	cfgFile      string
	verbose      bool
	outputFormat string
	hostFlag     string
	insecureFlag bool
	emailFlag    string
	passwordFlag string

	// Version info set by main package
	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo is called by main package to set version information
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   config.AppName,
	Short: "Command-line client for the Screeps HTTP API",
	Long: `screepskit talks to a Screeps game server over its HTTP API.

It tracks the server's per-endpoint rate limits, waits out exhausted quotas
before sending, and keeps the last known quota state between runs.

Credentials come from the config file or SCREEPS_TOKEN, SCREEPS_EMAIL and
SCREEPS_PASSWORD (a .env file in the working directory is read too).`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/screepskit/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output-format", "o", string(output.FormatTable), "Output format: table|json|yaml|markdown")
	rootCmd.PersistentFlags().StringVar(&hostFlag, "host", "", "game server host, optionally with port (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&insecureFlag, "insecure", false, "use http instead of https")
	rootCmd.PersistentFlags().StringVar(&emailFlag, "email", "", "account email for sign-in (overrides config)")
	rootCmd.PersistentFlags().StringVar(&passwordFlag, "password", "", "account password for sign-in (overrides config)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig loads .env files and sets up the CLI logger. The config file is
// read per command through loadConfig so flag overrides apply.
func initConfig() {
	observability.InitCLILogger(config.AppName, verbose)

	if err := config.LoadDotEnv(); err != nil {
		observability.CLILogger.Warn("Failed to load .env file", zap.Error(err))
	}
}

// flagOverrides turns explicitly set global flags into config overrides.
func flagOverrides(cmd *cobra.Command) map[string]any {
	overrides := map[string]any{}
	flags := cmd.Flags()
	if flags.Changed("host") {
		overrides["client.host"] = hostFlag
	}
	if flags.Changed("insecure") {
		overrides["client.secure"] = !insecureFlag
	}
	if flags.Changed("email") {
		overrides["client.email"] = emailFlag
	}
	if flags.Changed("password") {
		overrides["client.password"] = passwordFlag
	}
	return overrides
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Context(), cfgFile, flagOverrides(cmd))
	if err != nil {
		return nil, err
	}
	if verbose {
		observability.CLILogger.Debug("Configuration loaded",
			zap.String("host", cfg.Client.Host),
			zap.Bool("secure", cfg.Client.Secure),
			zap.Bool("store_enabled", cfg.Store.Enabled))
	}
	return cfg, nil
}

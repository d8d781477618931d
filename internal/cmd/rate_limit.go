package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/screepskit/screepskit/internal/core/store"
	"github.com/screepskit/screepskit/internal/output"
)

var (
	rateLimitListAll    bool
	rateLimitListLive   bool
	rateLimitListMethod string
	rateLimitListPath   string
	rateLimitListPrefix string

	rateLimitResetAll    bool
	rateLimitResetGlobal bool
	rateLimitResetMethod string
	rateLimitResetPath   string
	rateLimitResetPrefix string
	rateLimitResetYes    bool
	rateLimitResetDryRun bool
)

var rateLimitCmd = &cobra.Command{
	Use:   "rate-limit",
	Short: "Inspect and manage persisted rate limit state",
}

var rateLimitListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored rate limit state",
	Long: `List stored rate limit state.

With --live the registry the client would start with is shown instead: the
published defaults with the stored snapshot applied on top.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if rateLimitListLive {
			return withSession(cmd, func(s *session) error {
				return printView(cmd, output.RateLimitsView{Entries: s.limits.Snapshot()})
			})
		}

		query := store.RateLimitQuery{
			All:    rateLimitListAll,
			Method: strings.TrimSpace(rateLimitListMethod),
			Path:   strings.TrimSpace(rateLimitListPath),
			Prefix: strings.TrimSpace(rateLimitListPrefix),
		}
		if query.Path == "" && query.Prefix == "" {
			query.All = true
		}

		return withStore(cmd, func(db *store.Store) error {
			records, err := db.ListRateLimits(cmd.Context(), query)
			if err != nil {
				return err
			}
			return printView(cmd, output.RateLimitRecordsView{Records: records})
		})
	},
}

var rateLimitResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete stored rate limit state",
	Long: `Delete stored rate limit state.

Deleted entries fall back to the published defaults on the next run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		query := store.RateLimitQuery{
			All:    rateLimitResetAll,
			Global: rateLimitResetGlobal,
			Method: strings.TrimSpace(rateLimitResetMethod),
			Path:   strings.TrimSpace(rateLimitResetPath),
			Prefix: strings.TrimSpace(rateLimitResetPrefix),
		}
		if err := query.Validate(); err != nil {
			return err
		}
		if query.All && !rateLimitResetYes && !rateLimitResetDryRun {
			return errors.New("--all requires --yes (or use --dry-run)")
		}

		return withStore(cmd, func(db *store.Store) error {
			matched, err := db.CountRateLimits(cmd.Context(), query)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if rateLimitResetDryRun {
				_, err := fmt.Fprintf(out, "Would delete %d rate limit entr(ies)\n", matched)
				return err
			}

			deleted, err := db.ResetRateLimits(cmd.Context(), query)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "Deleted %d/%d rate limit entr(ies)\n", deleted, matched)
			return err
		})
	},
}

// withStore opens the configured store without building a client, so the
// snapshot is neither restored nor re-saved around admin commands.
func withStore(cmd *cobra.Command, fn func(db *store.Store) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cfg.Store.Enabled {
		return errors.New("rate limit store is disabled (store.enabled=false)")
	}

	db, err := store.Open(cmd.Context(), cfg.Store)
	if err != nil {
		return err
	}
	defer db.Close() // nolint:errcheck // best-effort cleanup

	return fn(db)
}

func init() {
	rateLimitListCmd.Flags().BoolVar(&rateLimitListAll, "all", false, "List every stored entry (default when no filter is given)")
	rateLimitListCmd.Flags().BoolVar(&rateLimitListLive, "live", false, "Show the effective registry instead of stored rows")
	rateLimitListCmd.Flags().StringVar(&rateLimitListMethod, "method", "", "Narrow --path/--prefix to GET or POST")
	rateLimitListCmd.Flags().StringVar(&rateLimitListPath, "path", "", "List a single path (exact match)")
	rateLimitListCmd.Flags().StringVar(&rateLimitListPrefix, "prefix", "", "List paths with matching prefix")

	rateLimitResetCmd.Flags().BoolVar(&rateLimitResetAll, "all", false, "Reset every entry")
	rateLimitResetCmd.Flags().BoolVar(&rateLimitResetGlobal, "global", false, "Reset the global fallback entry")
	rateLimitResetCmd.Flags().StringVar(&rateLimitResetMethod, "method", "", "Narrow --path/--prefix to GET or POST")
	rateLimitResetCmd.Flags().StringVar(&rateLimitResetPath, "path", "", "Reset a single path (exact match)")
	rateLimitResetCmd.Flags().StringVar(&rateLimitResetPrefix, "prefix", "", "Reset paths with matching prefix")
	rateLimitResetCmd.Flags().BoolVar(&rateLimitResetYes, "yes", false, "Confirm destructive reset")
	rateLimitResetCmd.Flags().BoolVar(&rateLimitResetDryRun, "dry-run", false, "Show what would be deleted")

	rateLimitCmd.AddCommand(rateLimitListCmd)
	rateLimitCmd.AddCommand(rateLimitResetCmd)
	rootCmd.AddCommand(rateLimitCmd)
}

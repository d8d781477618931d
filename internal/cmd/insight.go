package cmd

import (
	"github.com/spf13/cobra"

	"github.com/screepskit/screepskit/internal/core/insight"
	"github.com/screepskit/screepskit/internal/observability"
	"github.com/screepskit/screepskit/internal/output"
)

var (
	resourcesShard       string
	resourcesConcurrency int
)

var levelsCmd = &cobra.Command{
	Use:   "levels <username>",
	Short: "Show a player's GCL and GPL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			levels, err := insight.PlayerLevels(cmd.Context(), s.client, args[0])
			if err != nil {
				return err
			}
			return printView(cmd, output.LevelsView{Levels: levels})
		})
	},
}

var resourcesCmd = &cobra.Command{
	Use:   "resources <username>",
	Short: "Sum the resources a player keeps in storages, terminals and factories",
	Long: `Sum the resources a player keeps in storages, terminals and factories.

Every owned room is fetched, so this spends one room-objects request per room.
Rooms are fetched concurrently; rooms the server rejects are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			concurrency := s.cfg.Insight.Concurrency
			if cmd.Flags().Changed("concurrency") {
				concurrency = resourcesConcurrency
			}

			scanner := insight.NewScanner(s.client,
				insight.WithConcurrency(concurrency),
				insight.WithLogger(observability.ClientLogger()))
			resources, err := scanner.ShardResources(cmd.Context(), args[0], resourcesShard)
			if err != nil {
				return err
			}
			return printView(cmd, output.ResourcesView{Username: args[0], Resources: resources})
		})
	},
}

func init() {
	resourcesCmd.Flags().StringVar(&resourcesShard, "shard", insight.AllShards, `shard to scan, or "all"`)
	resourcesCmd.Flags().IntVar(&resourcesConcurrency, "concurrency", insight.DefaultConcurrency, "rooms fetched at once")

	rootCmd.AddCommand(levelsCmd)
	rootCmd.AddCommand(resourcesCmd)
}

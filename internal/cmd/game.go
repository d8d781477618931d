package cmd

import (
	"github.com/spf13/cobra"

	"github.com/screepskit/screepskit/internal/output"
)

var timeShard string

var shardsCmd = &cobra.Command{
	Use:   "shards",
	Short: "List the server's shards",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			resp, err := s.client.ShardsInfo(cmd.Context())
			if err != nil {
				return err
			}
			if err := resp.Err(); err != nil {
				return err
			}
			return printView(cmd, output.ShardsView{Response: resp})
		})
	},
}

var timeCmd = &cobra.Command{
	Use:   "time",
	Short: "Show the current game tick",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			resp, err := s.client.GameTime(cmd.Context(), timeShard)
			if err != nil {
				return err
			}
			if err := resp.Err(); err != nil {
				return err
			}
			return printView(cmd, output.TimeView{Shard: timeShard, Response: resp})
		})
	},
}

func init() {
	timeCmd.Flags().StringVar(&timeShard, "shard", "", "shard to query (private servers have none)")

	rootCmd.AddCommand(shardsCmd)
	rootCmd.AddCommand(timeCmd)
}

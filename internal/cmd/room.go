package cmd

import (
	"github.com/spf13/cobra"

	"github.com/screepskit/screepskit/internal/output"
)

var (
	roomShard   string
	roomEncoded bool
)

var roomCmd = &cobra.Command{
	Use:   "room",
	Short: "Inspect a room",
}

var roomObjectsCmd = &cobra.Command{
	Use:   "objects <room>",
	Short: "List every object in a room",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			resp, err := s.client.RoomObjects(cmd.Context(), args[0], roomShard)
			if err != nil {
				return err
			}
			if err := resp.Err(); err != nil {
				return err
			}
			return printView(cmd, output.ObjectsView{Room: args[0], Shard: roomShard, Response: resp})
		})
	},
}

var roomTerrainCmd = &cobra.Command{
	Use:   "terrain <room>",
	Short: "Show room terrain",
	Long: `Show room terrain.

By default only walls and swamps are listed. With --encoded the whole room is
fetched as one string and drawn as a grid ('#' wall, '~' swamp, '.' plain).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			if roomEncoded {
				resp, err := s.client.RoomTerrainEncoded(cmd.Context(), args[0], roomShard)
				if err != nil {
					return err
				}
				if err := resp.Err(); err != nil {
					return err
				}
				return printView(cmd, output.EncodedTerrainView{Room: args[0], Shard: roomShard, Response: resp})
			}

			resp, err := s.client.RoomTerrain(cmd.Context(), args[0], roomShard)
			if err != nil {
				return err
			}
			if err := resp.Err(); err != nil {
				return err
			}
			return printView(cmd, output.TerrainView{Room: args[0], Shard: roomShard, Response: resp})
		})
	},
}

var roomStatusCmd = &cobra.Command{
	Use:   "status <room>",
	Short: "Show novice and respawn zone status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			resp, err := s.client.RoomStatus(cmd.Context(), args[0], roomShard)
			if err != nil {
				return err
			}
			if err := resp.Err(); err != nil {
				return err
			}
			return printView(cmd, output.RoomStatusView{Room: args[0], Shard: roomShard, Response: resp})
		})
	},
}

func init() {
	roomCmd.PersistentFlags().StringVar(&roomShard, "shard", "shard0", "shard the room is on")
	roomTerrainCmd.Flags().BoolVar(&roomEncoded, "encoded", false, "fetch the encoded terrain string")

	roomCmd.AddCommand(roomObjectsCmd)
	roomCmd.AddCommand(roomTerrainCmd)
	roomCmd.AddCommand(roomStatusCmd)
	rootCmd.AddCommand(roomCmd)
}

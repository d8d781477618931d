package cmd

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/screepskit/screepskit/internal/core/model"
	"github.com/screepskit/screepskit/internal/output"
)

var (
	userFindName string
	userFindID   string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Look up players",
}

var userFindCmd = &cobra.Command{
	Use:   "find",
	Short: "Find a player by name or id",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.TrimSpace(userFindName)
		id := strings.TrimSpace(userFindID)
		if (name == "") == (id == "") {
			return errors.New("exactly one of --name or --id is required")
		}

		return withSession(cmd, func(s *session) error {
			var (
				resp *model.UserResponse
				err  error
			)
			if name != "" {
				resp, err = s.client.FindUserByName(cmd.Context(), name)
			} else {
				resp, err = s.client.FindUserByID(cmd.Context(), id)
			}
			if err != nil {
				return err
			}
			if err := resp.Err(); err != nil {
				return err
			}
			return printView(cmd, output.UserView{Response: resp})
		})
	},
}

var userRoomsCmd = &cobra.Command{
	Use:   "rooms <user-id>",
	Short: "List the rooms a player owns and reserves",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			resp, err := s.client.UserRooms(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := resp.Err(); err != nil {
				return err
			}
			return printView(cmd, output.RoomsView{Response: resp})
		})
	},
}

func init() {
	userFindCmd.Flags().StringVar(&userFindName, "name", "", "player name")
	userFindCmd.Flags().StringVar(&userFindID, "id", "", "player id")

	userCmd.AddCommand(userFindCmd)
	userCmd.AddCommand(userRoomsCmd)
	rootCmd.AddCommand(userCmd)
}

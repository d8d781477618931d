package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/screepskit/screepskit/internal/core/client"
	"github.com/screepskit/screepskit/internal/output"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Sign in with email and password and print the session token",
	Long: `Sign in with email and password and print the session token.

Credentials are read from the global --email/--password flags, the config file, or
SCREEPS_EMAIL and SCREEPS_PASSWORD. The token is never written to disk.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			resp, err := s.client.Auth(cmd.Context())
			if err != nil {
				if errors.Is(err, client.ErrMissingCredentials) {
					return errors.New("auth needs both an email and a password (set SCREEPS_EMAIL and SCREEPS_PASSWORD)")
				}
				return err
			}
			if err := resp.Err(); err != nil {
				return err
			}
			if token, ok := s.client.Token(); ok {
				resp.Token = token
			}
			return printView(cmd, output.TokenView{Response: resp})
		})
	},
}

var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Show the authenticated account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			if err := s.ensureToken(cmd.Context()); err != nil {
				return err
			}
			resp, err := s.client.Me(cmd.Context())
			if err != nil {
				return err
			}
			if err := resp.Err(); err != nil {
				return err
			}
			return printView(cmd, output.MeView{Response: resp})
		})
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(meCmd)
}

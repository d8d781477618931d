package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/screepskit/screepskit/internal/output"
)

// printView renders view in the --output-format to the command's stdout.
func printView(cmd *cobra.Command, view output.View) error {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	rendered, err := output.Render(format, view)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), rendered)
	return err
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fortuna/rinkscout/internal/export"
)

var summaryCmd = &cobra.Command{
	Use:   "summary <export.json>",
	Short: "Print league, team and player counts of an export file.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := export.ReadJSON(args[0])
		if err != nil {
			return err
		}
		export.Summary(cmd.OutOrStdout(), data)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

package cmd

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/fortuna/rinkscout/internal/scheduler"
)

var leaguesCmd = &cobra.Command{
	Use:   "leagues",
	Short: "List the leagues a sweep would scrape.",
	RunE: func(cmd *cobra.Command, args []string) error {
		leagues, err := scheduler.LoadLeagues(leaguesFile)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"League", "URL", "Max Teams"})
		for _, l := range leagues {
			limit := any("all")
			if l.MaxTeams > 0 {
				limit = l.MaxTeams
			}
			t.AppendRow(table.Row{l.Name, l.URL, limit})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(leaguesCmd)
}

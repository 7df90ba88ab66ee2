package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fortuna/rinkscout/internal/config"
	"github.com/fortuna/rinkscout/internal/platform/logging"
)

var (
	cfg         config.Config
	log         *logging.Logger
	leaguesFile string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:           "sweep",
	Short:         "sweep scrapes hockey league rosters and stats into JSON and CSV files.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(); err != nil {
			return err
		}
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		if leaguesFile == "" {
			leaguesFile = cfg.LeaguesFile
		}

		level := logging.ParseLevel(cfg.LogLevel)
		if verbose {
			level = logging.LevelDebug
		}
		log = logging.NewConsole(level)
		logging.SetDefault(log)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&leaguesFile, "leagues", "", "YAML leagues file (defaults to LEAGUES_FILE or the built-in list)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

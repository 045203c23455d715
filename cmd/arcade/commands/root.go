package commands

import (
	"fmt"
	"os"

	"github.com/battlesnakeio/arcade/cmd/arcade/commands/server"
	"github.com/battlesnakeio/arcade/version"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:     "arcade",
	Short:   "arcade plays snake and keeps a live top 5 leaderboard",
	Version: version.Version,
	Run: func(c *cobra.Command, args []string) {
		server.RootCmd.PreRun(c, args)
		server.RootCmd.Run(c, args)
	},
}

// Execute runs the root command
func Execute() {
	rootCmd.Flags().AddFlagSet(server.RootCmd.Flags())

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(server.RootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

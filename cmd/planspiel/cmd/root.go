package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "planspiel",
	Short: "Energy system planning game",
	Long: `planspiel runs the energy system planning game.

Available commands:
  serve      Start the web board
  play       Play in the terminal
  simulate   Play a game with scripted players and print the rounds
  topics     Explore the bus topics

Use "planspiel [command] --help" for more information about a specific command.`,
	SilenceUsage: true,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

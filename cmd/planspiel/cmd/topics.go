package cmd

import (
	"github.com/spf13/cobra"
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Explore the bus topics",
	Long: `The topics command lists the topics on the message bus: the planspiel
notifications mirrored from the engine and the websocket framework topics.

Examples:
  # List all topics
  planspiel topics list

  # Only the game notifications, as JSON
  planspiel topics list --module planspiel --format json`,
}

func init() {
	rootCmd.AddCommand(topicsCmd)
}

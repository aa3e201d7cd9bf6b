package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nfrund/planspiel/internal/app"
	"github.com/nfrund/planspiel/internal/config"
	"github.com/nfrund/planspiel/internal/logging"
	"github.com/nfrund/planspiel/internal/tui"
)

var (
	playPlayers []string
	playLogFile string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play in the terminal",
	Long: `Play the game in the terminal. Players are given as name:role pairs; the
role defaults to stadtplaner. A stored game is resumed instead when the
snapshot backend holds one.

Examples:
  planspiel play --player Anna:stadtwerke --player Bert:klimaschutz
  SNAPSHOT_BACKEND=file planspiel play --log-file planspiel.log`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// The screen belongs to the terminal UI, so logs go to a file or nowhere.
		var w io.Writer = io.Discard
		if playLogFile != "" {
			f, err := os.OpenFile(playLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer f.Close()
			w = f
		}
		logger := logging.NewWithWriter(w, os.Getenv("LOG_FORMAT"), os.Getenv("LOG_LEVEL"))

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, err := app.NewGame(ctx, config.New(), logger, nil)
		if err != nil {
			return err
		}
		defer g.Close(context.Background())

		restored, err := g.Controller.Restore(ctx)
		if err != nil {
			logger.Warn("Could not restore stored game", "error", err)
		}
		if !restored {
			for _, entry := range playPlayers {
				name, role, _ := strings.Cut(entry, ":")
				if role == "" {
					role = "stadtplaner"
				}
				if _, err := g.Controller.AddPlayer(name, role); err != nil {
					return fmt.Errorf("add player %q: %w", entry, err)
				}
			}
		}
		return tui.Run(ctx, g.Controller)
	},
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringArrayVarP(&playPlayers, "player", "p", nil, "Player as name:role (repeatable)")
	playCmd.Flags().StringVar(&playLogFile, "log-file", "", "Write logs to this file")
}

package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/nfrund/planspiel/internal/app"
	"github.com/nfrund/planspiel/internal/config"
	"github.com/nfrund/planspiel/internal/logging"
	"github.com/nfrund/planspiel/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web board",
	Long: `Start the HTTP server with the game board, the websocket endpoints and,
when enabled, the metrics endpoint. Configuration is read from the environment
and an optional .env file. The server stops on SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := logging.New()
		cfg := config.New()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		g, err := app.NewGame(ctx, cfg, logger, nil)
		if err != nil {
			logger.Error("Failed to set up the game", "error", err)
			return err
		}
		defer g.Close(context.Background())

		logger.Info("Starting server", "addr", cfg.GetAppAddr())
		if err := server.New(cfg, g, logger).Start(ctx); err != nil {
			logger.Error("Server stopped with error", "error", err)
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

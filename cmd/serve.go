package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sentinela/internal/bootstrap"
	"sentinela/internal/errs"
	"sentinela/internal/transport/httpapi"
	"sentinela/internal/usecase/deviation"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the operations board API server",
	Long:  "Serves the JSON API, websocket refresh channel and metrics endpoint, refreshing the snapshot on the configured interval until interrupted.",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, _ *deviation.Service, server *httpapi.Server) error {
		if err := app.InitSchema(cmd.Context()); err != nil {
			return errs.Wrap(err, "init schema")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return errs.Wrap(err, "serve")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

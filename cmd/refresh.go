package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"sentinela/internal/bootstrap"
	"sentinela/internal/errs"
	"sentinela/internal/transport/httpapi"
	"sentinela/internal/usecase/deviation"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Load both lists once and cache the snapshot",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *deviation.Service, _ *httpapi.Server) error {
		if err := app.InitSchema(cmd.Context()); err != nil {
			return errs.Wrap(err, "init schema")
		}
		if err := svc.Refresh(cmd.Context()); err != nil {
			return errs.Wrap(err, "refresh snapshot")
		}
		fmt.Fprintln(cmd.OutOrStdout(), "snapshot refreshed")
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"sentinela/internal/bootstrap"
	"sentinela/internal/errs"
	"sentinela/internal/transport/httpapi"
	"sentinela/internal/usecase/deviation"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Mark stale pending events as unattended",
	Long:  "Loads the current snapshot and marks every pending event older than the unattended cutoff, writing the new status back to the store.",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *deviation.Service, _ *httpapi.Server) error {
		if err := app.InitSchema(cmd.Context()); err != nil {
			return errs.Wrap(err, "init schema")
		}
		if err := svc.Refresh(cmd.Context()); err != nil {
			return errs.Wrap(err, "refresh snapshot")
		}
		swept, err := svc.Sweep(cmd.Context())
		if err != nil {
			return errs.Wrap(err, "sweep events")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "marked %d event(s) unattended\n", swept)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}

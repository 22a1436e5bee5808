package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"sentinela/internal/bootstrap"
	"sentinela/internal/errs"
	"sentinela/internal/transport/httpapi"
	"sentinela/internal/usecase/deviation"
)

var initDbCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Create or migrate the local journal schema",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, _ *deviation.Service, _ *httpapi.Server) error {
		if err := app.InitSchema(cmd.Context()); err != nil {
			return errs.Wrap(err, "init schema")
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema ready")
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(initDbCmd)
}

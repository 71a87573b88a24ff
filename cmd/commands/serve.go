package commands

import (
	"github.com/spf13/cobra"

	"github.com/ncobase/searchsync/server"
)

func newServeCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the search HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := o.app(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			if app.Manager == nil {
				return errEngineDisabled
			}
			srv, err := server.New(app.Config, app.Engine, app.Manager, server.WithLogger(app.Logger))
			if err != nil {
				return err
			}
			return srv.Run(cmd.Context())
		},
	}
}

// Package commands implements the searchsync command line.
//
// The App the subcommands share can also be embedded by a host service:
// build it with Load or NewApp and call App.Dispatcher from the write
// paths of searchable models, so index updates follow their transactions.
//
//	app, err := commands.Load(ctx, "config.yaml")
//	...
//	err = app.Data.WithTx(ctx, func(ctx context.Context) error {
//		// write the post
//		_, err := app.Dispatcher.Updated(ctx, post)
//		return err
//	})
package commands

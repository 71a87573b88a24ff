package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ncobase/searchsync/search"
)

func newSyncSettingsCommand(o *options) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "sync-settings [model]",
		Short: "Push the index settings of one or every model",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := o.app(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			models := app.Registry.Names()
			if len(args) == 1 {
				models = args
			}
			return runSyncSettings(cmd.Context(), app, cmd.OutOrStdout(), models, dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the settings without applying them")
	return cmd
}

func runSyncSettings(ctx context.Context, app *App, out io.Writer, models []string, dryRun bool) error {
	if dryRun && app.Manager == nil {
		return errEngineDisabled
	}
	for _, model := range models {
		proto, err := app.Prototype(model)
		if err != nil {
			return err
		}
		index := search.IndexNameOf(proto)

		if dryRun {
			b, err := json.MarshalIndent(app.Manager.SettingsForModel(proto), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s (%s):\n%s\n", model, index, b)
			continue
		}

		task, err := app.Engine.SyncSettings(ctx, proto)
		if err != nil {
			return fmt.Errorf("sync settings of %s: %w", model, err)
		}
		if task.Skipped() {
			fmt.Fprintf(out, "%s (%s): nothing to apply\n", model, index)
			continue
		}
		fmt.Fprintf(out, "%s (%s): task %d %s\n", model, index, task.UID, task.Status)
	}
	return nil
}

package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ncobase/searchsync/search"
)

const defaultChunkSize = 500

func newIndexCommand(o *options) *cobra.Command {
	var (
		ids   []string
		fresh bool
		chunk int
	)

	cmd := &cobra.Command{
		Use:   "index <model>",
		Short: "Import the records of a model into its search index",
		Long: `Import every record of a model, or only the records whose keys are
given with --id. With --fresh the index is flushed first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if chunk <= 0 {
				return fmt.Errorf("--chunk must be positive, got %d", chunk)
			}
			app, err := o.app(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			return runIndex(cmd.Context(), app, cmd.OutOrStdout(), args[0], ids, fresh, chunk)
		},
	}

	cmd.Flags().StringSliceVar(&ids, "id", nil, "index only these keys (repeatable)")
	cmd.Flags().BoolVar(&fresh, "fresh", false, "flush the index before importing")
	cmd.Flags().IntVar(&chunk, "chunk", defaultChunkSize, "records loaded per batch")
	return cmd
}

func runIndex(ctx context.Context, app *App, out io.Writer, model string, ids []string, fresh bool, chunk int) error {
	proto, err := app.Prototype(model)
	if err != nil {
		return err
	}
	index := search.IndexNameOf(proto)

	if fresh {
		if err := app.Engine.Flush(ctx, index); err != nil {
			return fmt.Errorf("flush %s: %w", index, err)
		}
		fmt.Fprintf(out, "Flushed index %s\n", index)
	}

	if len(ids) > 0 {
		finder, err := app.Registry.Lookup(model)
		if err != nil {
			return err
		}
		keys := make([]any, len(ids))
		for i, id := range ids {
			keys[i] = id
		}
		records, err := finder.FindByKeys(ctx, search.KeyFieldOf(proto), keys)
		if err != nil {
			return fmt.Errorf("load %s records: %w", model, err)
		}
		if err := app.Engine.IndexMany(ctx, records); err != nil {
			return err
		}
		fmt.Fprintf(out, "Indexed %d of %d requested [%s] records into %s\n", len(records), len(ids), model, index)
		return nil
	}

	chunker, ok := app.Registry.Chunker(model)
	if !ok {
		return fmt.Errorf("model %s does not support bulk import", model)
	}
	total := 0
	err = chunker.Chunk(ctx, chunk, func(batch []search.Searchable) error {
		if err := app.Engine.IndexMany(ctx, batch); err != nil {
			return err
		}
		total += len(batch)
		fmt.Fprintf(out, "Imported [%s] records up to %d\n", model, total)
		return nil
	})
	if err != nil {
		return fmt.Errorf("import %s: %w", model, err)
	}
	fmt.Fprintf(out, "All [%s] records have been imported into %s (%d)\n", model, index, total)
	return nil
}

package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ncobase/searchsync/search"
)

func newFlushCommand(o *options) *cobra.Command {
	var all, force bool

	cmd := &cobra.Command{
		Use:   "flush [index]",
		Short: "Remove every document from an index",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return errors.New("give either an index name or --all")
			}
			app, err := o.app(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			targets := args
			if all {
				targets = modelIndexes(app)
				if len(targets) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No models are configured")
					return nil
				}
			}
			if !force && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(),
				fmt.Sprintf("Remove every document from %s?", strings.Join(targets, ", "))) {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
				return nil
			}
			return runFlush(cmd.Context(), app, cmd.OutOrStdout(), targets)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "flush the index of every configured model")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "do not ask for confirmation")
	return cmd
}

func runFlush(ctx context.Context, app *App, out io.Writer, indexes []string) error {
	for _, index := range indexes {
		if err := app.Engine.Flush(ctx, index); err != nil {
			return fmt.Errorf("flush %s: %w", index, err)
		}
		fmt.Fprintf(out, "Flushed %s\n", index)
	}
	return nil
}

// modelIndexes returns the distinct indexes of the registered models.
func modelIndexes(app *App) []string {
	seen := make(map[string]bool)
	var out []string
	for _, name := range app.Registry.Names() {
		proto, ok := app.Registry.Prototype(name)
		if !ok {
			continue
		}
		index := search.IndexNameOf(proto)
		if !seen[index] {
			seen[index] = true
			out = append(out, index)
		}
	}
	sort.Strings(out)
	return out
}

// confirm asks a y/N question; anything but y or yes declines.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ncobase/searchsync/search"
)

func newSearchCommand(o *options) *cobra.Command {
	var (
		filters []string
		limit   int
		raw     bool
	)

	cmd := &cobra.Command{
		Use:   "search <index> [query]",
		Short: "Run a search against an index",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := o.app(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			text := ""
			if len(args) == 2 {
				text = args[1]
			}
			q := search.NewQuery(app.Engine, nil, text).Within(args[0])
			for _, f := range filters {
				q.WhereRaw(f)
			}
			if cmd.Flags().Changed("limit") {
				q.Limit(limit)
			}
			return runSearch(cmd.Context(), cmd.OutOrStdout(), q, raw)
		},
	}

	cmd.Flags().StringArrayVar(&filters, "filter", nil, "raw engine filter expression (repeatable)")
	cmd.Flags().IntVar(&limit, "limit", search.DefaultSearchLimit, "maximum number of hits")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the raw engine response as JSON")
	return cmd
}

func runSearch(ctx context.Context, out io.Writer, q *search.Query, raw bool) error {
	if raw {
		m, err := q.Raw(ctx)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	}

	res, err := q.Get(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d hits (about %d) in %dms\n", res.Len(), res.EstimatedTotalHits, res.ProcessingTimeMs)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, hit := range res.Hits {
		b, err := json.Marshal(hit)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\n", search.KeyString(hit.ID()), b)
	}
	return tw.Flush()
}

package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ncobase/searchsync/search"
)

type indexStatus struct {
	search.IndexInfo
	NumberOfDocuments int64 `json:"numberOfDocuments"`
	IsIndexing        bool  `json:"isIndexing"`
}

type statusReport struct {
	Engine  string         `json:"engine"`
	Healthy bool           `json:"healthy"`
	Queue   string         `json:"queue,omitempty"`
	Models  []string       `json:"models"`
	Stores  map[string]any `json:"stores,omitempty"`
	Indexes []indexStatus  `json:"indexes"`
}

func newStatusCommand(o *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show engine health and the indexes it holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := o.app(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			report, err := collectStatus(cmd.Context(), app)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			return printStatus(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the status as JSON")
	return cmd
}

func collectStatus(ctx context.Context, app *App) (*statusReport, error) {
	report := &statusReport{
		Engine:  app.Config.Data.Search.Engine,
		Models:  app.Registry.Names(),
		Indexes: []indexStatus{},
	}
	if app.Queue != nil {
		report.Queue = app.Queue.Name()
	}
	if app.Data != nil {
		report.Stores = app.Data.Health(ctx)
	}
	if app.Manager == nil {
		report.Healthy = true
		return report, nil
	}

	if err := app.Manager.Health(ctx); err != nil {
		return nil, fmt.Errorf("search engine unavailable: %w", err)
	}
	report.Healthy = true

	indexes, err := app.Manager.GetAllIndexes(ctx)
	if err != nil {
		return nil, err
	}
	for _, idx := range indexes {
		st := indexStatus{IndexInfo: idx}
		// listed uids already carry the prefix
		stats, err := app.Manager.Backend().GetStats(ctx, idx.UID)
		if err != nil {
			app.Logger.Warnf(ctx, "stats of %s: %v", idx.UID, err)
		} else {
			st.NumberOfDocuments = stats.NumberOfDocuments
			st.IsIndexing = stats.IsIndexing
		}
		report.Indexes = append(report.Indexes, st)
	}
	return report, nil
}

func printStatus(out io.Writer, r *statusReport) error {
	fmt.Fprintf(out, "Engine:  %s (healthy)\n", r.Engine)
	if r.Queue != "" {
		fmt.Fprintf(out, "Queue:   %s\n", r.Queue)
	}
	if st, ok := r.Stores["status"].(string); ok {
		fmt.Fprintf(out, "Stores:  %s\n", st)
	}
	fmt.Fprintf(out, "Models:  %d\n\n", len(r.Models))

	if len(r.Indexes) == 0 {
		fmt.Fprintln(out, "No indexes")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "UID\tPRIMARY KEY\tDOCUMENTS\tINDEXING\tUPDATED")
	for _, idx := range r.Indexes {
		updated := "-"
		if !idx.UpdatedAt.IsZero() {
			updated = idx.UpdatedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%t\t%s\n", idx.UID, idx.PrimaryKey, idx.NumberOfDocuments, idx.IsIndexing, updated)
	}
	return tw.Flush()
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/seer-cli/internal/dataset"
	"github.com/sells-group/seer-cli/internal/store"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show row counts and the ingest log",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("status"); err != nil {
			return err
		}
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := formatCounts(ctx, os.Stdout, st, dataset.NewRegistry()); err != nil {
			return err
		}

		entries, err := st.ListLog(ctx, statusLimit)
		if err != nil {
			return eris.Wrap(err, "status")
		}
		if len(entries) == 0 {
			zap.L().Info("no ingest entries found, run 'seer-cli ingest' to load datasets")
			return nil
		}

		_, _ = fmt.Fprintln(os.Stdout)
		formatLogEntries(os.Stdout, entries)
		return nil
	},
}

func init() {
	statusCmd.Flags().IntVar(&statusLimit, "limit", 20, "number of ingest log entries to show")
	rootCmd.AddCommand(statusCmd)
}

// formatCounts writes the stored row count of every dataset to out.
func formatCounts(ctx context.Context, out io.Writer, r store.Reader, reg *dataset.Registry) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DATASET\tROWS")
	_, _ = fmt.Fprintln(w, "-------\t----")
	for _, d := range reg.All() {
		n, err := r.Count(ctx, d.Table())
		if err != nil {
			return eris.Wrapf(err, "status: count %s", d.Name())
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\n", d.Name(), n)
	}
	return w.Flush()
}

// formatLogEntries writes a tabular representation of ingest log entries to w.
func formatLogEntries(out io.Writer, entries []store.LogEntry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tRUN\tDATASET\tSTATUS\tSTARTED\tDURATION\tROWS\tERROR")
	_, _ = fmt.Fprintln(w, "--\t---\t-------\t------\t-------\t--------\t----\t-----")

	for _, e := range entries {
		dur := "-"
		if e.CompletedAt != nil {
			d := e.CompletedAt.Sub(e.StartedAt).Round(time.Second)
			dur = d.String()
		}

		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			e.ID,
			truncate(e.RunID, 8),
			e.Dataset,
			e.Status,
			e.StartedAt.Format("2006-01-02 15:04"),
			dur,
			e.Rows,
			truncate(e.Error, 60),
		)
	}
	_ = w.Flush()
}

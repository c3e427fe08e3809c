package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/seer-cli/internal/ingest"
)

var (
	ingestDatasets []string
	ingestJSON     bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Parse the registry extracts and load them into the store",
	Long:  "Runs every dataset through parse and upsert, then checks the committed survival aggregates against clinical benchmarks. Findings are reported but never roll back data.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("ingest"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initEnv(ctx, nil)
		if err != nil {
			return err
		}
		defer e.Close()

		res, err := e.Orchestrator.Run(ctx, ingest.RunOpts{Datasets: ingestDatasets})
		if res != nil {
			if ingestJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if encErr := enc.Encode(res); encErr != nil {
					return eris.Wrap(encErr, "ingest: encode result")
				}
			} else {
				formatResult(os.Stdout, res)
			}
		}
		if err != nil {
			return err
		}
		if !res.Committed() {
			return eris.Errorf("ingest: %d dataset(s) failed", len(res.Errors))
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringSliceVar(&ingestDatasets, "dataset", nil, "restrict to these datasets (repeatable)")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "print the result as JSON")
	rootCmd.AddCommand(ingestCmd)
}

// formatResult writes a per-dataset summary of an ingest run to out.
func formatResult(out io.Writer, res *ingest.Result) {
	_, _ = fmt.Fprintf(out, "run %s: %s\n\n", res.RunID, res.Status)

	names := make([]string, 0, len(res.Counts))
	for name := range res.Counts {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DATASET\tROWS\tERROR")
	_, _ = fmt.Fprintln(w, "-------\t----\t-----")
	for _, name := range names {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\n", name, res.Counts[name], truncate(res.Errors[name], 60))
	}
	_ = w.Flush()

	if len(res.Findings) == 0 {
		return
	}
	_, _ = fmt.Fprintln(out, "\nvalidation findings:")
	for _, f := range res.Findings {
		_, _ = fmt.Fprintf(out, "  %s (%s): %s\n", f.Benchmark, f.Dataset, f.Message)
	}
}

// truncate shortens s to at most n runes, appending "..." when cut.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/access-cli/internal/model"
	"github.com/sells-group/access-cli/internal/report"
	"github.com/sells-group/access-cli/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect analysis run history",
	Long:  "Commands for listing, viewing, exporting and summarizing recorded analysis runs.",
}

// openRunStore opens the configured store for the runs subcommands.
func openRunStore(cmd *cobra.Command) (store.Store, error) {
	if err := cfg.Validate("runs"); err != nil {
		return nil, err
	}
	return store.Open(cmd.Context(), cfg.Store)
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List analysis runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := openRunStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := st.ListRuns(cmd.Context(), store.RunFilter{
			Status: model.RunStatus(status),
			Limit:  limit,
		})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "No runs found.")
			return nil
		}

		report.FormatRuns(cmd.OutOrStdout(), runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show full details of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openRunStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(cmd.Context(), args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

// -- runs regions --

var runsRegionsCmd = &cobra.Command{
	Use:   "regions <run-id>",
	Short: "Export the scored regions of a run as CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openRunStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if _, err := st.GetRun(cmd.Context(), args[0]); err != nil {
			return eris.Wrap(err, "runs regions")
		}
		regions, err := st.RunRegions(cmd.Context(), args[0])
		if err != nil {
			return eris.Wrap(err, "runs regions")
		}

		out := cmd.OutOrStdout()
		if path, _ := cmd.Flags().GetString("out"); path != "" {
			f, err := os.Create(path) //nolint:gosec // operator-supplied path
			if err != nil {
				return eris.Wrapf(err, "create %s", path)
			}
			defer f.Close() //nolint:errcheck
			out = f
		}
		return report.WriteCSV(out, regions, false)
	},
}

// -- runs stats --

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate run statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := openRunStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		since, _ := cmd.Flags().GetDuration("since")
		runs, err := st.ListRuns(cmd.Context(), store.RunFilter{Limit: 10000})
		if err != nil {
			return eris.Wrap(err, "runs stats")
		}

		var cutoff time.Time
		if since > 0 {
			cutoff = time.Now().Add(-since)
		}
		formatRunStats(cmd.OutOrStdout(), computeRunStats(runs, cutoff))
		return nil
	},
}

func init() {
	runsListCmd.Flags().String("status", "", "filter by run status (running, complete, failed)")
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")

	runsRegionsCmd.Flags().StringP("out", "o", "", "write CSV to a file instead of stdout")

	runsStatsCmd.Flags().Duration("since", 7*24*time.Hour, "time window for stats (0 for all runs)")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsRegionsCmd)
	runsCmd.AddCommand(runsStatsCmd)
	rootCmd.AddCommand(runsCmd)
}

// runStats holds aggregate statistics computed from a set of runs.
type runStats struct {
	Total       int
	Complete    int
	Failed      int
	Running     int
	AvgRegions  float64
	AvgMatched  float64
	AvgDuration time.Duration
}

// computeRunStats aggregates runs created at or after cutoff. A zero
// cutoff includes every run.
func computeRunStats(runs []model.Run, cutoff time.Time) runStats {
	var (
		s                 runStats
		regions, matched  int
		totalMs, complete int64
	)
	for _, r := range runs {
		if !cutoff.IsZero() && r.CreatedAt.Before(cutoff) {
			continue
		}
		s.Total++
		switch r.Status {
		case model.RunStatusComplete:
			s.Complete++
			if r.Summary != nil {
				regions += r.Summary.Regions
				matched += r.Summary.MatchedRegions
				totalMs += r.Summary.DurationMs
				complete++
			}
		case model.RunStatusFailed:
			s.Failed++
		default:
			s.Running++
		}
	}
	if complete > 0 {
		s.AvgRegions = float64(regions) / float64(complete)
		s.AvgMatched = float64(matched) / float64(complete)
		s.AvgDuration = time.Duration(totalMs/complete) * time.Millisecond
	}
	return s
}

// formatRunStats writes aggregate stats to w.
func formatRunStats(out io.Writer, s runStats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total runs:\t%d\n", s.Total)
	_, _ = fmt.Fprintf(w, "Complete:\t%d\n", s.Complete)
	_, _ = fmt.Fprintf(w, "Failed:\t%d\n", s.Failed)
	_, _ = fmt.Fprintf(w, "Running:\t%d\n", s.Running)
	if s.Complete > 0 {
		_, _ = fmt.Fprintf(w, "Avg regions:\t%.1f\n", s.AvgRegions)
		_, _ = fmt.Fprintf(w, "Avg matched:\t%.1f\n", s.AvgMatched)
		_, _ = fmt.Fprintf(w, "Avg duration:\t%s\n", s.AvgDuration)
	}
	_ = w.Flush()
}

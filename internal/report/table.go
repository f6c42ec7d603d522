package report

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/sells-group/access-cli/internal/model"
)

// FormatRegions writes a tabular list of scored regions to out.
func FormatRegions(out io.Writer, regions []model.AggregatedRegion) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RANK\tREGION\tRATIO\tFACILITIES\tRATE\tSCORE\tBOUNDARY")
	_, _ = fmt.Fprintln(w, "----\t------\t-----\t----------\t----\t-----\t--------")

	for i, r := range regions {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%.2f\t%d\t%.3f\t%.1f\t%s\n",
			i+1,
			truncate(r.RegionKey, 24),
			r.Ratio,
			r.FacilityCount,
			r.FacilityRate,
			r.Score,
			r.MatchMethod,
		)
	}
	_ = w.Flush()
}

// FormatSummary writes the run counters and the trendline to out.
func FormatSummary(out io.Writer, s model.RunSummary, t Trendline) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Population rows:\t%d\n", s.PopulationRows)
	_, _ = fmt.Fprintf(w, "Facility rows:\t%d\n", s.FacilityRows)
	_, _ = fmt.Fprintf(w, "  Dropped (no region):\t%d\n", s.FacilityDropped)
	_, _ = fmt.Fprintf(w, "Regions:\t%d\n", s.Regions)
	_, _ = fmt.Fprintf(w, "  With facilities:\t%d\n", s.MatchedRegions)
	if s.BoundaryExact+s.BoundaryFuzzy+s.BoundaryMissing > 0 {
		_, _ = fmt.Fprintf(w, "Boundary exact:\t%d\n", s.BoundaryExact)
		_, _ = fmt.Fprintf(w, "Boundary substring:\t%d\n", s.BoundaryFuzzy)
		_, _ = fmt.Fprintf(w, "Boundary missing:\t%d\n", s.BoundaryMissing)
	}
	if s.MaxScoreRegion != "" {
		_, _ = fmt.Fprintf(w, "Most vulnerable:\t%s\n", s.MaxScoreRegion)
		_, _ = fmt.Fprintf(w, "Least vulnerable:\t%s\n", s.MinScoreRegion)
	}
	if t.Valid {
		_, _ = fmt.Fprintf(w, "Trendline:\trate = %.4f * ratio + %.4f (R² %.3f)\n", t.Slope, t.Intercept, t.R2)
	}
	if s.DurationMs > 0 {
		_, _ = fmt.Fprintf(w, "Duration:\t%s\n", (time.Duration(s.DurationMs) * time.Millisecond).String())
	}
	_ = w.Flush()
}

// FormatRuns writes a tabular list of recorded runs to out.
func FormatRuns(out io.Writer, runs []model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tPOPULATION\tFACILITIES\tSTATUS\tREGIONS\tCREATED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t----------\t----------\t------\t-------\t-------\t--------")

	for _, r := range runs {
		regions, dur := "", ""
		if r.Summary != nil {
			regions = fmt.Sprint(r.Summary.Regions)
			dur = (time.Duration(r.Summary.DurationMs) * time.Millisecond).Round(time.Millisecond).String()
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			TruncateID(r.ID),
			truncate(r.Input.PopulationFile, 30),
			truncate(r.Input.FacilityFile, 30),
			r.Status,
			regions,
			r.CreatedAt.Format("2006-01-02 15:04"),
			dur,
		)
	}
	_ = w.Flush()
}

// TruncateID returns the first 8 characters of a UUID for compact display.
func TruncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n-3]) + "..."
	}
	return s
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/access-cli/internal/fetcher"
	"github.com/sells-group/access-cli/internal/proximity"
)

var proximityCmd = &cobra.Command{
	Use:   "proximity",
	Short: "Summarize how facilities spread around their centroid",
	Long: "Loads facility coordinates from a table (--file), from OpenStreetMap via Overpass (--bbox) " +
		"or a built-in sample, then prints each facility's straight-line distance to the centroid.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		file, _ := cmd.Flags().GetString("file")
		bboxFlag, _ := cmd.Flags().GetString("bbox")
		asJSON, _ := cmd.Flags().GetBool("json")

		if file != "" && bboxFlag != "" {
			return eris.New("proximity: --file and --bbox are mutually exclusive")
		}

		var facilities []proximity.Facility
		switch {
		case file != "":
			data, err := os.ReadFile(file) //nolint:gosec // operator-supplied path
			if err != nil {
				return eris.Wrapf(err, "read %s", file)
			}
			t, err := fetcher.ReadTable(ctx, filepath.Base(file), data)
			if err != nil {
				return err
			}
			var skipped int
			facilities, skipped, err = proximity.FromTable(t)
			if err != nil {
				return err
			}
			if skipped > 0 {
				zap.L().Warn("skipped rows without valid coordinates", zap.Int("rows", skipped))
			}
		case bboxFlag != "":
			b, err := parseBBox(bboxFlag)
			if err != nil {
				return err
			}
			src := proximity.NewOverpassSource(cfg.Overpass.Endpoint, time.Duration(cfg.Overpass.TimeoutSecs)*time.Second)
			facilities, err = src.Facilities(ctx, b)
			if err != nil {
				return err
			}
		default:
			facilities = proximity.DefaultFacilities()
		}

		summary, err := proximity.Analyze(facilities)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		var nearest *proximity.Distance
		if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") {
			lat, _ := cmd.Flags().GetFloat64("lat")
			lon, _ := cmd.Flags().GetFloat64("lon")
			f, d, err := proximity.Nearest(facilities, lat, lon)
			if err != nil {
				return err
			}
			nearest = &proximity.Distance{Facility: f, ToCenter: d}
		}

		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				*proximity.Summary
				Nearest *proximity.Distance `json:"nearest,omitempty"`
			}{summary, nearest})
		}

		formatProximity(out, summary)
		if nearest != nil {
			_, _ = fmt.Fprintf(out, "\nNearest: %s (%.6f)\n", nearest.Name, nearest.ToCenter)
		}
		return nil
	},
}

// parseBBox reads "south,west,north,east".
func parseBBox(s string) (proximity.BBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return proximity.BBox{}, eris.Errorf("bbox %q: want south,west,north,east", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return proximity.BBox{}, eris.Wrapf(err, "bbox %q", s)
		}
		v[i] = f
	}
	b := proximity.BBox{South: v[0], West: v[1], North: v[2], East: v[3]}
	return b, b.Validate()
}

func formatProximity(out io.Writer, s *proximity.Summary) {
	_, _ = fmt.Fprintf(out, "Centroid: %.6f, %.6f\n", s.CenterLat, s.CenterLon)
	_, _ = fmt.Fprintf(out, "Mean distance: %.6f  Max distance: %.6f\n\n", s.Mean, s.Max)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tCATEGORY\tLAT\tLON\tTO_CENTER")
	_, _ = fmt.Fprintln(w, "----\t--------\t---\t---\t---------")
	for _, d := range s.Distances {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%.6f\t%.6f\t%.6f\n", d.Name, d.Category, d.Lat, d.Lon, d.ToCenter)
	}
	_ = w.Flush()
}

func init() {
	f := proximityCmd.Flags()
	f.String("file", "", "facility table with name, latitude and longitude columns")
	f.String("bbox", "", "query Overpass for facilities in south,west,north,east")
	f.Float64("lat", 0, "latitude of a point to find the nearest facility to")
	f.Float64("lon", 0, "longitude of a point to find the nearest facility to")
	f.Bool("json", false, "print the summary as JSON")
	rootCmd.AddCommand(proximityCmd)
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/access-cli/internal/geo"
	"github.com/sells-group/access-cli/internal/model"
	"github.com/sells-group/access-cli/internal/pipeline"
	"github.com/sells-group/access-cli/internal/report"
)

// Export formats for analyze --format.
const (
	formatCSV     = "csv"
	formatXLSX    = "xlsx"
	formatJSON    = "json"
	formatGeoJSON = "geojson"
)

var analyzeOpts struct {
	population   string
	facilities   string
	boundary     string
	skipBoundary bool
	columns      model.ColumnMapping
	ratioWeight  float64
	rateWeight   float64
	byCategory   bool
	format       string
	out          string
	top          int
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score regions from a population table and a facility list",
	Long: "Reads the elderly single-person household table and the medical facility list, " +
		"joins them by region, scores access vulnerability and writes the scored regions.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		format, err := exportFormat(analyzeOpts.format, analyzeOpts.out)
		if err != nil {
			return err
		}
		if analyzeOpts.out == "" && format != formatCSV {
			return eris.Errorf("--format %s needs --out", format)
		}

		env, err := initEnv(ctx, "analyze")
		if err != nil {
			return err
		}
		defer env.Close()

		in, err := analyzeInput(cmd)
		if err != nil {
			return err
		}

		res, err := env.Pipeline.Run(ctx, in)
		if err != nil {
			if eris.Is(err, pipeline.ErrBoundaryFetch) {
				return eris.Wrap(err, "boundary download failed; pass --boundary <file> or --skip-boundary")
			}
			return err
		}

		out := cmd.OutOrStdout()
		top := analyzeOpts.top
		if !cmd.Flags().Changed("top") {
			top = cfg.Report.TopN
		}
		top = report.ClampN(top)

		if analyzeOpts.out != "" {
			path := analyzeOpts.out
			if !filepath.IsAbs(path) && cfg.Report.OutputDir != "" {
				path = filepath.Join(cfg.Report.OutputDir, path)
			}
			if err := writeExport(path, format, res, top); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "Wrote %d regions to %s\n\n", len(res.Regions), path)
		}

		if res.RunID != "" {
			_, _ = fmt.Fprintf(out, "Run: %s\n", res.RunID)
		}
		report.FormatSummary(out, res.Summary, report.BuildScatter(res.Regions).Trendline)

		_, _ = fmt.Fprintf(out, "\nMost vulnerable (top %d)\n", top)
		report.FormatRegions(out, report.TopN(res.Regions, top))
		_, _ = fmt.Fprintf(out, "\nLeast vulnerable (bottom %d)\n", top)
		report.FormatRegions(out, report.BottomN(res.Regions, top))

		if len(res.Join.DuplicateKeys) > 0 {
			_, _ = fmt.Fprintf(out, "\nDuplicate population keys: %s\n", strings.Join(res.Join.DuplicateKeys, ", "))
		}
		if len(res.Join.OrphanKeys) > 0 {
			_, _ = fmt.Fprintf(out, "Facility regions without population rows: %d\n", len(res.Join.OrphanKeys))
		}
		return nil
	},
}

// analyzeInput builds the pipeline input from flags and config.
func analyzeInput(cmd *cobra.Command) (pipeline.Input, error) {
	var errs []string
	if analyzeOpts.population == "" {
		errs = append(errs, "--population is required")
	}
	if analyzeOpts.facilities == "" {
		errs = append(errs, "--facilities is required")
	}
	if analyzeOpts.skipBoundary && analyzeOpts.boundary != "" {
		errs = append(errs, "--boundary and --skip-boundary are mutually exclusive")
	}
	if len(errs) > 0 {
		return pipeline.Input{}, eris.Errorf("analyze: %s", strings.Join(errs, "; "))
	}

	in := pipeline.Input{
		SkipBoundary: analyzeOpts.skipBoundary,
		ByCategory:   analyzeOpts.byCategory || cfg.Score.ByCategory,
		Columns: analyzeOpts.columns.Merge(model.ColumnMapping{
			Region:     cfg.Columns.Region,
			Ratio:      cfg.Columns.Ratio,
			Households: cfg.Columns.Households,
			Address:    cfg.Columns.Address,
			Category:   cfg.Columns.Category,
		}),
	}

	var err error
	if in.Population, err = readInputFile(analyzeOpts.population); err != nil {
		return in, err
	}
	if in.Facilities, err = readInputFile(analyzeOpts.facilities); err != nil {
		return in, err
	}

	boundary := analyzeOpts.boundary
	if boundary == "" && !in.SkipBoundary {
		boundary = cfg.Boundary.File
	}
	if boundary != "" {
		f, err := readInputFile(boundary)
		if err != nil {
			return in, err
		}
		in.Boundary = &f
	}

	if cmd.Flags().Changed("ratio-weight") {
		w := analyzeOpts.ratioWeight
		in.RatioWeight = &w
	}
	if cmd.Flags().Changed("rate-weight") {
		w := analyzeOpts.rateWeight
		in.RateWeight = &w
	}
	return in, nil
}

func readInputFile(path string) (pipeline.File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return pipeline.File{}, eris.Wrapf(err, "read %s", path)
	}
	return pipeline.File{Name: filepath.Base(path), Data: data}, nil
}

// exportFormat resolves the output format from the flag, falling back to
// the output file extension and then CSV.
func exportFormat(flag, out string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(flag))
	if f == "" {
		f = strings.TrimPrefix(strings.ToLower(filepath.Ext(out)), ".")
	}
	switch f {
	case "":
		return formatCSV, nil
	case formatCSV, formatXLSX, formatJSON, formatGeoJSON:
		return f, nil
	default:
		return "", eris.Errorf("unknown format %q (want csv, xlsx, json or geojson)", f)
	}
}

func writeExport(path, format string, res *pipeline.Result, top int) error {
	f, err := os.Create(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	defer f.Close() //nolint:errcheck

	if err := encodeResult(f, format, res, top); err != nil {
		return err
	}
	return eris.Wrapf(f.Close(), "close %s", path)
}

func encodeResult(w io.Writer, format string, res *pipeline.Result, top int) error {
	switch format {
	case formatXLSX:
		return report.WriteXLSX(w, res.Regions, res.ByCategory, top)
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(res), "encode json")
	case formatGeoJSON:
		if res.Boundary == nil {
			return eris.New("geojson output needs boundaries; drop --skip-boundary")
		}
		data, err := geo.EncodeScored(res.Boundary, res.Scored())
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return eris.Wrap(err, "write geojson")
	default:
		return report.WriteCSV(w, res.Regions, res.ByCategory)
	}
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&analyzeOpts.population, "population", "", "elderly single-person household table (csv, tsv or xlsx)")
	f.StringVar(&analyzeOpts.facilities, "facilities", "", "medical facility list (csv, tsv or xlsx)")
	f.StringVar(&analyzeOpts.boundary, "boundary", "", "boundary GeoJSON or zipped shapefile (default: configured remote sources)")
	f.BoolVar(&analyzeOpts.skipBoundary, "skip-boundary", false, "skip boundary matching")
	f.StringVar(&analyzeOpts.columns.Region, "region-col", "", "population region column (auto-detected when empty)")
	f.StringVar(&analyzeOpts.columns.Ratio, "ratio-col", "", "population ratio column")
	f.StringVar(&analyzeOpts.columns.Households, "households-col", "", "population household count column")
	f.StringVar(&analyzeOpts.columns.Address, "address-col", "", "facility address column")
	f.StringVar(&analyzeOpts.columns.Category, "category-col", "", "facility type column")
	f.Float64Var(&analyzeOpts.ratioWeight, "ratio-weight", 1, "weight of the household ratio z-score")
	f.Float64Var(&analyzeOpts.rateWeight, "rate-weight", 1, "weight of the facility rate z-score")
	f.BoolVar(&analyzeOpts.byCategory, "by-category", false, "add per-category facility counts")
	f.StringVar(&analyzeOpts.format, "format", "", "output format: csv, xlsx, json or geojson (default from --out extension)")
	f.StringVarP(&analyzeOpts.out, "out", "o", "", "output file")
	f.IntVar(&analyzeOpts.top, "top", report.DefaultTopN, "rows in the top and bottom tables (3-20)")
	rootCmd.AddCommand(analyzeCmd)
}

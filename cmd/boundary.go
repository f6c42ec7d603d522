package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/access-cli/internal/fetcher"
	"github.com/sells-group/access-cli/internal/geo"
	"github.com/sells-group/access-cli/internal/region"
)

var boundaryCmd = &cobra.Command{
	Use:   "boundary",
	Short: "Inspect region boundary files",
	Long:  "Fetch, download or read boundary files and show the region keys their names join on.",
}

var boundaryFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download boundaries from the configured sources",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initBoundaryEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		c, err := env.Loader.Fetch(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "boundary fetch")
		}
		return showBoundary(cmd, c)
	},
}

var boundaryInspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Read a GeoJSON or zipped shapefile boundary file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initBoundaryEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		c, err := env.Loader.LoadFile(args[0])
		if err != nil {
			return eris.Wrap(err, "boundary inspect")
		}
		return showBoundary(cmd, c)
	},
}

var boundaryDownloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Save the first reachable boundary source to a file",
	Long: "Downloads the configured boundary URLs in order and saves the first one that answers, " +
		"so later runs can pass it with --boundary instead of fetching.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("out")
		if path == "" {
			return eris.New("boundary download: --out is required")
		}

		env, err := initBoundaryEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		src, n, err := fetcher.DownloadFirstToFile(cmd.Context(), env.Fetcher, cfg.Boundary.URLs, path)
		if err != nil {
			return eris.Wrap(err, "boundary download")
		}

		c, err := env.Loader.LoadFile(path)
		if err != nil {
			return eris.Wrapf(err, "boundary download: %s is not a usable boundary file", src)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Saved %d bytes from %s to %s\n\n", n, src, path)
		formatBoundarySample(cmd.OutOrStdout(), c, 0)
		return nil
	},
}

// showBoundary prints a sample of c and, with --out, writes it as GeoJSON
// carrying each feature's JOIN key.
func showBoundary(cmd *cobra.Command, c *geo.Collection) error {
	n, _ := cmd.Flags().GetInt("n")
	formatBoundarySample(cmd.OutOrStdout(), c, n)

	path, _ := cmd.Flags().GetString("out")
	if path == "" {
		return nil
	}
	data, err := geo.EncodeScored(c, nil)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // output file is meant to be readable
		return eris.Wrapf(err, "write %s", path)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\nWrote %d features to %s\n", len(c.Features), path)
	return nil
}

// formatBoundarySample writes the source, feature count and the first n
// names with their keys.
func formatBoundarySample(out io.Writer, c *geo.Collection, n int) {
	_, _ = fmt.Fprintf(out, "Source:   %s\n", c.Source)
	_, _ = fmt.Fprintf(out, "Features: %d\n", len(c.Features))
	if b := c.BBox(); b != nil {
		_, _ = fmt.Fprintf(out, "Bounds:   %g,%g,%g,%g\n", b[0], b[1], b[2], b[3])
	}
	_, _ = fmt.Fprintln(out)

	n = min(max(n, 0), len(c.Features))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tCANONICAL\tKEY\tLEVEL")
	_, _ = fmt.Fprintln(w, "----\t---------\t---\t-----")
	for _, f := range c.Features[:n] {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", f.PropertyName, f.CanonicalName, f.JoinKey, region.Level(f.JoinKey))
	}
	_ = w.Flush()
}

func init() {
	for _, c := range []*cobra.Command{boundaryFetchCmd, boundaryInspectCmd} {
		c.Flags().Int("n", 10, "number of features to list")
		c.Flags().StringP("out", "o", "", "write the boundaries as GeoJSON with JOIN keys")
		boundaryCmd.AddCommand(c)
	}
	boundaryDownloadCmd.Flags().StringP("out", "o", "", "file to save the boundary source to")
	boundaryCmd.AddCommand(boundaryDownloadCmd)
	rootCmd.AddCommand(boundaryCmd)
}

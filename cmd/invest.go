package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/access-cli/internal/simulate"
)

var investCmd = &cobra.Command{
	Use:   "invest",
	Short: "Project a lump-sum investment year by year",
	RunE: func(cmd *cobra.Command, _ []string) error {
		principal, _ := cmd.Flags().GetFloat64("principal")
		rate, _ := cmd.Flags().GetFloat64("rate")
		years, _ := cmd.Flags().GetInt("years")
		methodFlag, _ := cmd.Flags().GetString("method")
		asJSON, _ := cmd.Flags().GetBool("json")

		method, err := simulate.ParseMethod(methodFlag)
		if err != nil {
			return err
		}
		proj, err := simulate.Run(simulate.Params{
			Principal: principal,
			RatePct:   rate,
			Years:     years,
			Method:    method,
		})
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(proj)
		}
		formatProjection(cmd.OutOrStdout(), proj)
		return nil
	},
}

// formatProjection writes the yearly values followed by the totals.
func formatProjection(out io.Writer, p *simulate.Projection) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	_, _ = fmt.Fprintln(w, "YEAR\tVALUE\t")
	for _, v := range p.Values {
		_, _ = fmt.Fprintf(w, "%d\t%.0f\t\n", v.Year, v.Value)
	}
	_ = w.Flush()

	_, _ = fmt.Fprintf(out, "\nPrincipal: %.0f\n", p.Params.Principal)
	_, _ = fmt.Fprintf(out, "Final:     %.0f\n", p.FinalValue)
	_, _ = fmt.Fprintf(out, "Profit:    %.0f (%s, %.1f%% for %d years)\n",
		p.Profit, p.Params.Method, p.Params.RatePct, p.Params.Years)
}

func init() {
	f := investCmd.Flags()
	f.Float64("principal", 1_000_000, fmt.Sprintf("initial amount (>= %d)", simulate.MinPrincipal))
	f.Float64("rate", 5, fmt.Sprintf("annual rate in percent (0-%g)", simulate.MaxRatePct))
	f.Int("years", 10, fmt.Sprintf("projection length in years (%d-%d)", simulate.MinYears, simulate.MaxYears))
	f.String("method", string(simulate.MethodCompound), "compound or simple")
	f.Bool("json", false, "print the projection as JSON")
	rootCmd.AddCommand(investCmd)
}

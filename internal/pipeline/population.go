package pipeline

import (
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/access-cli/internal/fetcher"
	"github.com/sells-group/access-cli/internal/model"
	"github.com/sells-group/access-cli/internal/region"
)

// PopulationStats summarizes population parsing.
type PopulationStats struct {
	Rows       int `json:"rows"`
	Kept       int `json:"kept"`
	Skipped    int `json:"skipped"`
	NonNumeric int `json:"non_numeric"`
}

var numberCleaner = strings.NewReplacer(",", "", "%", "", " ", "", "\u00a0", "")

// ParseNumber reads a spreadsheet-style number: thousands separators,
// a trailing percent sign and surrounding blanks are ignored. NaN and
// infinities are rejected like any other non-numeric cell.
func ParseNumber(s string) (float64, bool) {
	s = numberCleaner.Replace(strings.TrimSpace(s))
	if s == "" || s == "-" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// PopulationRecords turns the population table into region records.
// Summary rows (전국, 합계, ...) are skipped. A cell that is not a number
// counts as 0; a ratio or household column with no numeric cell at all is
// rejected with ErrMissingColumn.
func PopulationRecords(n *region.Normalizer, t *fetcher.Table, cols model.ColumnMapping) ([]model.RegionRecord, PopulationStats, error) {
	stats := PopulationStats{Rows: len(t.Rows)}

	regionIdx := t.Index(cols.Region)
	ratioIdx := t.Index(cols.Ratio)
	if regionIdx < 0 || ratioIdx < 0 {
		return nil, stats, eris.Wrapf(ErrMissingColumn, "population columns %q/%q", cols.Region, cols.Ratio)
	}
	householdIdx := -1
	if cols.Households != "" {
		if householdIdx = t.Index(cols.Households); householdIdx < 0 {
			return nil, stats, eris.Wrapf(ErrMissingColumn, "household column %q", cols.Households)
		}
	}

	var (
		out                    []model.RegionRecord
		ratioSeen, householdOK bool
	)
	for _, row := range t.Rows {
		raw := row[regionIdx]
		canonical := n.Normalize(raw)
		if canonical == "" || region.IsTotal(canonical) {
			stats.Skipped++
			continue
		}

		rec := model.RegionRecord{
			RawName:       raw,
			CanonicalName: canonical,
			RegionKey:     region.ExtractKey(canonical),
			HasHouseholds: householdIdx >= 0,
		}

		if v, ok := ParseNumber(row[ratioIdx]); ok {
			rec.Ratio = v
			ratioSeen = true
		} else {
			stats.NonNumeric++
		}
		if householdIdx >= 0 {
			if v, ok := ParseNumber(row[householdIdx]); ok {
				rec.Households = v
				householdOK = true
			} else {
				stats.NonNumeric++
			}
		}
		out = append(out, rec)
	}
	stats.Kept = len(out)

	if len(out) == 0 {
		return nil, stats, eris.Wrapf(ErrMissingColumn, "population file has no region rows in %q", cols.Region)
	}
	if !ratioSeen {
		return nil, stats, eris.Wrapf(ErrMissingColumn, "ratio column %q has no numeric values", cols.Ratio)
	}
	if householdIdx >= 0 && !householdOK {
		return nil, stats, eris.Wrapf(ErrMissingColumn, "household column %q has no numeric values", cols.Households)
	}

	if stats.NonNumeric > 0 {
		zap.L().Warn("pipeline: non-numeric population cells counted as 0",
			zap.Int("cells", stats.NonNumeric),
		)
	}
	return out, stats, nil
}

func wrapMissing(err error) error {
	return eris.Wrap(ErrMissingColumn, err.Error())
}

// Package report renders scored regions as CSV, XLSX and text tables, and
// derives the ranked and scatter views shown alongside them.
package report

import (
	"encoding/csv"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/access-cli/internal/model"
)

// Columns is the fixed CSV header. Category counts follow as count_<category>.
var Columns = []string{
	"region_key",
	"region_name",
	"households",
	"ratio",
	"facility_count",
	"facility_rate",
	"ratio_z",
	"rate_z",
	"composite",
	"score",
	"match_method",
}

const categoryPrefix = "count_"

// Header returns the CSV header for a result set.
func Header(byCategory bool) []string {
	h := slices.Clone(Columns)
	if byCategory {
		for _, c := range model.Categories {
			h = append(h, categoryPrefix+string(c))
		}
	}
	return h
}

// WriteCSV writes regions in row order. Floats use the shortest exact
// representation so ReadCSV restores the same values.
func WriteCSV(w io.Writer, regions []model.AggregatedRegion, byCategory bool) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header(byCategory)); err != nil {
		return eris.Wrap(err, "report: write header")
	}
	for i, r := range regions {
		if err := cw.Write(csvRow(r, byCategory)); err != nil {
			return eris.Wrapf(err, "report: write row %d", i+1)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "report: flush csv")
	}
	return nil
}

func csvRow(r model.AggregatedRegion, byCategory bool) []string {
	method := r.MatchMethod
	if method == "" {
		method = model.MatchNone
	}
	row := []string{
		r.RegionKey,
		r.RegionName,
		formatFloat(r.Households),
		formatFloat(r.Ratio),
		strconv.Itoa(r.FacilityCount),
		formatFloat(r.FacilityRate),
		formatFloat(r.RatioZ),
		formatFloat(r.RateZ),
		formatFloat(r.Composite),
		formatFloat(r.Score),
		string(method),
	}
	if byCategory {
		for _, c := range model.Categories {
			row = append(row, strconv.Itoa(r.FacilityCounts[c]))
		}
	}
	return row
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ReadCSV parses a file written by WriteCSV. It reports whether the file
// carried per-category counts.
func ReadCSV(r io.Reader) ([]model.AggregatedRegion, bool, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, false, eris.Wrap(err, "report: read header")
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[h] = i
	}
	var missing []string
	for _, c := range Columns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, false, eris.Errorf("report: missing columns %s", strings.Join(missing, ", "))
	}

	byCategory := false
	for _, c := range model.Categories {
		if _, ok := idx[categoryPrefix+string(c)]; ok {
			byCategory = true
		}
	}

	var out []model.AggregatedRegion
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, eris.Wrapf(err, "report: read line %d", line)
		}
		region, err := parseRow(rec, idx, byCategory)
		if err != nil {
			return nil, false, eris.Wrapf(err, "report: line %d", line)
		}
		out = append(out, region)
	}
	return out, byCategory, nil
}

func parseRow(rec []string, idx map[string]int, byCategory bool) (model.AggregatedRegion, error) {
	get := func(col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var (
		r    model.AggregatedRegion
		errs []string
	)
	float := func(col string) float64 {
		v, err := strconv.ParseFloat(get(col), 64)
		if err != nil {
			errs = append(errs, col)
		}
		return v
	}
	integer := func(col string) int {
		v, err := strconv.Atoi(get(col))
		if err != nil {
			errs = append(errs, col)
		}
		return v
	}

	r.RegionKey = get("region_key")
	r.RegionName = get("region_name")
	r.Households = float("households")
	r.Ratio = float("ratio")
	r.FacilityCount = integer("facility_count")
	r.FacilityRate = float("facility_rate")
	r.RatioZ = float("ratio_z")
	r.RateZ = float("rate_z")
	r.Composite = float("composite")
	r.Score = float("score")
	r.MatchMethod = parseMatchMethod(get("match_method"))
	r.Matched = r.MatchMethod != model.MatchNone

	if byCategory {
		r.FacilityCounts = make(map[model.Category]int, len(model.Categories))
		for _, c := range model.Categories {
			if _, ok := idx[categoryPrefix+string(c)]; ok {
				r.FacilityCounts[c] = integer(categoryPrefix + string(c))
			}
		}
	}

	if len(errs) > 0 {
		return r, eris.Errorf("invalid number in %s", strings.Join(errs, ", "))
	}
	return r, nil
}

func parseMatchMethod(s string) model.MatchMethod {
	switch model.MatchMethod(s) {
	case model.MatchExact:
		return model.MatchExact
	case model.MatchSubstring:
		return model.MatchSubstring
	default:
		return model.MatchNone
	}
}

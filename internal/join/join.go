// Package join pairs population rows with facility counts and with boundary
// features.
package join

import (
	"sort"

	"github.com/sells-group/access-cli/internal/model"
)

// maxSampleKeys caps the key samples reported in Stats.
const maxSampleKeys = 10

// Stats summarizes a left join.
type Stats struct {
	Rows      int `json:"rows"`
	Matched   int `json:"matched"`
	Unmatched int `json:"unmatched"`
	// DuplicateKeys lists population keys that occur on more than one row.
	DuplicateKeys []string `json:"duplicate_keys,omitempty"`
	// OrphanKeys lists facility keys with no population row.
	OrphanKeys []string `json:"orphan_keys,omitempty"`
	// PopulationSample and FacilitySample hold the first keys of each side
	// for diagnosing an empty join.
	PopulationSample []string `json:"population_sample,omitempty"`
	FacilitySample   []string `json:"facility_sample,omitempty"`
}

// LeftJoin attaches facility counts to every population row by region key.
// The output has one row per input row in input order; rows with no
// facility entry get zero counts. When counts carry categories, every
// output row carries the full category map.
func LeftJoin(pop []model.RegionRecord, counts []model.FacilityCount) ([]model.AggregatedRegion, Stats) {
	byKey := make(map[string]model.FacilityCount, len(counts))
	byCategory := false
	for _, c := range counts {
		byKey[c.RegionKey] = c
		if c.ByCategory != nil {
			byCategory = true
		}
	}

	stats := Stats{Rows: len(pop)}
	seen := make(map[string]int, len(pop))
	used := make(map[string]bool, len(counts))
	out := make([]model.AggregatedRegion, len(pop))

	for i, p := range pop {
		row := model.AggregatedRegion{
			RegionKey:   p.RegionKey,
			RegionName:  p.CanonicalName,
			Households:  p.Households,
			Ratio:       p.Ratio,
			MatchMethod: model.MatchNone,
		}

		fc, ok := byKey[p.RegionKey]
		if ok && p.RegionKey != "" {
			stats.Matched++
			used[p.RegionKey] = true
			row.FacilityCount = fc.Total
		} else {
			stats.Unmatched++
		}
		if byCategory {
			row.FacilityCounts = make(map[model.Category]int, len(model.Categories))
			for _, c := range model.Categories {
				row.FacilityCounts[c] = fc.ByCategory[c]
			}
		}

		if p.RegionKey != "" {
			seen[p.RegionKey]++
			if seen[p.RegionKey] == 2 {
				stats.DuplicateKeys = append(stats.DuplicateKeys, p.RegionKey)
			}
		}
		if len(stats.PopulationSample) < maxSampleKeys {
			stats.PopulationSample = append(stats.PopulationSample, p.RegionKey)
		}
		out[i] = row
	}

	for _, c := range counts {
		if len(stats.FacilitySample) < maxSampleKeys {
			stats.FacilitySample = append(stats.FacilitySample, c.RegionKey)
		}
		if !used[c.RegionKey] {
			stats.OrphanKeys = append(stats.OrphanKeys, c.RegionKey)
		}
	}
	sort.Strings(stats.OrphanKeys)

	return out, stats
}

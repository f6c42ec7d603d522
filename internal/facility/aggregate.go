package facility

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/access-cli/internal/model"
	"github.com/sells-group/access-cli/internal/region"
)

// maxDroppedSamples caps the raw addresses kept for diagnostics.
const maxDroppedSamples = 5

// Stats summarizes one aggregation.
type Stats struct {
	Rows           int      `json:"rows"`
	Kept           int      `json:"kept"`
	Dropped        int      `json:"dropped"`
	Regions        int      `json:"regions"`
	DroppedSamples []string `json:"dropped_samples,omitempty"`
}

// Records builds facility records from parallel address and category
// columns. categories may be nil when the file has no type column.
func Records(n *region.Normalizer, addresses, categories []string) []model.FacilityRecord {
	out := make([]model.FacilityRecord, len(addresses))
	for i, addr := range addresses {
		cat := model.CategoryOther
		if i < len(categories) {
			cat = Classify(categories[i])
		}
		out[i] = model.FacilityRecord{
			RawAddress: addr,
			RegionKey:  n.Key(addr),
			Category:   cat,
		}
	}
	return out
}

// Aggregate groups records by region key and counts them. Output holds
// exactly one entry per distinct non-empty key, sorted by key, and each
// Total equals the number of records carrying that key. Records with an
// empty key are dropped and counted in Stats.Dropped. When byCategory is
// set every entry carries a count for each category, zeros included.
func Aggregate(records []model.FacilityRecord, byCategory bool) ([]model.FacilityCount, Stats) {
	stats := Stats{Rows: len(records)}
	index := make(map[string]int)
	var counts []model.FacilityCount

	for _, r := range records {
		if r.RegionKey == "" {
			stats.Dropped++
			if len(stats.DroppedSamples) < maxDroppedSamples {
				stats.DroppedSamples = append(stats.DroppedSamples, r.RawAddress)
			}
			continue
		}
		stats.Kept++

		i, ok := index[r.RegionKey]
		if !ok {
			i = len(counts)
			index[r.RegionKey] = i
			fc := model.FacilityCount{RegionKey: r.RegionKey}
			if byCategory {
				fc.ByCategory = make(map[model.Category]int, len(model.Categories))
				for _, c := range model.Categories {
					fc.ByCategory[c] = 0
				}
			}
			counts = append(counts, fc)
		}

		counts[i].Total++
		if byCategory {
			cat := r.Category
			if cat == "" {
				cat = model.CategoryOther
			}
			counts[i].ByCategory[cat]++
		}
	}

	sort.Slice(counts, func(a, b int) bool {
		return counts[a].RegionKey < counts[b].RegionKey
	})
	stats.Regions = len(counts)

	if stats.Dropped > 0 {
		zap.L().Warn("facility: rows without a region key dropped",
			zap.Int("dropped", stats.Dropped),
			zap.Strings("samples", stats.DroppedSamples),
		)
	}

	return counts, stats
}

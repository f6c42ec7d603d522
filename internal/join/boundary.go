package join

import (
	"strings"

	"github.com/sells-group/access-cli/internal/model"
	"github.com/sells-group/access-cli/internal/region"
)

// BoundaryMatch is the result of pairing regions with boundary features.
type BoundaryMatch struct {
	// Regions is a copy of the input with Matched, BoundaryName and
	// MatchMethod filled in.
	Regions []model.AggregatedRegion
	// FeatureIndex holds, per region, the index of the matched feature or -1.
	FeatureIndex []int
	Exact        int
	Substring    int
	Missing      int
	Unmatched    []string
}

// MatchBoundaries pairs each region with a boundary feature.
//
// Pass 1 matches region keys to feature join keys exactly. Pass 2 is the
// substring fallback: for every region still unmatched it scans features in
// input order and takes the first one whose canonical name contains the
// region key or is contained in it (also comparing space-free forms). The
// first-match rule is order dependent: with several features named "중구",
// "서울시 중구" pairs with whichever comes first in the boundary file.
func MatchBoundaries(regions []model.AggregatedRegion, features []model.BoundaryFeature) BoundaryMatch {
	m := BoundaryMatch{
		Regions:      make([]model.AggregatedRegion, len(regions)),
		FeatureIndex: make([]int, len(regions)),
	}
	copy(m.Regions, regions)

	exact := make(map[string]int, len(features))
	for i, f := range features {
		if f.JoinKey == "" {
			continue
		}
		if _, dup := exact[f.JoinKey]; !dup {
			exact[f.JoinKey] = i
		}
	}

	for i := range m.Regions {
		r := &m.Regions[i]
		r.Matched, r.BoundaryName, r.MatchMethod = false, "", model.MatchNone
		m.FeatureIndex[i] = -1
		if r.RegionKey == "" {
			continue
		}
		if fi, ok := exact[r.RegionKey]; ok {
			m.assign(i, fi, features[fi], model.MatchExact)
			m.Exact++
		}
	}

	for i := range m.Regions {
		r := &m.Regions[i]
		if r.Matched {
			continue
		}
		if fi := substringMatch(r.RegionKey, features); fi >= 0 {
			m.assign(i, fi, features[fi], model.MatchSubstring)
			m.Substring++
			continue
		}
		r.MatchMethod = model.MatchNone
		m.Missing++
		m.Unmatched = append(m.Unmatched, r.RegionKey)
	}

	return m
}

func (m *BoundaryMatch) assign(i, fi int, f model.BoundaryFeature, method model.MatchMethod) {
	r := &m.Regions[i]
	r.Matched = true
	r.BoundaryName = f.PropertyName
	r.MatchMethod = method
	m.FeatureIndex[i] = fi
}

// substringMatch returns the first feature whose canonical name and key
// overlap by containment, or -1.
func substringMatch(key string, features []model.BoundaryFeature) int {
	if key == "" {
		return -1
	}
	compactKey := region.Compact(key)
	for i, f := range features {
		name := f.CanonicalName
		if name == "" {
			continue
		}
		if strings.Contains(key, name) || strings.Contains(name, key) {
			return i
		}
		compactName := region.Compact(name)
		if strings.Contains(compactKey, compactName) || strings.Contains(compactName, compactKey) {
			return i
		}
	}
	return -1
}

// Package model defines the records that flow through the access analysis pipeline.
package model

// Level is the administrative level a region key resolves to.
type Level string

const (
	LevelProvince Level = "province" // 시·도
	LevelCity     Level = "city"     // 시
	LevelDistrict Level = "district" // 구·군
	LevelUnknown  Level = "unknown"
)

// MatchMethod records how a region was paired with a boundary feature.
type MatchMethod string

const (
	MatchExact     MatchMethod = "exact"
	MatchSubstring MatchMethod = "substring"
	MatchNone      MatchMethod = "none"
)

// RegionRecord is one population row after normalization. It is not
// modified after key extraction.
type RegionRecord struct {
	RawName       string  `json:"raw_name"`
	CanonicalName string  `json:"canonical_name"`
	RegionKey     string  `json:"region_key"`
	Ratio         float64 `json:"ratio"`
	Households    float64 `json:"households"`
	HasHouseholds bool    `json:"has_households"`
}

// AggregatedRegion is one joined output row per population record.
type AggregatedRegion struct {
	RegionKey      string           `json:"region_key"`
	RegionName     string           `json:"region_name"`
	Households     float64          `json:"households"`
	Ratio          float64          `json:"ratio"`
	FacilityCount  int              `json:"facility_count"`
	FacilityCounts map[Category]int `json:"facility_counts,omitempty"`
	FacilityRate   float64          `json:"facility_rate"`
	RatioZ         float64          `json:"ratio_z"`
	RateZ          float64          `json:"rate_z"`
	Composite      float64          `json:"composite"`
	Score          float64          `json:"score"`
	Matched        bool             `json:"matched"`
	BoundaryName   string           `json:"boundary_name,omitempty"`
	MatchMethod    MatchMethod      `json:"match_method"`
}

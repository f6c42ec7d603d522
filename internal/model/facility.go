package model

import "strings"

// Category classifies a facility row.
type Category string

const (
	CategoryHospital Category = "hospital"
	CategoryPharmacy Category = "pharmacy"
	CategoryWelfare  Category = "welfare"
	CategoryOther    Category = "other"
)

// Categories lists every category in output column order.
var Categories = []Category{CategoryHospital, CategoryPharmacy, CategoryWelfare, CategoryOther}

// ParseCategory maps a category name back to a Category. Unknown names map to
// CategoryOther.
func ParseCategory(s string) Category {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryHospital:
		return CategoryHospital
	case CategoryPharmacy:
		return CategoryPharmacy
	case CategoryWelfare:
		return CategoryWelfare
	default:
		return CategoryOther
	}
}

// FacilityRecord is one facility row reduced to its region key and category.
type FacilityRecord struct {
	RawAddress string   `json:"raw_address"`
	RegionKey  string   `json:"region_key"`
	Category   Category `json:"category"`
}

// FacilityCount is the per-region aggregate of facility rows.
// ByCategory is nil when the input had no category column.
type FacilityCount struct {
	RegionKey  string           `json:"region_key"`
	Total      int              `json:"total"`
	ByCategory map[Category]int `json:"by_category,omitempty"`
}

// Package facility turns facility registry rows into per-region counts.
package facility

import (
	"strings"

	"github.com/sells-group/access-cli/internal/model"
)

// categoryKeywords maps lowercase keywords to categories. The longest
// matching keyword wins so "요양병원" is a hospital and not a care home.
var categoryKeywords = map[string]model.Category{
	// Hospital variants
	"병원":       model.CategoryHospital,
	"의원":       model.CategoryHospital,
	"요양병원":     model.CategoryHospital,
	"보건소":      model.CategoryHospital,
	"보건지소":     model.CategoryHospital,
	"보건진료소":    model.CategoryHospital,
	"한의원":      model.CategoryHospital,
	"치과":       model.CategoryHospital,
	"hospital": model.CategoryHospital,
	"clinic":   model.CategoryHospital,

	// Pharmacy variants
	"약국":        model.CategoryPharmacy,
	"pharmacy":  model.CategoryPharmacy,
	"drugstore": model.CategoryPharmacy,

	// Welfare variants
	"복지":      model.CategoryWelfare,
	"요양":      model.CategoryWelfare,
	"경로당":     model.CategoryWelfare,
	"노인":      model.CategoryWelfare,
	"welfare": model.CategoryWelfare,
	"care":    model.CategoryWelfare,
}

// categoryRank breaks ties between equally long keywords.
var categoryRank = map[model.Category]int{
	model.CategoryHospital: 0,
	model.CategoryPharmacy: 1,
	model.CategoryWelfare:  2,
}

// Classify maps a free-text facility type to a category. Text without a
// known keyword is CategoryOther.
func Classify(raw string) model.Category {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if lower == "" {
		return model.CategoryOther
	}
	if c := model.ParseCategory(lower); c != model.CategoryOther {
		return c
	}

	bestKey := ""
	best := model.CategoryOther
	for kw, c := range categoryKeywords {
		if !strings.Contains(lower, kw) {
			continue
		}
		if len(kw) > len(bestKey) || (len(kw) == len(bestKey) && categoryRank[c] < categoryRank[best]) {
			bestKey = kw
			best = c
		}
	}
	return best
}

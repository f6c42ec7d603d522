package pipeline

import (
	"strings"

	"github.com/sells-group/access-cli/internal/model"
)

// roleKeywords lists header keywords per role, highest priority first.
// Matching is by case-insensitive substring.
var roleKeywords = map[model.Role][]string{
	model.RoleRegion:     {"행정구역", "시군구", "자치구", "지역", "시도", "region", "district", "area"},
	model.RoleRatio:      {"비율", "비중", "%", "ratio", "percent", "share"},
	model.RoleHouseholds: {"가구수", "가구 수", "세대수", "가구", "세대", "household", "count"},
	model.RoleAddress:    {"주소", "소재지", "address", "addr", "location"},
	model.RoleCategory:   {"종별", "종류", "유형", "구분", "category", "type", "kind"},
}

// DetectColumns guesses the column for every role from the two headers.
// Ratio is resolved before households so "독거노인 비율" is never taken as
// a count. When no header looks like a region, the first unused population
// column is used, matching the usual file layout.
func DetectColumns(populationHeader, facilityHeader []string) model.ColumnMapping {
	var m model.ColumnMapping

	used := map[string]bool{}
	for _, r := range []model.Role{model.RoleRatio, model.RoleHouseholds, model.RoleRegion} {
		if col := findColumn(populationHeader, roleKeywords[r], used); col != "" {
			m.Set(r, col)
			used[col] = true
		}
	}
	if m.Region == "" {
		for _, h := range populationHeader {
			if !used[h] {
				m.Region = h
				break
			}
		}
	}

	used = map[string]bool{}
	for _, r := range model.FacilityRoles {
		if col := findColumn(facilityHeader, roleKeywords[r], used); col != "" {
			m.Set(r, col)
			used[col] = true
		}
	}
	return m
}

// ResolveColumns fills the roles left empty in explicit with detected
// columns and validates the result against both headers.
func ResolveColumns(explicit model.ColumnMapping, populationHeader, facilityHeader []string) (model.ColumnMapping, error) {
	m := explicit.Merge(DetectColumns(populationHeader, facilityHeader))
	if err := m.Validate(populationHeader, facilityHeader); err != nil {
		return m, wrapMissing(err)
	}
	return m, nil
}

func findColumn(header, keywords []string, used map[string]bool) string {
	for _, kw := range keywords {
		for _, h := range header {
			if used[h] {
				continue
			}
			if strings.Contains(strings.ToLower(h), kw) {
				return h
			}
		}
	}
	return ""
}

package region

import (
	"strings"
	"unicode/utf8"

	"github.com/sells-group/access-cli/internal/model"
)

// metroCities are canonical names of province-level cities.
var metroCities = map[string]bool{
	"서울시": true,
	"부산시": true,
	"대구시": true,
	"인천시": true,
	"광주시": true,
	"대전시": true,
	"울산시": true,
	"세종시": true,
}

// totalLabels mark summary rows in statistics exports.
var totalLabels = map[string]bool{
	"전국":    true,
	"합계":    true,
	"소계":    true,
	"계":     true,
	"총계":    true,
	"전체":    true,
	"total": true,
}

// IsTotal reports whether a canonical label is a summary row rather than a region.
func IsTotal(canonical string) bool {
	return totalLabels[strings.ToLower(strings.TrimSpace(canonical))]
}

// TokenLevel classifies a single token by its administrative suffix.
func TokenLevel(token string) model.Level {
	if utf8.RuneCountInString(token) < 2 {
		return model.LevelUnknown
	}
	switch {
	case strings.HasSuffix(token, "구"), strings.HasSuffix(token, "군"):
		return model.LevelDistrict
	case strings.HasSuffix(token, "시"):
		if metroCities[token] {
			return model.LevelProvince
		}
		return model.LevelCity
	case strings.HasSuffix(token, "도"):
		return model.LevelProvince
	}
	return model.LevelUnknown
}

// Level reports the administrative level of a region key, judged by its
// last token.
func Level(key string) model.Level {
	tokens := strings.Fields(key)
	n := len(tokens)
	if n == 0 {
		return model.LevelUnknown
	}
	if n > 1 && provinceCity(tokens[n-2], tokens[n-1]) {
		return model.LevelCity
	}
	return TokenLevel(tokens[n-1])
}

// provinceCity reports whether city is a 도-level city sharing its name
// with a metropolitan city (경기도 광주시 vs 광주광역시).
func provinceCity(prev, city string) bool {
	return metroCities[city] && strings.HasSuffix(prev, "도") && TokenLevel(prev) == model.LevelProvince
}

// ExtractKey derives the most specific administrative key from a canonical
// string. It is a suffix heuristic, not a gazetteer lookup:
//   - trailing tokens without an administrative suffix (streets, building
//     numbers, 동/읍/면) are dropped first
//   - a district/county (구, 군) key is the last two tokens
//   - a city (시) key is the city alone, or the last two tokens when the
//     previous token is itself a non-metropolitan city
//   - a province (도, metropolitan 시) key is that token alone, except a
//     metropolitan name directly under a 도, which keeps the 도 so it
//     cannot collide with the metropolitan city
//   - with no administrative token at all, the last two tokens (or the
//     whole string) are used
func ExtractKey(canonical string) string {
	tokens := strings.Fields(canonical)
	if len(tokens) == 0 {
		return ""
	}

	end := len(tokens)
	for end > 0 && TokenLevel(tokens[end-1]) == model.LevelUnknown {
		end--
	}
	if end == 0 {
		return lastTwo(tokens)
	}
	tokens = tokens[:end]

	n := len(tokens)
	last := tokens[n-1]
	if n == 1 {
		return last
	}
	prev := tokens[n-2]
	if provinceCity(prev, last) {
		return prev + " " + last
	}

	switch TokenLevel(last) {
	case model.LevelDistrict:
		return prev + " " + last
	case model.LevelCity:
		if TokenLevel(prev) == model.LevelCity {
			return prev + " " + last
		}
		return last
	default:
		return last
	}
}

func lastTwo(tokens []string) string {
	if len(tokens) < 2 {
		return strings.Join(tokens, " ")
	}
	return tokens[len(tokens)-2] + " " + tokens[len(tokens)-1]
}

package join

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/access-cli/internal/model"
)

func feature(name, canonical, key string) model.BoundaryFeature {
	return model.BoundaryFeature{PropertyName: name, CanonicalName: canonical, JoinKey: key}
}

func regions(keys ...string) []model.AggregatedRegion {
	out := make([]model.AggregatedRegion, len(keys))
	for i, k := range keys {
		out[i] = model.AggregatedRegion{RegionKey: k}
	}
	return out
}

func TestMatchBoundaries_ExactFirst(t *testing.T) {
	features := []model.BoundaryFeature{
		feature("수원시장안구", "수원시장안구", "수원시장안구"),
		feature("종로구", "종로구", "종로구"),
	}

	m := MatchBoundaries(regions("종로구"), features)
	require.Len(t, m.Regions, 1)
	assert.True(t, m.Regions[0].Matched)
	assert.Equal(t, model.MatchExact, m.Regions[0].MatchMethod)
	assert.Equal(t, "종로구", m.Regions[0].BoundaryName)
	assert.Equal(t, []int{1}, m.FeatureIndex)
	assert.Equal(t, 1, m.Exact)
}

func TestMatchBoundaries_SubstringFallback(t *testing.T) {
	features := []model.BoundaryFeature{
		feature("강남구", "강남구", "강남구"),
	}

	m := MatchBoundaries(regions("서울시 강남구"), features)
	assert.Equal(t, model.MatchSubstring, m.Regions[0].MatchMethod)
	assert.Equal(t, "강남구", m.Regions[0].BoundaryName)
	assert.Equal(t, 1, m.Substring)
	assert.Zero(t, m.Missing)
}

func TestMatchBoundaries_CompactFallback(t *testing.T) {
	features := []model.BoundaryFeature{
		feature("수원시장안구", "수원시장안구", "수원시장안구"),
	}

	m := MatchBoundaries(regions("수원시 장안구"), features)
	assert.Equal(t, model.MatchSubstring, m.Regions[0].MatchMethod)
	assert.Equal(t, 0, m.FeatureIndex[0])
}

func TestMatchBoundaries_FirstMatchWins(t *testing.T) {
	features := []model.BoundaryFeature{
		feature("중구", "중구", "중구 A"),
		feature("중구", "중구", "중구 B"),
	}

	m := MatchBoundaries(regions("부산시 중구"), features)
	assert.Equal(t, 0, m.FeatureIndex[0])

	reversed := []model.BoundaryFeature{features[1], features[0]}
	m = MatchBoundaries(regions("부산시 중구"), reversed)
	assert.Equal(t, 0, m.FeatureIndex[0])
	assert.Equal(t, model.MatchSubstring, m.Regions[0].MatchMethod)
}

func TestMatchBoundaries_Missing(t *testing.T) {
	features := []model.BoundaryFeature{feature("종로구", "종로구", "종로구")}

	m := MatchBoundaries(regions("제주도", ""), features)
	assert.Equal(t, 2, m.Missing)
	assert.Equal(t, []string{"제주도", ""}, m.Unmatched)
	assert.Equal(t, []int{-1, -1}, m.FeatureIndex)
	for _, r := range m.Regions {
		assert.False(t, r.Matched)
		assert.Equal(t, model.MatchNone, r.MatchMethod)
	}
}

func TestMatchBoundaries_DoesNotMutateInput(t *testing.T) {
	in := regions("종로구")
	_ = MatchBoundaries(in, []model.BoundaryFeature{feature("종로구", "종로구", "종로구")})
	assert.False(t, in[0].Matched)
}

func TestMatchBoundaries_SkipsEmptyFeatureNames(t *testing.T) {
	features := []model.BoundaryFeature{
		feature("", "", ""),
		feature("종로구", "종로구", "종로구"),
	}
	m := MatchBoundaries(regions("서울시 종로구"), features)
	assert.Equal(t, 1, m.FeatureIndex[0])
}
